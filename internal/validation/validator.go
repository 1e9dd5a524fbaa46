// Package validation matches race predictions against official results and
// produces immutable accuracy records.
package validation

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/equine-oracle/internal/models"
)

// EnsembleModelName labels records scored against the combined ranking, as
// opposed to an individual base ranker's own ordering.
const EnsembleModelName = "ensemble"

// Validator scores predictions against race results. Validation is
// per-race isolated: a failure on one race is logged and never aborts the
// others.
type Validator struct {
	stake  decimal.Decimal
	logger *logrus.Logger
}

// NewValidator creates a validator using the given hypothetical stake for
// betting-outcome simulation.
func NewValidator(stake decimal.Decimal, logger *logrus.Logger) *Validator {
	if stake.LessThanOrEqual(decimal.Zero) {
		stake = decimal.NewFromInt(10)
	}
	return &Validator{stake: stake, logger: logger}
}

// ValidateRace scores every prediction issued for a race against its
// official result. Missing inputs are a benign no-op. Each prediction is
// validated in isolation; panics and errors are caught, logged with the
// race id, and skip only that prediction.
func (v *Validator) ValidateRace(preds []*models.RacePrediction, result *models.RaceResult) []*models.PredictionAccuracyRecord {
	if result == nil || len(preds) == 0 {
		v.logger.WithField("race_id", raceIDOf(preds, result)).
			Debug("No predictions or result to validate yet")
		return nil
	}

	records := make([]*models.PredictionAccuracyRecord, 0, len(preds)*(1+len(models.BaseRankerNames)))
	for _, pred := range preds {
		recs, err := v.validateOne(pred, result)
		if err != nil {
			v.logger.WithError(err).WithFields(logrus.Fields{
				"race_id":       result.RaceID,
				"prediction_id": pred.ID,
			}).Error("Prediction validation failed")
			continue
		}
		records = append(records, recs...)
	}
	return records
}

func (v *Validator) validateOne(pred *models.RacePrediction, result *models.RaceResult) (records []*models.PredictionAccuracyRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			records = nil
			err = fmt.Errorf("panic during validation: %v", r)
		}
	}()

	if pred.Output == nil {
		return nil, fmt.Errorf("prediction %s has no ensemble output", pred.ID)
	}

	actual := result.TopFour()
	now := time.Now().UTC()

	ensRec := v.scoreRanking(pred.ID, result.RaceID, EnsembleModelName, pred.Output.RankedNames(), actual, pred.TopConfidence(), now)
	v.settleBet(ensRec, pred.TopSignal(), result)
	records = append(records, ensRec)

	// Each base ranker's own ordering is scored too, so the aggregator can
	// compare models and recompute ensemble weights.
	for _, model := range models.BaseRankerNames {
		ranking := pred.ModelRanking(model)
		if len(ranking) == 0 {
			continue
		}
		rec := v.scoreRanking(pred.ID, result.RaceID, model, ranking, actual, pred.TopConfidence(), now)
		// Per-model records settle a notional WIN bet on that model's top
		// pick so ROI-based re-weighting has a return series to work with.
		v.settleModelBet(rec, ranking, actual[0], result.WinningOdds)
		records = append(records, rec)
	}

	return records, nil
}

// scoreRanking computes correctness flags and rank correlation for one
// ranking against the actual top four. Top-N Correct flags are strict
// exact-order matches on positions 1..N; the membership-based WinnerInTopN
// flags feed the softer "hit rate" metrics.
func (v *Validator) scoreRanking(predID uuid.UUID, raceID, modelName string, predicted, actual []string, confidence float64, now time.Time) *models.PredictionAccuracyRecord {
	top1 := len(predicted) >= 1 && predicted[0] == actual[0]

	rec := &models.PredictionAccuracyRecord{
		ID:              uuid.New(),
		PredictionID:    predID,
		RaceID:          raceID,
		ModelName:       modelName,
		Top1Correct:     top1,
		Top3Correct:     exactOrderMatch(predicted, actual, 3),
		Top4Correct:     exactOrderMatch(predicted, actual, 4),
		ExactaHit:       exactOrderMatch(predicted, actual, 2),
		TrifectaHit:     exactOrderMatch(predicted, actual, 3),
		WinnerInTop3:    memberOf(actual[0], predicted, 3),
		WinnerInTop4:    memberOf(actual[0], predicted, 4),
		RankCorrelation: SpearmanRho(predicted, actual),
		Confidence:      confidence,
		BettingOutcome:  models.OutcomeNoBet,
		Stake:           decimal.Zero,
		ProfitLoss:      decimal.Zero,
		ValidatedAt:     now,
	}

	// Brier-style residual: |stated confidence - actual outcome| where the
	// outcome is 1 iff the top pick won.
	outcome := 0.0
	if top1 {
		outcome = 1.0
	}
	rec.CalibrationError = math.Abs(confidence - outcome)

	return rec
}

// settleBet simulates a fixed-stake WIN bet on the ensemble's top pick
// when the issued signal was actionable. WAIT predictions produce no bet.
func (v *Validator) settleBet(rec *models.PredictionAccuracyRecord, topSignal *models.BettingSignal, result *models.RaceResult) {
	if topSignal == nil || !topSignal.Signal.Actionable() {
		return
	}

	rec.Stake = v.stake
	if rec.Top1Correct {
		rec.BettingOutcome = models.OutcomeWin
		rec.ProfitLoss = v.stake.Mul(result.WinningOdds.Sub(decimal.NewFromInt(1)))
	} else {
		rec.BettingOutcome = models.OutcomeLoss
		rec.ProfitLoss = v.stake.Neg()
	}
}

// settleModelBet settles the per-model notional bet unconditionally: the
// base rankers have no signal engine of their own, so their return series
// is the naive always-bet-the-top-pick line.
func (v *Validator) settleModelBet(rec *models.PredictionAccuracyRecord, predicted []string, winner string, winOdds decimal.Decimal) {
	rec.Stake = v.stake
	if len(predicted) > 0 && predicted[0] == winner {
		rec.BettingOutcome = models.OutcomeWin
		rec.ProfitLoss = v.stake.Mul(winOdds.Sub(decimal.NewFromInt(1)))
	} else {
		rec.BettingOutcome = models.OutcomeLoss
		rec.ProfitLoss = v.stake.Neg()
	}
}

// exactOrderMatch reports whether predicted[0:n] equals actual[0:n]
// position by position. Deliberately strict: predicting the right three
// horses in the wrong order does not count.
func exactOrderMatch(predicted, actual []string, n int) bool {
	if len(predicted) < n || len(actual) < n {
		return false
	}
	for i := 0; i < n; i++ {
		if predicted[i] != actual[i] {
			return false
		}
	}
	return true
}

func memberOf(name string, predicted []string, topN int) bool {
	if topN > len(predicted) {
		topN = len(predicted)
	}
	for i := 0; i < topN; i++ {
		if predicted[i] == name {
			return true
		}
	}
	return false
}

func raceIDOf(preds []*models.RacePrediction, result *models.RaceResult) string {
	if result != nil {
		return result.RaceID
	}
	if len(preds) > 0 {
		return preds[0].RaceID
	}
	return ""
}
