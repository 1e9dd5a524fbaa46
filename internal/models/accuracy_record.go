package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BettingOutcome is the hypothetical settlement of a prediction's signal.
type BettingOutcome string

const (
	OutcomeWin   BettingOutcome = "win"
	OutcomeLoss  BettingOutcome = "loss"
	OutcomeNoBet BettingOutcome = "no_bet"
)

// PredictionAccuracyRecord scores one prediction against the official
// result of its race. Top1/Top3/Top4 correctness requires the predicted
// sequence to match the actual sequence in exact order; membership-based
// "hit rates" are computed downstream by the aggregator. Records are
// append-only and immutable.
type PredictionAccuracyRecord struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	PredictionID     uuid.UUID       `db:"prediction_id" json:"prediction_id"`
	RaceID           string          `db:"race_id" json:"race_id"`
	ModelName        string          `db:"model_name" json:"model_name"`
	Top1Correct      bool            `db:"top1_correct" json:"top1_correct"`
	Top3Correct      bool            `db:"top3_correct" json:"top3_correct"`
	Top4Correct      bool            `db:"top4_correct" json:"top4_correct"`
	ExactaHit        bool            `db:"exacta_hit" json:"exacta_hit"`
	TrifectaHit      bool            `db:"trifecta_hit" json:"trifecta_hit"`
	WinnerInTop3     bool            `db:"winner_in_top3" json:"winner_in_top3"`
	WinnerInTop4     bool            `db:"winner_in_top4" json:"winner_in_top4"`
	RankCorrelation  float64         `db:"rank_correlation" json:"rank_correlation"`
	Confidence       float64         `db:"confidence" json:"confidence"`
	CalibrationError float64         `db:"calibration_error" json:"calibration_error"`
	BettingOutcome   BettingOutcome  `db:"betting_outcome" json:"betting_outcome"`
	Stake            decimal.Decimal `db:"stake" json:"stake"`
	ProfitLoss       decimal.Decimal `db:"profit_loss" json:"profit_loss"`
	ValidatedAt      time.Time       `db:"validated_at" json:"validated_at"`
}

// ROI returns profit over stake as a float, 0 when no stake was placed.
func (r *PredictionAccuracyRecord) ROI() float64 {
	if r.BettingOutcome == OutcomeNoBet || r.Stake.IsZero() {
		return 0
	}
	return r.ProfitLoss.Div(r.Stake).InexactFloat64()
}
