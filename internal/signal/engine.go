// Package signal converts ensemble outputs into betting signals and
// race-level advice.
package signal

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/equine-oracle/internal/models"
)

// Thresholds are the minimum confidences for each signal tier. They are
// configuration, not constants, so backtests can sweep risk appetites.
type Thresholds struct {
	StrongBuy float64 `mapstructure:"strong_buy"`
	Buy       float64 `mapstructure:"buy"`
	Hold      float64 `mapstructure:"hold"`
}

// DefaultThresholds mirror the production defaults: rank 1 needs 0.65 for
// a WIN bet, rank <=2 needs 0.55 for PLACE/EXACTA, rank <=3 needs 0.50
// for TRIFECTA consideration.
func DefaultThresholds() Thresholds {
	return Thresholds{StrongBuy: 0.65, Buy: 0.55, Hold: 0.50}
}

// Config holds the signal engine's tunables.
type Config struct {
	Thresholds     Thresholds
	AgreementFloor float64 // below this, race advice is forced to WAIT
	Stake          float64 // notional stake for expected-ROI arithmetic
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Thresholds:     DefaultThresholds(),
		AgreementFloor: 0.5,
		Stake:          10.0,
	}
}

// Engine derives confidence scalars, per-horse signals and race advice
// from an EnsembleOutput. All methods are pure functions of their inputs.
type Engine struct {
	cfg    Config
	logger *logrus.Logger
}

// NewEngine creates a signal engine.
func NewEngine(cfg Config, logger *logrus.Logger) *Engine {
	if cfg.Stake <= 0 {
		cfg.Stake = 10.0
	}
	return &Engine{cfg: cfg, logger: logger}
}

// HorseConfidence computes the canonical [0,1] confidence for the horse at
// index idx in the field's combined scores (sorted descending).
//
//	confidence = 0.7*normalized_score + 0.3*score_separation
//
// Raw rank strength alone overstates confidence in tightly bunched fields;
// the separation term penalizes ambiguous races. Changing this formula
// changes the meaning of every stored confidence, so it is fixed here and
// nowhere else.
func (e *Engine) HorseConfidence(fieldScores []float64, idx int) float64 {
	if len(fieldScores) == 0 || idx < 0 || idx >= len(fieldScores) {
		return 0
	}

	min, max := fieldScores[0], fieldScores[0]
	for _, s := range fieldScores {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}

	normalized := 0.5
	if max > min {
		normalized = (fieldScores[idx] - min) / (max - min)
	}

	separation := 0.0
	if idx < len(fieldScores)-1 && max > min {
		gap := (fieldScores[idx] - fieldScores[idx+1]) / (max - min)
		separation = math.Min(gap*2, 1.0)
	}

	confidence := 0.7*normalized + 0.3*separation
	return math.Max(0, math.Min(1, confidence))
}

// Signals produces one BettingSignal per horse. liveOdds maps normalized
// horse names to decimal odds; when absent, a field-size payout proxy is
// used for the expected-ROI estimate.
func (e *Engine) Signals(out *models.EnsembleOutput, liveOdds map[string]float64) []models.BettingSignal {
	t := e.cfg.Thresholds
	fieldSize := len(out.Horses)
	signals := make([]models.BettingSignal, 0, fieldSize)

	for _, h := range out.Horses {
		var sig models.Signal
		var rec string

		switch {
		case h.Rank == 1 && h.Confidence >= t.StrongBuy:
			sig = models.SignalStrongBuy
			rec = "Place WIN bet"
		case h.Rank <= 2 && h.Confidence >= t.Buy:
			sig = models.SignalBuy
			rec = "Place PLACE or EXACTA bet"
		case h.Rank <= 3 && h.Confidence >= t.Hold:
			sig = models.SignalHold
			rec = "Consider for TRIFECTA or FIRST FOUR"
		default:
			sig = models.SignalWait
			rec = "Insufficient edge - wait for better odds"
		}

		odds, hasOdds := liveOdds[models.NormalizeHorseName(h.HorseName)]
		signals = append(signals, models.BettingSignal{
			HorseName:       h.HorseName,
			Rank:            h.Rank,
			Confidence:      h.Confidence,
			Signal:          sig,
			Recommendation:  rec,
			ConfidenceLevel: Level(h.Confidence),
			ExpectedROI:     e.expectedROI(h.Confidence, fieldSize, odds, hasOdds),
		})
	}

	return signals
}

// Level maps a confidence scalar to its qualitative band. Bounds are
// inclusive on the lower edge.
func Level(confidence float64) models.ConfidenceLevel {
	switch {
	case confidence >= 0.85:
		return models.ConfidenceVeryHigh
	case confidence >= 0.75:
		return models.ConfidenceHigh
	case confidence >= 0.65:
		return models.ConfidenceModerate
	case confidence >= 0.55:
		return models.ConfidenceLow
	default:
		return models.ConfidenceVeryLow
	}
}

// expectedROI estimates EV as a percentage of stake:
//
//	EV = confidence*potential_payout - (1-confidence)*stake
//
// With live odds the payout is stake*(odds-1). Without them, fair odds in
// an n-horse field are roughly n for an uninformed pick, so half the field
// size (floored at evens) stands in as a conservative market proxy.
func (e *Engine) expectedROI(confidence float64, fieldSize int, odds float64, hasOdds bool) float64 {
	if !hasOdds {
		odds = math.Max(2.0, float64(fieldSize)/2.0)
	}
	stake := e.cfg.Stake
	payout := stake * (odds - 1)
	ev := confidence*payout - (1-confidence)*stake
	return ev / stake * 100
}

// Difficulty grades the race from the combined-score gap between the top
// two horses.
func (e *Engine) Difficulty(out *models.EnsembleOutput) models.RaceDifficulty {
	if len(out.Horses) < 2 {
		return models.DifficultyUnknown
	}
	gap := out.Horses[0].Score - out.Horses[1].Score
	switch {
	case gap > 0.30:
		return models.DifficultyEasy
	case gap >= 0.10:
		return models.DifficultyModerate
	default:
		return models.DifficultyHard
	}
}

// Advise aggregates the top pick's signal into race-level advice. Model
// agreement below the configured floor forces WAIT regardless of how
// confident the top pick looks: when the base rankers disagree, the
// confidence number is not trustworthy.
func (e *Engine) Advise(out *models.EnsembleOutput, signals []models.BettingSignal) *models.RaceAdvice {
	advice := &models.RaceAdvice{
		RaceID:     out.RaceID,
		Difficulty: e.Difficulty(out),
	}

	top := out.TopPick()
	if top == nil {
		advice.Recommendation = models.RecommendWait
		advice.Reason = "no ranked horses"
		return advice
	}
	advice.TopHorse = top.HorseName
	advice.TopConfidence = top.Confidence

	if out.ModelAgreement < e.cfg.AgreementFloor {
		advice.Recommendation = models.RecommendWait
		advice.Reason = fmt.Sprintf("low model agreement (%.2f)", out.ModelAgreement)
		e.logger.WithFields(logrus.Fields{
			"race_id":   out.RaceID,
			"agreement": out.ModelAgreement,
		}).Info("Model agreement below floor, forcing WAIT")
		return advice
	}

	var topSignal models.Signal = models.SignalWait
	for _, s := range signals {
		if s.Rank == 1 {
			topSignal = s.Signal
			break
		}
	}

	switch topSignal {
	case models.SignalStrongBuy:
		advice.Recommendation = models.RecommendStrongBet
	case models.SignalBuy:
		advice.Recommendation = models.RecommendBet
	case models.SignalHold:
		advice.Recommendation = models.RecommendCautiousBet
	default:
		advice.Recommendation = models.RecommendHold
	}

	return advice
}
