package models

import (
	"time"

	"github.com/google/uuid"
)

// HorsePrediction is one horse's entry in an EnsembleOutput. Score is the
// weighted combined score on the raw ranker scale; Confidence and
// ImpliedProbability are on the normalized [0,1] scale produced by the
// signal engine. Raw and normalized scales are never mixed.
type HorsePrediction struct {
	HorseName          string  `json:"horse_name"`
	Score              float64 `json:"score"`
	Confidence         float64 `json:"confidence"`
	ImpliedProbability float64 `json:"implied_probability"`
	Rank               int     `json:"rank"`
}

// EnsembleOutput is the combiner's result for one race: every horse ranked
// by combined score, plus race-level confidence and model agreement.
// Ranks form a strict total order 1..N. Read-only after creation.
type EnsembleOutput struct {
	ID                 uuid.UUID         `json:"id"`
	RaceID             string            `json:"race_id"`
	Horses             []HorsePrediction `json:"horses"`
	EnsembleConfidence float64           `json:"ensemble_confidence"`
	ModelAgreement     float64           `json:"model_agreement"`
	GeneratedAt        time.Time         `json:"generated_at"`
}

// TopPick returns the rank-1 horse, or nil for an empty output.
func (e *EnsembleOutput) TopPick() *HorsePrediction {
	if len(e.Horses) == 0 {
		return nil
	}
	return &e.Horses[0]
}

// RankedNames returns the horse names in predicted finishing order,
// normalized for result matching.
func (e *EnsembleOutput) RankedNames() []string {
	names := make([]string, len(e.Horses))
	for i, h := range e.Horses {
		names[i] = NormalizeHorseName(h.HorseName)
	}
	return names
}
