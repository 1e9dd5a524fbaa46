package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// RacePrediction is the stored unit of inference: the ensemble output for a
// race together with the per-horse betting signals and race-level advice.
// One is created per race per prediction cycle and validated once the
// official result arrives.
type RacePrediction struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	RaceID      string          `db:"race_id" json:"race_id" validate:"required"`
	Output      *EnsembleOutput `json:"output"`
	Signals     []BettingSignal `json:"signals"`
	Advice      *RaceAdvice     `json:"advice"`
	Scores      []RankerScore   `json:"scores,omitempty"`
	PredictedAt time.Time       `db:"predicted_at" json:"predicted_at"`
}

// ModelRanking reconstructs one base ranker's own finishing order from the
// raw scores retained on the prediction. Ties break by input order.
func (p *RacePrediction) ModelRanking(modelName string) []string {
	type scored struct {
		name string
		s    float64
		idx  int
	}
	horses := make([]scored, 0, len(p.Scores))
	for i, rs := range p.Scores {
		if rs.ModelName != modelName {
			continue
		}
		horses = append(horses, scored{name: NormalizeHorseName(rs.HorseName), s: rs.Score, idx: i})
	}
	sort.SliceStable(horses, func(i, j int) bool {
		if horses[i].s != horses[j].s {
			return horses[i].s > horses[j].s
		}
		return horses[i].idx < horses[j].idx
	})
	names := make([]string, len(horses))
	for i, h := range horses {
		names[i] = h.name
	}
	return names
}

// TopSignal returns the signal for the predicted winner, or nil.
func (p *RacePrediction) TopSignal() *BettingSignal {
	for i := range p.Signals {
		if p.Signals[i].Rank == 1 {
			return &p.Signals[i]
		}
	}
	return nil
}

// TopConfidence is the stated confidence of the predicted winner, used as
// the calibration reference during validation.
func (p *RacePrediction) TopConfidence() float64 {
	if top := p.Output.TopPick(); top != nil {
		return top.Confidence
	}
	return 0
}
