package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RaceResult is the official outcome of a completed race: the top four
// finishers with their starting prices. It arrives asynchronously after the
// race runs and is immutable once recorded.
type RaceResult struct {
	RaceID         string          `db:"race_id" json:"race_id" validate:"required"`
	RaceName       string          `db:"race_name" json:"race_name"`
	TrackName      string          `db:"track_name" json:"track_name"`
	Winner         string          `db:"winner" json:"winner" validate:"required"`
	Second         string          `db:"second" json:"second" validate:"required"`
	Third          string          `db:"third" json:"third" validate:"required"`
	Fourth         string          `db:"fourth" json:"fourth" validate:"required"`
	WinningOdds    decimal.Decimal `db:"winning_odds" json:"winning_odds"`
	SecondOdds     decimal.Decimal `db:"second_odds" json:"second_odds"`
	ThirdOdds      decimal.Decimal `db:"third_odds" json:"third_odds"`
	FourthOdds     decimal.Decimal `db:"fourth_odds" json:"fourth_odds"`
	TrackCondition string          `db:"track_condition" json:"track_condition"`
	RecordedAt     time.Time       `db:"recorded_at" json:"recorded_at"`
}

// TopFour returns the finishing order, names normalized for matching.
func (rr *RaceResult) TopFour() []string {
	return []string{
		NormalizeHorseName(rr.Winner),
		NormalizeHorseName(rr.Second),
		NormalizeHorseName(rr.Third),
		NormalizeHorseName(rr.Fourth),
	}
}

// Validate checks the result for required fields and duplicate finishers.
func (rr *RaceResult) Validate() error {
	if rr.RaceID == "" || rr.Winner == "" || rr.Second == "" || rr.Third == "" || rr.Fourth == "" {
		return ErrInvalidRaceResult
	}
	seen := make(map[string]bool, 4)
	for _, name := range rr.TopFour() {
		if seen[name] {
			return ErrInvalidRaceResult
		}
		seen[name] = true
	}
	return nil
}
