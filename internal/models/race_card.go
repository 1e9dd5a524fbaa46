package models

import "time"

// RaceCard is the published field for an upcoming race: the input to one
// prediction run.
type RaceCard struct {
	RaceID         string          `json:"race_id"`
	Track          string          `json:"track"`
	ScheduledStart time.Time       `json:"scheduled_start"`
	Horses         []FeatureVector `json:"horses"`
}

// Normalize uppercases and trims every horse name on the card.
func (c *RaceCard) Normalize() {
	for i := range c.Horses {
		c.Horses[i].HorseName = NormalizeHorseName(c.Horses[i].HorseName)
	}
}
