package models

import "strings"

// FeatureVector holds the engineered features for one horse in one race.
// It is produced by the upstream feature pipeline and treated as immutable
// once handed to a base ranker.
type FeatureVector struct {
	HorseName   string             `json:"horse_name" validate:"required"`
	Numeric     map[string]float64 `json:"numeric"`
	Categorical map[string]string  `json:"categorical,omitempty"`
}

// Feature returns a numeric feature value and whether it was present.
func (fv *FeatureVector) Feature(name string) (float64, bool) {
	v, ok := fv.Numeric[name]
	return v, ok
}

// NormalizedName returns the horse name as used for joining predictions
// against official results. Names are case-insensitive identifiers.
func (fv *FeatureVector) NormalizedName() string {
	return NormalizeHorseName(fv.HorseName)
}

// NormalizeHorseName trims and upper-cases a horse name so that predictions
// and results join on the same key regardless of source formatting.
func NormalizeHorseName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
