package models

import "time"

// Base ranker model names. The four rankers are trained independently and
// are opaque scoring functions from this package's point of view.
const (
	ModelBaselineGBM     = "baseline_gbm"
	ModelDiversityTree   = "diversity_tree"
	ModelCategoricalTree = "categorical_tree"
	ModelNeuralNet       = "neural_net"
)

// BaseRankerNames lists the base rankers in canonical order.
var BaseRankerNames = []string{
	ModelBaselineGBM,
	ModelDiversityTree,
	ModelCategoricalTree,
	ModelNeuralNet,
}

// RankerScore is a single base ranker's raw preference score for one horse
// in one race. Created at inference time and never mutated.
type RankerScore struct {
	ModelName string    `db:"model_name" json:"model_name" validate:"required"`
	HorseName string    `db:"horse_name" json:"horse_name" validate:"required"`
	RaceID    string    `db:"race_id" json:"race_id" validate:"required"`
	Score     float64   `db:"score" json:"score"`
	ScoredAt  time.Time `db:"scored_at" json:"scored_at"`
}
