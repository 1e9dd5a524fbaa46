package database

import (
	"context"
	"fmt"
)

// schema creates the pipeline tables. Predictions and accuracy records are
// append-only; race_results carries the unique constraint that makes
// result ingestion idempotent at the storage layer.
const schema = `
CREATE TABLE IF NOT EXISTS race_predictions (
	id UUID PRIMARY KEY,
	race_id TEXT NOT NULL,
	output JSONB NOT NULL,
	signals JSONB NOT NULL,
	advice JSONB,
	scores JSONB,
	predicted_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_race_predictions_race_id ON race_predictions (race_id);
CREATE INDEX IF NOT EXISTS idx_race_predictions_predicted_at ON race_predictions (predicted_at);

CREATE TABLE IF NOT EXISTS race_results (
	race_id TEXT PRIMARY KEY,
	race_name TEXT NOT NULL DEFAULT '',
	track_name TEXT NOT NULL DEFAULT '',
	winner TEXT NOT NULL,
	second TEXT NOT NULL,
	third TEXT NOT NULL,
	fourth TEXT NOT NULL,
	winning_odds NUMERIC NOT NULL DEFAULT 0,
	second_odds NUMERIC NOT NULL DEFAULT 0,
	third_odds NUMERIC NOT NULL DEFAULT 0,
	fourth_odds NUMERIC NOT NULL DEFAULT 0,
	track_condition TEXT NOT NULL DEFAULT 'UNKNOWN',
	recorded_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS prediction_accuracy (
	id UUID PRIMARY KEY,
	prediction_id UUID NOT NULL,
	race_id TEXT NOT NULL,
	model_name TEXT NOT NULL,
	top1_correct BOOLEAN NOT NULL,
	top3_correct BOOLEAN NOT NULL,
	top4_correct BOOLEAN NOT NULL,
	exacta_hit BOOLEAN NOT NULL,
	trifecta_hit BOOLEAN NOT NULL,
	winner_in_top3 BOOLEAN NOT NULL,
	winner_in_top4 BOOLEAN NOT NULL,
	rank_correlation DOUBLE PRECISION NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	calibration_error DOUBLE PRECISION NOT NULL,
	betting_outcome TEXT NOT NULL,
	stake NUMERIC NOT NULL,
	profit_loss NUMERIC NOT NULL,
	validated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_prediction_accuracy_race_id ON prediction_accuracy (race_id);
CREATE INDEX IF NOT EXISTS idx_prediction_accuracy_model ON prediction_accuracy (model_name, validated_at);

CREATE TABLE IF NOT EXISTS retraining_jobs (
	id UUID PRIMARY KEY,
	model_name TEXT NOT NULL,
	trigger_reason TEXT NOT NULL,
	status TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	started_at TIMESTAMPTZ,
	completed_at TIMESTAMPTZ,
	improvement_percent DOUBLE PRECISION,
	error TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_retraining_jobs_model ON retraining_jobs (model_name, created_at);
`

// InitSchema creates the tables if they do not exist.
func (db *DB) InitSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}
