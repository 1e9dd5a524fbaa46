// Package repository defines the persistence interfaces for the prediction
// pipeline and provides Postgres and in-memory implementations. Records are
// append-only; aggregation reads work from consistent snapshots.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/equine-oracle/internal/models"
)

// PredictionRepository stores race predictions.
type PredictionRepository interface {
	Insert(ctx context.Context, pred *models.RacePrediction) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.RacePrediction, error)
	GetByRaceID(ctx context.Context, raceID string) ([]*models.RacePrediction, error)
	GetByDateRange(ctx context.Context, start, end time.Time) ([]*models.RacePrediction, error)
}

// RaceResultRepository stores official race results.
type RaceResultRepository interface {
	Insert(ctx context.Context, result *models.RaceResult) error
	GetByRaceID(ctx context.Context, raceID string) (*models.RaceResult, error)
	GetByDateRange(ctx context.Context, start, end time.Time) ([]*models.RaceResult, error)
}

// AccuracyRepository stores prediction accuracy records. InsertBatch is the
// only writer; records are never updated or deleted.
type AccuracyRepository interface {
	InsertBatch(ctx context.Context, records []*models.PredictionAccuracyRecord) error
	GetByRaceID(ctx context.Context, raceID string) ([]*models.PredictionAccuracyRecord, error)
	GetByDateRange(ctx context.Context, start, end time.Time) ([]*models.PredictionAccuracyRecord, error)
	GetByModel(ctx context.Context, modelName string, start, end time.Time) ([]*models.PredictionAccuracyRecord, error)
	CountByRaceID(ctx context.Context, raceID string) (int, error)
}

// RetrainingJobRepository stores retraining job history. History is
// append-only; Update only mutates the lifecycle fields of an existing job.
type RetrainingJobRepository interface {
	Insert(ctx context.Context, job *models.RetrainingJob) error
	Update(ctx context.Context, job *models.RetrainingJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.RetrainingJob, error)
	GetByModel(ctx context.Context, modelName string, limit int) ([]*models.RetrainingJob, error)
	GetRecent(ctx context.Context, limit int) ([]*models.RetrainingJob, error)
}

// Repositories bundles the full set for wiring.
type Repositories struct {
	Predictions PredictionRepository
	Results     RaceResultRepository
	Accuracy    AccuracyRepository
	Jobs        RetrainingJobRepository
}
