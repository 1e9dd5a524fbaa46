package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/equine-oracle/internal/database"
	"github.com/yourusername/equine-oracle/internal/models"
)

// PostgresPredictionRepository implements PredictionRepository for PostgreSQL
type PostgresPredictionRepository struct {
	db *database.DB
}

// NewPostgresPredictionRepository creates a new prediction repository
func NewPostgresPredictionRepository(db *database.DB) PredictionRepository {
	return &PostgresPredictionRepository{db: db}
}

// Insert stores a single race prediction
func (r *PostgresPredictionRepository) Insert(ctx context.Context, pred *models.RacePrediction) error {
	output, err := json.Marshal(pred.Output)
	if err != nil {
		return fmt.Errorf("failed to marshal ensemble output: %w", err)
	}
	signals, err := json.Marshal(pred.Signals)
	if err != nil {
		return fmt.Errorf("failed to marshal signals: %w", err)
	}
	advice, err := json.Marshal(pred.Advice)
	if err != nil {
		return fmt.Errorf("failed to marshal advice: %w", err)
	}
	scores, err := json.Marshal(pred.Scores)
	if err != nil {
		return fmt.Errorf("failed to marshal ranker scores: %w", err)
	}

	query := `
		INSERT INTO race_predictions (id, race_id, output, signals, advice, scores, predicted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = r.db.GetPool().Exec(ctx, query,
		pred.ID, pred.RaceID, output, signals, advice, scores, pred.PredictedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert prediction: %w", err)
	}

	return nil
}

// GetByID retrieves one prediction
func (r *PostgresPredictionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.RacePrediction, error) {
	query := `
		SELECT id, race_id, output, signals, advice, scores, predicted_at
		FROM race_predictions
		WHERE id = $1
	`
	row := r.db.GetPool().QueryRow(ctx, query, id)
	return scanPrediction(row)
}

// GetByRaceID retrieves all predictions issued for a race
func (r *PostgresPredictionRepository) GetByRaceID(ctx context.Context, raceID string) ([]*models.RacePrediction, error) {
	query := `
		SELECT id, race_id, output, signals, advice, scores, predicted_at
		FROM race_predictions
		WHERE race_id = $1
		ORDER BY predicted_at
	`
	rows, err := r.db.GetPool().Query(ctx, query, raceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	return scanPredictions(rows)
}

// GetByDateRange retrieves predictions issued within a time range
func (r *PostgresPredictionRepository) GetByDateRange(ctx context.Context, start, end time.Time) ([]*models.RacePrediction, error) {
	query := `
		SELECT id, race_id, output, signals, advice, scores, predicted_at
		FROM race_predictions
		WHERE predicted_at >= $1 AND predicted_at <= $2
		ORDER BY predicted_at
	`
	rows, err := r.db.GetPool().Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	return scanPredictions(rows)
}

func scanPrediction(row pgx.Row) (*models.RacePrediction, error) {
	pred := &models.RacePrediction{}
	var output, signals, advice, scores []byte

	err := row.Scan(&pred.ID, &pred.RaceID, &output, &signals, &advice, &scores, &pred.PredictedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan prediction: %w", err)
	}

	if err := json.Unmarshal(output, &pred.Output); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ensemble output: %w", err)
	}
	if err := json.Unmarshal(signals, &pred.Signals); err != nil {
		return nil, fmt.Errorf("failed to unmarshal signals: %w", err)
	}
	if len(advice) > 0 {
		if err := json.Unmarshal(advice, &pred.Advice); err != nil {
			return nil, fmt.Errorf("failed to unmarshal advice: %w", err)
		}
	}
	if len(scores) > 0 {
		if err := json.Unmarshal(scores, &pred.Scores); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ranker scores: %w", err)
		}
	}

	return pred, nil
}

func scanPredictions(rows pgx.Rows) ([]*models.RacePrediction, error) {
	var out []*models.RacePrediction
	for rows.Next() {
		pred, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pred)
	}
	return out, rows.Err()
}
