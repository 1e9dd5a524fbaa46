package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/equine-oracle/internal/database"
	"github.com/yourusername/equine-oracle/internal/models"
)

// PostgresAccuracyRepository implements AccuracyRepository for PostgreSQL
type PostgresAccuracyRepository struct {
	db *database.DB
}

// NewPostgresAccuracyRepository creates a new accuracy record repository
func NewPostgresAccuracyRepository(db *database.DB) AccuracyRepository {
	return &PostgresAccuracyRepository{db: db}
}

var accuracyColumns = []string{
	"id", "prediction_id", "race_id", "model_name",
	"top1_correct", "top3_correct", "top4_correct", "exacta_hit", "trifecta_hit",
	"winner_in_top3", "winner_in_top4", "rank_correlation", "confidence",
	"calibration_error", "betting_outcome", "stake", "profit_loss", "validated_at",
}

// InsertBatch inserts accuracy records using a bulk COPY
func (r *PostgresAccuracyRepository) InsertBatch(ctx context.Context, records []*models.PredictionAccuracyRecord) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([][]interface{}, len(records))
	for i, rec := range records {
		rows[i] = []interface{}{
			rec.ID, rec.PredictionID, rec.RaceID, rec.ModelName,
			rec.Top1Correct, rec.Top3Correct, rec.Top4Correct, rec.ExactaHit, rec.TrifectaHit,
			rec.WinnerInTop3, rec.WinnerInTop4, rec.RankCorrelation, rec.Confidence,
			rec.CalibrationError, string(rec.BettingOutcome), rec.Stake, rec.ProfitLoss, rec.ValidatedAt,
		}
	}

	copyCount, err := r.db.GetPool().CopyFrom(
		ctx,
		pgx.Identifier{"prediction_accuracy"},
		accuracyColumns,
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to batch insert accuracy records: %w", err)
	}
	if copyCount != int64(len(records)) {
		return fmt.Errorf("inserted %d rows, expected %d", copyCount, len(records))
	}

	return nil
}

// GetByRaceID retrieves the accuracy records for one race
func (r *PostgresAccuracyRepository) GetByRaceID(ctx context.Context, raceID string) ([]*models.PredictionAccuracyRecord, error) {
	query := selectAccuracy + ` WHERE race_id = $1 ORDER BY validated_at`
	rows, err := r.db.GetPool().Query(ctx, query, raceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accuracy records: %w", err)
	}
	defer rows.Close()
	return scanAccuracyRecords(rows)
}

// GetByDateRange retrieves accuracy records validated within a time range
func (r *PostgresAccuracyRepository) GetByDateRange(ctx context.Context, start, end time.Time) ([]*models.PredictionAccuracyRecord, error) {
	query := selectAccuracy + ` WHERE validated_at >= $1 AND validated_at <= $2 ORDER BY validated_at`
	rows, err := r.db.GetPool().Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query accuracy records: %w", err)
	}
	defer rows.Close()
	return scanAccuracyRecords(rows)
}

// GetByModel retrieves one model's accuracy records within a time range
func (r *PostgresAccuracyRepository) GetByModel(ctx context.Context, modelName string, start, end time.Time) ([]*models.PredictionAccuracyRecord, error) {
	query := selectAccuracy + ` WHERE model_name = $1 AND validated_at >= $2 AND validated_at <= $3 ORDER BY validated_at`
	rows, err := r.db.GetPool().Query(ctx, query, modelName, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query accuracy records: %w", err)
	}
	defer rows.Close()
	return scanAccuracyRecords(rows)
}

// CountByRaceID counts existing records for a race, used for idempotent
// result ingestion.
func (r *PostgresAccuracyRepository) CountByRaceID(ctx context.Context, raceID string) (int, error) {
	var count int
	err := r.db.GetPool().QueryRow(ctx,
		`SELECT COUNT(*) FROM prediction_accuracy WHERE race_id = $1`, raceID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count accuracy records: %w", err)
	}
	return count, nil
}

const selectAccuracy = `
	SELECT id, prediction_id, race_id, model_name,
		top1_correct, top3_correct, top4_correct, exacta_hit, trifecta_hit,
		winner_in_top3, winner_in_top4, rank_correlation, confidence,
		calibration_error, betting_outcome, stake, profit_loss, validated_at
	FROM prediction_accuracy`

func scanAccuracyRecords(rows pgx.Rows) ([]*models.PredictionAccuracyRecord, error) {
	var out []*models.PredictionAccuracyRecord
	for rows.Next() {
		rec := &models.PredictionAccuracyRecord{}
		var outcome string
		err := rows.Scan(
			&rec.ID, &rec.PredictionID, &rec.RaceID, &rec.ModelName,
			&rec.Top1Correct, &rec.Top3Correct, &rec.Top4Correct, &rec.ExactaHit, &rec.TrifectaHit,
			&rec.WinnerInTop3, &rec.WinnerInTop4, &rec.RankCorrelation, &rec.Confidence,
			&rec.CalibrationError, &outcome, &rec.Stake, &rec.ProfitLoss, &rec.ValidatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan accuracy record: %w", err)
		}
		rec.BettingOutcome = models.BettingOutcome(outcome)
		out = append(out, rec)
	}
	return out, rows.Err()
}
