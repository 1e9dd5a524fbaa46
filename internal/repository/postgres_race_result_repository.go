package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yourusername/equine-oracle/internal/database"
	"github.com/yourusername/equine-oracle/internal/models"
)

// PostgresRaceResultRepository implements RaceResultRepository for PostgreSQL
type PostgresRaceResultRepository struct {
	db *database.DB
}

// NewPostgresRaceResultRepository creates a new race result repository
func NewPostgresRaceResultRepository(db *database.DB) RaceResultRepository {
	return &PostgresRaceResultRepository{db: db}
}

// Insert stores a race result. The race_id primary key makes re-ingestion
// surface as models.ErrDuplicateKey.
func (r *PostgresRaceResultRepository) Insert(ctx context.Context, result *models.RaceResult) error {
	query := `
		INSERT INTO race_results (race_id, race_name, track_name, winner, second, third, fourth,
			winning_odds, second_odds, third_odds, fourth_odds, track_condition, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		result.RaceID, result.RaceName, result.TrackName,
		result.Winner, result.Second, result.Third, result.Fourth,
		result.WinningOdds, result.SecondOdds, result.ThirdOdds, result.FourthOdds,
		result.TrackCondition, result.RecordedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.ErrDuplicateKey
		}
		return fmt.Errorf("failed to insert race result: %w", err)
	}

	return nil
}

// GetByRaceID retrieves the result for a specific race
func (r *PostgresRaceResultRepository) GetByRaceID(ctx context.Context, raceID string) (*models.RaceResult, error) {
	query := `
		SELECT race_id, race_name, track_name, winner, second, third, fourth,
			winning_odds, second_odds, third_odds, fourth_odds, track_condition, recorded_at
		FROM race_results
		WHERE race_id = $1
	`

	result := &models.RaceResult{}
	err := r.db.GetPool().QueryRow(ctx, query, raceID).Scan(
		&result.RaceID, &result.RaceName, &result.TrackName,
		&result.Winner, &result.Second, &result.Third, &result.Fourth,
		&result.WinningOdds, &result.SecondOdds, &result.ThirdOdds, &result.FourthOdds,
		&result.TrackCondition, &result.RecordedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query race result: %w", err)
	}

	return result, nil
}

// GetByDateRange retrieves race results recorded within a time range
func (r *PostgresRaceResultRepository) GetByDateRange(ctx context.Context, start, end time.Time) ([]*models.RaceResult, error) {
	query := `
		SELECT race_id, race_name, track_name, winner, second, third, fourth,
			winning_odds, second_odds, third_odds, fourth_odds, track_condition, recorded_at
		FROM race_results
		WHERE recorded_at >= $1 AND recorded_at <= $2
		ORDER BY recorded_at
	`

	rows, err := r.db.GetPool().Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query race results: %w", err)
	}
	defer rows.Close()

	var out []*models.RaceResult
	for rows.Next() {
		result := &models.RaceResult{}
		err := rows.Scan(
			&result.RaceID, &result.RaceName, &result.TrackName,
			&result.Winner, &result.Second, &result.Third, &result.Fourth,
			&result.WinningOdds, &result.SecondOdds, &result.ThirdOdds, &result.FourthOdds,
			&result.TrackCondition, &result.RecordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan race result: %w", err)
		}
		out = append(out, result)
	}

	return out, rows.Err()
}
