package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/equine-oracle/internal/database"
	"github.com/yourusername/equine-oracle/internal/models"
)

// PostgresRetrainingJobRepository implements RetrainingJobRepository for PostgreSQL
type PostgresRetrainingJobRepository struct {
	db *database.DB
}

// NewPostgresRetrainingJobRepository creates a new retraining job repository
func NewPostgresRetrainingJobRepository(db *database.DB) RetrainingJobRepository {
	return &PostgresRetrainingJobRepository{db: db}
}

// Insert stores a new retraining job
func (r *PostgresRetrainingJobRepository) Insert(ctx context.Context, job *models.RetrainingJob) error {
	query := `
		INSERT INTO retraining_jobs (id, model_name, trigger_reason, status, created_at, started_at, completed_at, improvement_percent, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.GetPool().Exec(ctx, query,
		job.ID, job.ModelName, string(job.Trigger), string(job.Status),
		job.CreatedAt, job.StartedAt, job.CompletedAt, job.ImprovementPercent, job.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to insert retraining job: %w", err)
	}
	return nil
}

// Update persists the lifecycle fields of an existing job
func (r *PostgresRetrainingJobRepository) Update(ctx context.Context, job *models.RetrainingJob) error {
	query := `
		UPDATE retraining_jobs
		SET status = $2, started_at = $3, completed_at = $4, improvement_percent = $5, error = $6
		WHERE id = $1
	`
	tag, err := r.db.GetPool().Exec(ctx, query,
		job.ID, string(job.Status), job.StartedAt, job.CompletedAt, job.ImprovementPercent, job.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to update retraining job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// GetByID retrieves one job
func (r *PostgresRetrainingJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.RetrainingJob, error) {
	row := r.db.GetPool().QueryRow(ctx, selectJobs+` WHERE id = $1`, id)
	job, err := scanJob(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

// GetByModel retrieves a model's most recent jobs
func (r *PostgresRetrainingJobRepository) GetByModel(ctx context.Context, modelName string, limit int) ([]*models.RetrainingJob, error) {
	rows, err := r.db.GetPool().Query(ctx, selectJobs+` WHERE model_name = $1 ORDER BY created_at DESC LIMIT $2`, modelName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query retraining jobs: %w", err)
	}
	defer rows.Close()
	return scanJobs(rows)
}

// GetRecent retrieves the most recent jobs across all models
func (r *PostgresRetrainingJobRepository) GetRecent(ctx context.Context, limit int) ([]*models.RetrainingJob, error) {
	rows, err := r.db.GetPool().Query(ctx, selectJobs+` ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query retraining jobs: %w", err)
	}
	defer rows.Close()
	return scanJobs(rows)
}

const selectJobs = `
	SELECT id, model_name, trigger_reason, status, created_at, started_at, completed_at, improvement_percent, error
	FROM retraining_jobs`

func scanJob(row pgx.Row) (*models.RetrainingJob, error) {
	job := &models.RetrainingJob{}
	var trigger, status string
	err := row.Scan(
		&job.ID, &job.ModelName, &trigger, &status,
		&job.CreatedAt, &job.StartedAt, &job.CompletedAt, &job.ImprovementPercent, &job.Error,
	)
	if err != nil {
		return nil, err
	}
	job.Trigger = models.RetrainTrigger(trigger)
	job.Status = models.JobStatus(status)
	return job, nil
}

func scanJobs(rows pgx.Rows) ([]*models.RetrainingJob, error) {
	var out []*models.RetrainingJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan retraining job: %w", err)
		}
		out = append(out, job)
	}
	return out, rows.Err()
}
