package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/equine-oracle/internal/models"
)

// In-memory implementations back tests and single-process deployments.
// They replace the original system's process-wide mutable maps with
// injectable stores sharing the Postgres implementations' contracts:
// append-only writes, snapshot reads.

// MemoryPredictionRepository is an in-memory PredictionRepository.
type MemoryPredictionRepository struct {
	mu    sync.RWMutex
	preds []*models.RacePrediction
}

// NewMemoryPredictionRepository creates an empty store.
func NewMemoryPredictionRepository() *MemoryPredictionRepository {
	return &MemoryPredictionRepository{}
}

func (r *MemoryPredictionRepository) Insert(_ context.Context, pred *models.RacePrediction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.preds = append(r.preds, pred)
	return nil
}

func (r *MemoryPredictionRepository) GetByID(_ context.Context, id uuid.UUID) (*models.RacePrediction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.preds {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *MemoryPredictionRepository) GetByRaceID(_ context.Context, raceID string) ([]*models.RacePrediction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.RacePrediction
	for _, p := range r.preds {
		if p.RaceID == raceID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *MemoryPredictionRepository) GetByDateRange(_ context.Context, start, end time.Time) ([]*models.RacePrediction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.RacePrediction
	for _, p := range r.preds {
		if !p.PredictedAt.Before(start) && !p.PredictedAt.After(end) {
			out = append(out, p)
		}
	}
	return out, nil
}

// MemoryRaceResultRepository is an in-memory RaceResultRepository. Inserting
// a second result for the same race returns models.ErrDuplicateKey, matching
// the Postgres unique constraint.
type MemoryRaceResultRepository struct {
	mu      sync.RWMutex
	results map[string]*models.RaceResult
}

// NewMemoryRaceResultRepository creates an empty store.
func NewMemoryRaceResultRepository() *MemoryRaceResultRepository {
	return &MemoryRaceResultRepository{results: make(map[string]*models.RaceResult)}
}

func (r *MemoryRaceResultRepository) Insert(_ context.Context, result *models.RaceResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.results[result.RaceID]; exists {
		return models.ErrDuplicateKey
	}
	r.results[result.RaceID] = result
	return nil
}

func (r *MemoryRaceResultRepository) GetByRaceID(_ context.Context, raceID string) (*models.RaceResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.results[raceID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return res, nil
}

func (r *MemoryRaceResultRepository) GetByDateRange(_ context.Context, start, end time.Time) ([]*models.RaceResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.RaceResult
	for _, res := range r.results {
		if !res.RecordedAt.Before(start) && !res.RecordedAt.After(end) {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.Before(out[j].RecordedAt) })
	return out, nil
}

// MemoryAccuracyRepository is an in-memory AccuracyRepository.
type MemoryAccuracyRepository struct {
	mu      sync.RWMutex
	records []*models.PredictionAccuracyRecord
}

// NewMemoryAccuracyRepository creates an empty store.
func NewMemoryAccuracyRepository() *MemoryAccuracyRepository {
	return &MemoryAccuracyRepository{}
}

func (r *MemoryAccuracyRepository) InsertBatch(_ context.Context, records []*models.PredictionAccuracyRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, records...)
	return nil
}

func (r *MemoryAccuracyRepository) GetByRaceID(_ context.Context, raceID string) ([]*models.PredictionAccuracyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.PredictionAccuracyRecord
	for _, rec := range r.records {
		if rec.RaceID == raceID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *MemoryAccuracyRepository) GetByDateRange(_ context.Context, start, end time.Time) ([]*models.PredictionAccuracyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.PredictionAccuracyRecord
	for _, rec := range r.records {
		if !rec.ValidatedAt.Before(start) && !rec.ValidatedAt.After(end) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *MemoryAccuracyRepository) GetByModel(_ context.Context, modelName string, start, end time.Time) ([]*models.PredictionAccuracyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.PredictionAccuracyRecord
	for _, rec := range r.records {
		if rec.ModelName != modelName {
			continue
		}
		if !rec.ValidatedAt.Before(start) && !rec.ValidatedAt.After(end) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *MemoryAccuracyRepository) CountByRaceID(_ context.Context, raceID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, rec := range r.records {
		if rec.RaceID == raceID {
			count++
		}
	}
	return count, nil
}

// MemoryRetrainingJobRepository is an in-memory RetrainingJobRepository.
type MemoryRetrainingJobRepository struct {
	mu   sync.RWMutex
	jobs []*models.RetrainingJob
}

// NewMemoryRetrainingJobRepository creates an empty store.
func NewMemoryRetrainingJobRepository() *MemoryRetrainingJobRepository {
	return &MemoryRetrainingJobRepository{}
}

func (r *MemoryRetrainingJobRepository) Insert(_ context.Context, job *models.RetrainingJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
	return nil
}

func (r *MemoryRetrainingJobRepository) Update(_ context.Context, job *models.RetrainingJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, j := range r.jobs {
		if j.ID == job.ID {
			r.jobs[i] = job
			return nil
		}
	}
	return models.ErrNotFound
}

func (r *MemoryRetrainingJobRepository) GetByID(_ context.Context, id uuid.UUID) (*models.RetrainingJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, j := range r.jobs {
		if j.ID == id {
			return j, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *MemoryRetrainingJobRepository) GetByModel(_ context.Context, modelName string, limit int) ([]*models.RetrainingJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.RetrainingJob
	for i := len(r.jobs) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if r.jobs[i].ModelName == modelName {
			out = append(out, r.jobs[i])
		}
	}
	return out, nil
}

func (r *MemoryRetrainingJobRepository) GetRecent(_ context.Context, limit int) ([]*models.RetrainingJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.RetrainingJob
	for i := len(r.jobs) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, r.jobs[i])
	}
	return out, nil
}

// NewMemoryRepositories wires a full in-memory store set.
func NewMemoryRepositories() *Repositories {
	return &Repositories{
		Predictions: NewMemoryPredictionRepository(),
		Results:     NewMemoryRaceResultRepository(),
		Accuracy:    NewMemoryAccuracyRepository(),
		Jobs:        NewMemoryRetrainingJobRepository(),
	}
}
