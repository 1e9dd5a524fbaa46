package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/equine-oracle/internal/analytics"
	"github.com/yourusername/equine-oracle/internal/ensemble"
	"github.com/yourusername/equine-oracle/internal/metrics"
	"github.com/yourusername/equine-oracle/internal/models"
	"github.com/yourusername/equine-oracle/internal/repository"
	"github.com/yourusername/equine-oracle/internal/validation"
)

// PerformanceService answers accuracy queries and rotates the ensemble
// weights from realized betting performance.
type PerformanceService struct {
	accuracy   repository.AccuracyRepository
	aggregator *analytics.Aggregator
	combiner   *ensemble.Combiner
	window     time.Duration
	logger     *logrus.Logger
}

// NewPerformanceService creates a performance service. window is the
// evaluation lookback used for weight refreshes and the retraining check.
func NewPerformanceService(
	accuracy repository.AccuracyRepository,
	aggregator *analytics.Aggregator,
	combiner *ensemble.Combiner,
	window time.Duration,
	logger *logrus.Logger,
) *PerformanceService {
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}
	return &PerformanceService{
		accuracy:   accuracy,
		aggregator: aggregator,
		combiner:   combiner,
		window:     window,
		logger:     logger,
	}
}

// Snapshots computes per-model performance snapshots over a date range.
func (s *PerformanceService) Snapshots(ctx context.Context, start, end time.Time) (map[string]*models.ModelPerformanceSnapshot, error) {
	records, err := s.accuracy.GetByDateRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return s.aggregator.SnapshotByModel(records, start, end), nil
}

// ModelSnapshot computes one model's performance snapshot over a date range.
func (s *PerformanceService) ModelSnapshot(ctx context.Context, modelName string, start, end time.Time) (*models.ModelPerformanceSnapshot, error) {
	records, err := s.accuracy.GetByModel(ctx, modelName, start, end)
	if err != nil {
		return nil, err
	}
	return s.aggregator.Snapshot(modelName, records, start, end), nil
}

// RefreshWeights recomputes optimal ensemble weights from the evaluation
// window and applies them to the combiner. The previous weights stay live
// if application fails.
func (s *PerformanceService) RefreshWeights(ctx context.Context) (map[string]float64, error) {
	end := time.Now()
	start := end.Add(-s.window)

	records, err := s.accuracy.GetByDateRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	weights := s.aggregator.OptimalWeights(records)
	if err := s.combiner.SetWeights(weights); err != nil {
		return nil, err
	}

	for model, w := range weights {
		metrics.UpdateModelWeight(model, w)
	}
	for model, snap := range s.aggregator.SnapshotByModel(records, start, end) {
		metrics.UpdateModelSharpe(model, snap.SharpeRatio)
	}
	s.logger.WithField("weights", weights).Info("Ensemble weights refreshed")
	return weights, nil
}

// OverrideWeights applies operator-supplied weights after validation.
func (s *PerformanceService) OverrideWeights(weights map[string]float64) error {
	if err := s.combiner.SetWeights(weights); err != nil {
		return err
	}
	for model, w := range s.combiner.Weights() {
		metrics.UpdateModelWeight(model, w)
	}
	s.logger.WithField("weights", weights).Warn("Ensemble weights overridden")
	return nil
}

// EnsembleTop1Rate reports the ensemble's winner-pick accuracy over the
// evaluation window. Feeds the retraining controller's performance trigger.
func (s *PerformanceService) EnsembleTop1Rate(ctx context.Context) (float64, int, error) {
	end := time.Now()
	start := end.Add(-s.window)

	records, err := s.accuracy.GetByModel(ctx, validation.EnsembleModelName, start, end)
	if err != nil {
		return 0, 0, err
	}
	if len(records) == 0 {
		return 0, 0, nil
	}

	correct := 0
	for _, rec := range records {
		if rec.Top1Correct {
			correct++
		}
	}

	rate := float64(correct) / float64(len(records))
	metrics.UpdateEnsembleTop1Rate(rate)
	return rate, len(records), nil
}
