package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	applogger "github.com/yourusername/equine-oracle/internal/logger"
	"github.com/yourusername/equine-oracle/internal/metrics"
	"github.com/yourusername/equine-oracle/internal/models"
	"github.com/yourusername/equine-oracle/internal/repository"
	"github.com/yourusername/equine-oracle/internal/validation"
)

// ResultsSource supplies completed races. Satisfied by the results fetcher.
type ResultsSource interface {
	FetchCompleted(ctx context.Context, since time.Time) ([]*models.RaceResult, error)
}

// ResultService ingests official results and validates the matching
// predictions. Ingestion is idempotent: a race already validated is a
// benign no-op.
type ResultService struct {
	repos     *repository.Repositories
	validator *validation.Validator
	source    ResultsSource
	lookback  time.Duration
	logger    *logrus.Logger
	audit     *applogger.AuditLogger
}

// NewResultService creates a result ingestion service. source may be nil
// when results arrive only through IngestResult.
func NewResultService(
	repos *repository.Repositories,
	validator *validation.Validator,
	source ResultsSource,
	lookback time.Duration,
	logger *logrus.Logger,
) *ResultService {
	if lookback <= 0 {
		lookback = 24 * time.Hour
	}
	return &ResultService{
		repos:     repos,
		validator: validator,
		source:    source,
		lookback:  lookback,
		logger:    logger,
		audit:     applogger.NewAuditLogger(logger),
	}
}

// IngestResult stores one official result and validates every prediction
// made for that race. Re-ingesting a validated race changes nothing.
func (s *ResultService) IngestResult(ctx context.Context, result *models.RaceResult) error {
	if result == nil {
		return models.ErrInvalidRaceResult
	}
	if err := result.Validate(); err != nil {
		return err
	}

	log := s.logger.WithField("race_id", result.RaceID)

	// Already-validated races are settled; nothing to redo.
	existing, err := s.repos.Accuracy.CountByRaceID(ctx, result.RaceID)
	if err != nil {
		return err
	}
	if existing > 0 {
		log.Debug("Race already validated, skipping")
		return nil
	}

	if err := s.repos.Results.Insert(ctx, result); err != nil {
		if errors.Is(err, models.ErrDuplicateKey) {
			log.Debug("Result already recorded")
		} else {
			return err
		}
	} else {
		metrics.RecordResultIngested()
	}

	preds, err := s.repos.Predictions.GetByRaceID(ctx, result.RaceID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return err
	}
	if len(preds) == 0 {
		// No prediction was made for this race; the result is kept for later analysis.
		log.Debug("No predictions to validate for result")
		return nil
	}

	records := s.validator.ValidateRace(preds, result)
	if len(records) == 0 {
		metrics.RecordValidationError()
		return nil
	}

	if err := s.repos.Accuracy.InsertBatch(ctx, records); err != nil {
		return err
	}

	metrics.RecordValidation()
	s.audit.LogResultIngested(result.RaceID, result.Winner, len(records))
	log.WithFields(logrus.Fields{
		"predictions": len(preds),
		"records":     len(records),
	}).Info("Race result validated")
	return nil
}

// CollectCompleted polls the results feed and ingests everything that
// completed within the lookback window. Per-race failures are isolated.
func (s *ResultService) CollectCompleted(ctx context.Context) (int, error) {
	if s.source == nil {
		return 0, nil
	}

	results, err := s.source.FetchCompleted(ctx, time.Now().Add(-s.lookback))
	if err != nil {
		return 0, err
	}

	ingested := 0
	for _, result := range results {
		if err := s.IngestResult(ctx, result); err != nil {
			s.logger.WithError(err).WithField("race_id", result.RaceID).Warn("Failed to ingest result")
			continue
		}
		ingested++
	}
	return ingested, nil
}
