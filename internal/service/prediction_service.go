// Package service provides the pipeline's orchestration layer: inference,
// result ingestion and performance management.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/equine-oracle/internal/ensemble"
	applogger "github.com/yourusername/equine-oracle/internal/logger"
	"github.com/yourusername/equine-oracle/internal/metrics"
	"github.com/yourusername/equine-oracle/internal/models"
	"github.com/yourusername/equine-oracle/internal/ranker"
	"github.com/yourusername/equine-oracle/internal/repository"
	"github.com/yourusername/equine-oracle/internal/signal"
)

// PredictionService runs inference for race cards: fan out to the base
// rankers, combine, derive signals and persist the prediction.
type PredictionService struct {
	registry    *ranker.Registry
	combiner    *ensemble.Combiner
	engine      *signal.Engine
	predictions repository.PredictionRepository
	logger      *logrus.Logger
	audit       *applogger.AuditLogger
}

// NewPredictionService creates a prediction service.
func NewPredictionService(
	registry *ranker.Registry,
	combiner *ensemble.Combiner,
	engine *signal.Engine,
	predictions repository.PredictionRepository,
	logger *logrus.Logger,
) *PredictionService {
	return &PredictionService{
		registry:    registry,
		combiner:    combiner,
		engine:      engine,
		predictions: predictions,
		logger:      logger,
		audit:       applogger.NewAuditLogger(logger),
	}
}

// PredictRace produces and persists one prediction for a race card. Rankers
// are queried concurrently; a ranker failure drops its scores and the
// combiner renormalizes, so inference survives partial outages.
func (s *PredictionService) PredictRace(ctx context.Context, card models.RaceCard) (*models.RacePrediction, error) {
	start := time.Now()
	card.Normalize()

	if len(card.Horses) < 2 {
		return nil, models.ErrRaceTooSmall
	}

	scores, err := s.scoreField(ctx, card)
	if err != nil {
		metrics.RecordPredictionFailure()
		return nil, err
	}

	out, err := s.combiner.Combine(card.RaceID, scores)
	if err != nil {
		metrics.RecordPredictionFailure()
		return nil, err
	}

	signals := s.engine.Signals(out, nil)
	advice := s.engine.Advise(out, signals)

	pred := &models.RacePrediction{
		ID:          uuid.New(),
		RaceID:      card.RaceID,
		Output:      out,
		Signals:     signals,
		Advice:      advice,
		Scores:      scores,
		PredictedAt: time.Now(),
	}

	if err := s.predictions.Insert(ctx, pred); err != nil {
		metrics.RecordPredictionFailure()
		return nil, err
	}

	metrics.RecordPrediction(time.Since(start).Seconds(), out.EnsembleConfidence)
	for i := range signals {
		metrics.RecordSignal(string(signals[i].Signal))
	}
	metrics.RecordRaceRecommendation(string(advice.Recommendation))

	if top := pred.TopSignal(); top != nil {
		s.audit.LogAdviceIssued(card.RaceID, top.HorseName, string(top.Signal),
			top.Confidence, top.ExpectedROI, pred.PredictedAt)
	}

	s.logger.WithFields(logrus.Fields{
		"race_id":        card.RaceID,
		"horses":         len(card.Horses),
		"confidence":     out.EnsembleConfidence,
		"agreement":      out.ModelAgreement,
		"recommendation": advice.Recommendation,
	}).Info("Race prediction generated")
	return pred, nil
}

// PredictUpcoming runs inference over a set of cards, isolating per-race
// failures. Returns the successful predictions.
func (s *PredictionService) PredictUpcoming(ctx context.Context, cards []models.RaceCard) []*models.RacePrediction {
	preds := make([]*models.RacePrediction, 0, len(cards))
	for _, card := range cards {
		pred, err := s.PredictRace(ctx, card)
		if err != nil {
			s.logger.WithError(err).WithField("race_id", card.RaceID).Warn("Skipping race prediction")
			continue
		}
		preds = append(preds, pred)
	}
	return preds
}

// scoreField fans the race card out to every registered ranker. Scores come
// back ordered by registry order then field order, which keeps repeat runs
// on the same card byte-identical.
func (s *PredictionService) scoreField(ctx context.Context, card models.RaceCard) ([]models.RankerScore, error) {
	scorers := s.registry.All()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		byModel = make(map[string][]models.RankerScore, len(scorers))
	)

	for _, sc := range scorers {
		wg.Add(1)
		go func(sc ranker.Scorer) {
			defer wg.Done()

			scores, err := sc.Score(ctx, card.RaceID, card.Horses)
			if err != nil {
				s.logger.WithError(err).WithFields(logrus.Fields{
					"model":   sc.Name(),
					"race_id": card.RaceID,
				}).Warn("Ranker failed, combining without it")
				return
			}

			mu.Lock()
			byModel[sc.Name()] = scores
			mu.Unlock()
		}(sc)
	}
	wg.Wait()

	var all []models.RankerScore
	for _, sc := range scorers {
		all = append(all, byModel[sc.Name()]...)
	}
	if len(all) == 0 {
		return nil, models.ErrNoRankerScores
	}
	return all, nil
}
