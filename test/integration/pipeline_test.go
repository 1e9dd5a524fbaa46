//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/equine-oracle/internal/config"
	"github.com/yourusername/equine-oracle/internal/ensemble"
	"github.com/yourusername/equine-oracle/internal/ml"
	"github.com/yourusername/equine-oracle/internal/models"
	"github.com/yourusername/equine-oracle/internal/ranker"
	"github.com/yourusername/equine-oracle/internal/repository"
	"github.com/yourusername/equine-oracle/internal/service"
	"github.com/yourusername/equine-oracle/internal/signal"
	"github.com/yourusername/equine-oracle/internal/validation"
	"github.com/yourusername/equine-oracle/test/helpers"
)

// TestPredictionPipelineAgainstScoringService runs the prediction and
// validation cycle end to end against a stub scoring service: score a
// field, persist the prediction, ingest the official result and check the
// accuracy records that fall out.
func TestPredictionPipelineAgainstScoringService(t *testing.T) {
	helpers.SkipIfShort(t)

	scoring := helpers.MockScoringServer(t)
	defer scoring.Close()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	client := ml.NewScoringClient(&config.ScoringConfig{
		URL:                   scoring.URL,
		RequestTimeoutSeconds: 5,
		RetryAttempts:         1,
		RateLimitPerSecond:    100,
	}, logger)

	require.NoError(t, client.HealthCheck(context.Background()))

	registry := ranker.NewRegistry()
	for _, name := range models.BaseRankerNames {
		require.NoError(t, registry.Register(ml.NewModelScorer(name, client)))
	}

	engine := signal.NewEngine(signal.DefaultConfig(), logger)
	combiner := ensemble.NewCombiner(engine, logger)
	repos := repository.NewMemoryRepositories()

	predSvc := service.NewPredictionService(registry, combiner, engine, repos.Predictions, logger)
	resultSvc := service.NewResultService(repos, validation.NewValidator(decimal.NewFromInt(10), logger), nil, 24*time.Hour, logger)

	card := models.RaceCard{
		RaceID:         "race-e2e-1",
		Track:          "Ascot",
		ScheduledStart: time.Now().Add(time.Hour),
		Horses: []models.FeatureVector{
			{HorseName: "Thunder Road", Numeric: map[string]float64{"speed": 0.9}},
			{HorseName: "Silver Mist", Numeric: map[string]float64{"speed": 0.7}},
			{HorseName: "Copper Beech", Numeric: map[string]float64{"speed": 0.5}},
			{HorseName: "Night Signal", Numeric: map[string]float64{"speed": 0.3}},
		},
	}

	ctx := context.Background()
	pred, err := predSvc.PredictRace(ctx, card)
	require.NoError(t, err)
	require.Len(t, pred.Output.Horses, 4)

	// The stub scores descending in field order, so the first horse wins.
	assert.Equal(t, "THUNDER ROAD", pred.Output.Horses[0].HorseName)
	assert.Equal(t, 1, pred.Output.Horses[0].Rank)

	result := &models.RaceResult{
		RaceID:      card.RaceID,
		Winner:      "Thunder Road",
		Second:      "Silver Mist",
		Third:       "Copper Beech",
		Fourth:      "Night Signal",
		WinningOdds: decimal.NewFromFloat(3.5),
		RecordedAt:  time.Now(),
	}
	require.NoError(t, resultSvc.IngestResult(ctx, result))

	records, err := repos.Accuracy.GetByRaceID(ctx, card.RaceID)
	require.NoError(t, err)
	require.NotEmpty(t, records)

	var ensembleRecord *models.PredictionAccuracyRecord
	for _, rec := range records {
		if rec.ModelName == validation.EnsembleModelName {
			ensembleRecord = rec
		}
	}
	require.NotNil(t, ensembleRecord)
	assert.True(t, ensembleRecord.Top1Correct)
	assert.True(t, ensembleRecord.Top4Correct)
}
