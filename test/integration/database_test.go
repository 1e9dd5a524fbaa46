//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/equine-oracle/internal/models"
	"github.com/yourusername/equine-oracle/internal/repository"
	"github.com/yourusername/equine-oracle/test/helpers"
)

func samplePrediction(raceID string) *models.RacePrediction {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &models.RacePrediction{
		ID:     uuid.New(),
		RaceID: raceID,
		Output: &models.EnsembleOutput{
			ID:     uuid.New(),
			RaceID: raceID,
			Horses: []models.HorsePrediction{
				{HorseName: "THUNDER ROAD", Score: 0.82, Confidence: 0.71, Rank: 1},
				{HorseName: "SILVER MIST", Score: 0.55, Confidence: 0.48, Rank: 2},
			},
			EnsembleConfidence: 0.64,
			ModelAgreement:     0.80,
			GeneratedAt:        now,
		},
		Signals: []models.BettingSignal{
			{HorseName: "THUNDER ROAD", Rank: 1, Confidence: 0.71, Signal: models.SignalStrongBuy},
		},
		Advice: &models.RaceAdvice{
			RaceID:        raceID,
			TopHorse:      "THUNDER ROAD",
			TopConfidence: 0.71,
		},
		Scores: []models.RankerScore{
			{ModelName: models.ModelBaselineGBM, HorseName: "THUNDER ROAD", RaceID: raceID, Score: 0.9, ScoredAt: now},
		},
		PredictedAt: now,
	}
}

func TestPredictionRepositoryRoundTrip(t *testing.T) {
	helpers.SkipIfShort(t)

	ctx := context.Background()
	db := helpers.SetupTestDB(t)
	defer helpers.TeardownTestDB(t, db)

	repo := repository.NewPostgresPredictionRepository(db)

	pred := samplePrediction("race-int-1")
	require.NoError(t, repo.Insert(ctx, pred))

	byID, err := repo.GetByID(ctx, pred.ID)
	require.NoError(t, err)
	assert.Equal(t, pred.RaceID, byID.RaceID)
	require.NotNil(t, byID.Output)
	assert.Len(t, byID.Output.Horses, 2)
	assert.Equal(t, "THUNDER ROAD", byID.Output.Horses[0].HorseName)

	byRace, err := repo.GetByRaceID(ctx, pred.RaceID)
	require.NoError(t, err)
	require.Len(t, byRace, 1)
	assert.Equal(t, pred.ID, byRace[0].ID)

	inWindow, err := repo.GetByDateRange(ctx, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.NotEmpty(t, inWindow)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRaceResultRepositoryIdempotency(t *testing.T) {
	helpers.SkipIfShort(t)

	ctx := context.Background()
	db := helpers.SetupTestDB(t)
	defer helpers.TeardownTestDB(t, db)

	repo := repository.NewPostgresRaceResultRepository(db)

	result := &models.RaceResult{
		RaceID:      "race-int-2",
		Winner:      "THUNDER ROAD",
		Second:      "SILVER MIST",
		Third:       "COPPER BEECH",
		Fourth:      "NIGHT SIGNAL",
		WinningOdds: decimal.NewFromFloat(4.5),
		RecordedAt:  time.Now().UTC(),
	}
	require.NoError(t, repo.Insert(ctx, result))

	// The primary key on race_id makes re-ingestion a duplicate.
	err := repo.Insert(ctx, result)
	assert.ErrorIs(t, err, models.ErrDuplicateKey)

	stored, err := repo.GetByRaceID(ctx, result.RaceID)
	require.NoError(t, err)
	assert.Equal(t, "THUNDER ROAD", stored.Winner)
	assert.True(t, stored.WinningOdds.Equal(decimal.NewFromFloat(4.5)))
}

func TestAccuracyRepositoryQueries(t *testing.T) {
	helpers.SkipIfShort(t)

	ctx := context.Background()
	db := helpers.SetupTestDB(t)
	defer helpers.TeardownTestDB(t, db)

	repo := repository.NewPostgresAccuracyRepository(db)

	records := []*models.PredictionAccuracyRecord{
		{
			ID:             uuid.New(),
			PredictionID:   uuid.New(),
			RaceID:         "race-int-3",
			ModelName:      models.ModelBaselineGBM,
			Top1Correct:    true,
			BettingOutcome: models.OutcomeWin,
			Stake:          decimal.NewFromInt(10),
			ProfitLoss:     decimal.NewFromInt(35),
			ValidatedAt:    time.Now().UTC(),
		},
		{
			ID:             uuid.New(),
			PredictionID:   uuid.New(),
			RaceID:         "race-int-3",
			ModelName:      models.ModelNeuralNet,
			BettingOutcome: models.OutcomeNoBet,
			Stake:          decimal.Zero,
			ProfitLoss:     decimal.Zero,
			ValidatedAt:    time.Now().UTC(),
		},
	}
	require.NoError(t, repo.InsertBatch(ctx, records))

	count, err := repo.CountByRaceID(ctx, "race-int-3")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	start := time.Now().Add(-time.Hour)
	end := time.Now().Add(time.Hour)

	byModel, err := repo.GetByModel(ctx, models.ModelBaselineGBM, start, end)
	require.NoError(t, err)
	require.Len(t, byModel, 1)
	assert.True(t, byModel[0].Top1Correct)
	assert.Equal(t, models.OutcomeWin, byModel[0].BettingOutcome)

	all, err := repo.GetByDateRange(ctx, start, end)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRetrainingJobRepositoryLifecycle(t *testing.T) {
	helpers.SkipIfShort(t)

	ctx := context.Background()
	db := helpers.SetupTestDB(t)
	defer helpers.TeardownTestDB(t, db)

	repo := repository.NewPostgresRetrainingJobRepository(db)

	job := models.NewRetrainingJob(models.ModelDiversityTree, models.TriggerManual)
	require.NoError(t, repo.Insert(ctx, job))

	require.NoError(t, job.Start())
	require.NoError(t, job.Complete(2.5))
	require.NoError(t, repo.Update(ctx, job))

	stored, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobCompleted, stored.Status)
	require.NotNil(t, stored.ImprovementPercent)
	assert.InDelta(t, 2.5, *stored.ImprovementPercent, 1e-9)

	recent, err := repo.GetRecent(ctx, 5)
	require.NoError(t, err)
	require.NotEmpty(t, recent)
	assert.Equal(t, job.ID, recent[0].ID)

	byModel, err := repo.GetByModel(ctx, models.ModelDiversityTree, 5)
	require.NoError(t, err)
	require.Len(t, byModel, 1)
}
