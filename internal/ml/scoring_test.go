package ml

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/equine-oracle/internal/config"
	"github.com/yourusername/equine-oracle/internal/models"
)

func testScoringConfig(url string) *config.ScoringConfig {
	return &config.ScoringConfig{
		URL:                   url,
		RequestTimeoutSeconds: 5,
		RetryAttempts:         0,
		RateLimitPerSecond:    100,
		CacheTTLSeconds:       60,
		CacheMaxSize:          100,
	}
}

func testField() []models.FeatureVector {
	return []models.FeatureVector{
		{HorseName: "THUNDER ROAD", Numeric: map[string]float64{"speed": 88}},
		{HorseName: "SILVER MIST", Numeric: map[string]float64{"speed": 84}},
	}
}

func TestScoreRaceSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/score", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req scoreRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, models.ModelBaselineGBM, req.Model)
		assert.Len(t, req.Horses, 2)

		json.NewEncoder(w).Encode(scoreResponse{
			Scores: []struct {
				HorseName string  `json:"horse_name"`
				Score     float64 `json:"score"`
			}{
				{HorseName: "thunder road", Score: 0.82},
				{HorseName: "Silver Mist", Score: 0.61},
			},
		})
	}))
	defer server.Close()

	client := NewScoringClient(testScoringConfig(server.URL), logrus.New())

	scores, err := client.ScoreRace(context.Background(), models.ModelBaselineGBM, "race-1", testField())
	require.NoError(t, err)
	require.Len(t, scores, 2)

	// Names come back normalized regardless of the feed's casing
	assert.Equal(t, "THUNDER ROAD", scores[0].HorseName)
	assert.Equal(t, "SILVER MIST", scores[1].HorseName)
	assert.Equal(t, 0.82, scores[0].Score)
	assert.Equal(t, "race-1", scores[0].RaceID)
}

func TestScoreRaceEmptyField(t *testing.T) {
	client := NewScoringClient(testScoringConfig("http://localhost:0"), logrus.New())

	_, err := client.ScoreRace(context.Background(), models.ModelBaselineGBM, "race-1", nil)
	assert.ErrorIs(t, err, ErrEmptyField)
}

func TestScoreRaceServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad model", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewScoringClient(testScoringConfig(server.URL), logrus.New())

	_, err := client.ScoreRace(context.Background(), "unknown_model", "race-1", testField())
	assert.ErrorIs(t, err, ErrScoringFailed)
}

func TestModelScorerName(t *testing.T) {
	client := NewScoringClient(testScoringConfig("http://localhost:0"), logrus.New())
	scorer := NewModelScorer(models.ModelNeuralNet, client)

	assert.Equal(t, models.ModelNeuralNet, scorer.Name())
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewScoringClient(testScoringConfig(server.URL), logrus.New())
	assert.NoError(t, client.HealthCheck(context.Background()))
}
