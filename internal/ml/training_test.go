package ml

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/equine-oracle/internal/models"
)

func TestTrainCompletes(t *testing.T) {
	var polls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/models/train":
			var req trainRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, models.ModelNeuralNet, req.ModelType)
			w.WriteHeader(http.StatusAccepted)
			json.NewEncoder(w).Encode(trainResponse{JobID: "job-7", Status: "pending", ModelType: req.ModelType})
		case "/api/v1/models/train/job-7/status":
			status := "running"
			if atomic.AddInt32(&polls, 1) >= 2 {
				status = "completed"
			}
			json.NewEncoder(w).Encode(trainStatus{JobID: "job-7", Status: status, ImprovementPercent: 3.5})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	cache := NewScoreCache(time.Minute, 100)
	cache.Set("race-1", models.ModelNeuralNet, sampleScores(models.ModelNeuralNet))

	client := NewTrainingClient(testScoringConfig(server.URL), cache, logrus.New())
	client.pollInterval = 5 * time.Millisecond

	improvement, err := client.Train(context.Background(), models.ModelNeuralNet)
	require.NoError(t, err)
	assert.Equal(t, 3.5, improvement)

	// A successful retrain evicts that model's cached scores
	assert.Nil(t, cache.Get("race-1", models.ModelNeuralNet))
}

func TestTrainJobFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/models/train":
			json.NewEncoder(w).Encode(trainResponse{JobID: "job-8", Status: "pending"})
		case "/api/v1/models/train/job-8/status":
			json.NewEncoder(w).Encode(trainStatus{JobID: "job-8", Status: "failed", Error: "insufficient training data"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewTrainingClient(testScoringConfig(server.URL), nil, logrus.New())
	client.pollInterval = 5 * time.Millisecond

	_, err := client.Train(context.Background(), models.ModelCategoricalTree)
	assert.ErrorIs(t, err, ErrTrainingFailed)
	assert.Contains(t, err.Error(), "insufficient training data")
}

func TestTrainSubmitRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown model", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewTrainingClient(testScoringConfig(server.URL), nil, logrus.New())

	_, err := client.Train(context.Background(), "unknown_model")
	assert.ErrorIs(t, err, ErrTrainingFailed)
}

func TestTrainContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/models/train":
			json.NewEncoder(w).Encode(trainResponse{JobID: "job-9", Status: "pending"})
		default:
			json.NewEncoder(w).Encode(trainStatus{JobID: "job-9", Status: "running"})
		}
	}))
	defer server.Close()

	client := NewTrainingClient(testScoringConfig(server.URL), nil, logrus.New())
	client.pollInterval = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := client.Train(ctx, models.ModelBaselineGBM)
	assert.Error(t, err)
}
