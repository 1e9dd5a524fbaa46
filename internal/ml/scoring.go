// Package ml provides HTTP clients for the external model service: per-model
// race scoring and training dispatch.
package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourusername/equine-oracle/internal/config"
	"github.com/yourusername/equine-oracle/internal/metrics"
	"github.com/yourusername/equine-oracle/internal/models"
)

// ScoringClient talks to the model service's scoring endpoint. One client
// serves all four base rankers; the model name travels in the request.
type ScoringClient struct {
	client  *retryablehttp.Client
	limiter *rate.Limiter
	baseURL string
	apiKey  string
	logger  *logrus.Logger
}

// NewScoringClient creates a rate-limited scoring client.
func NewScoringClient(cfg *config.ScoringConfig, logger *logrus.Logger) *ScoringClient {
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	retryClient.RetryMax = cfg.RetryAttempts
	retryClient.RetryWaitMin = 100 * time.Millisecond
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = nil

	return &ScoringClient{
		client:  retryClient,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), 1),
		baseURL: cfg.URL,
		apiKey:  cfg.APIKey,
		logger:  logger,
	}
}

// scoreRequest represents the scoring request payload
type scoreRequest struct {
	Model  string                 `json:"model"`
	RaceID string                 `json:"race_id"`
	Horses []models.FeatureVector `json:"horses"`
}

// scoreResponse represents the scoring response payload
type scoreResponse struct {
	Scores []struct {
		HorseName string  `json:"horse_name"`
		Score     float64 `json:"score"`
	} `json:"scores"`
}

// ScoreRace scores one race field with one base model. The returned scores
// follow the input field order.
func (c *ScoringClient) ScoreRace(ctx context.Context, modelName, raceID string, horses []models.FeatureVector) ([]models.RankerScore, error) {
	if len(horses) == 0 {
		return nil, ErrEmptyField
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	body, err := json.Marshal(scoreRequest{Model: modelName, RaceID: raceID, Horses: horses})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scoring request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/score", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.RecordScoringRequest(modelName, "failure")
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		metrics.RecordScoringRequest(modelName, "failure")
		return nil, fmt.Errorf("%w: status %d: %s", ErrScoringFailed, resp.StatusCode, string(respBody))
	}

	var parsed scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		metrics.RecordScoringRequest(modelName, "failure")
		return nil, fmt.Errorf("failed to decode scoring response: %w", err)
	}

	now := time.Now()
	scores := make([]models.RankerScore, 0, len(parsed.Scores))
	for _, s := range parsed.Scores {
		scores = append(scores, models.RankerScore{
			ModelName: modelName,
			HorseName: models.NormalizeHorseName(s.HorseName),
			RaceID:    raceID,
			Score:     s.Score,
			ScoredAt:  now,
		})
	}

	metrics.RecordScoringRequest(modelName, "success")
	c.logger.WithFields(logrus.Fields{
		"model":   modelName,
		"race_id": raceID,
		"horses":  len(scores),
	}).Debug("Race scored")
	return scores, nil
}

// HealthCheck checks model service health
func (c *ScoringClient) HealthCheck(ctx context.Context) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrServiceUnavailable, resp.StatusCode)
	}

	return nil
}

// ModelScorer binds one base model name to a ScoringClient, satisfying the
// ranker.Scorer interface.
type ModelScorer struct {
	model  string
	client *ScoringClient
}

// NewModelScorer creates a scorer for one base model.
func NewModelScorer(model string, client *ScoringClient) *ModelScorer {
	return &ModelScorer{model: model, client: client}
}

// Name returns the canonical model name.
func (s *ModelScorer) Name() string { return s.model }

// Score scores the race field with this scorer's model.
func (s *ModelScorer) Score(ctx context.Context, raceID string, horses []models.FeatureVector) ([]models.RankerScore, error) {
	return s.client.ScoreRace(ctx, s.model, raceID, horses)
}
