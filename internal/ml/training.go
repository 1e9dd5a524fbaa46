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

	"github.com/yourusername/equine-oracle/internal/config"
)

// TrainingClient dispatches retraining runs to the model service and polls
// until the job reaches a terminal state. It satisfies retrain.Trainer.
type TrainingClient struct {
	client       *retryablehttp.Client
	baseURL      string
	apiKey       string
	pollInterval time.Duration
	cache        *ScoreCache
	logger       *logrus.Logger
}

// NewTrainingClient creates a training client. The cache may be nil; when
// set, a completed retrain invalidates that model's cached scores.
func NewTrainingClient(cfg *config.ScoringConfig, cache *ScoreCache, logger *logrus.Logger) *TrainingClient {
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	retryClient.RetryMax = cfg.RetryAttempts
	retryClient.RetryWaitMin = 100 * time.Millisecond
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = nil

	return &TrainingClient{
		client:       retryClient,
		baseURL:      cfg.URL,
		apiKey:       cfg.APIKey,
		pollInterval: 15 * time.Second,
		cache:        cache,
		logger:       logger,
	}
}

// trainRequest represents the training request payload
type trainRequest struct {
	ModelType string `json:"model_type"`
}

// trainResponse represents the training submission response
type trainResponse struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	ModelType string `json:"model_type"`
	Message   string `json:"message"`
}

// trainStatus represents the training job status response
type trainStatus struct {
	JobID              string  `json:"job_id"`
	Status             string  `json:"status"`
	ImprovementPercent float64 `json:"improvement_percent"`
	Error              string  `json:"error"`
}

// Train submits a retraining run for one model and blocks until the job
// finishes or ctx expires.
func (c *TrainingClient) Train(ctx context.Context, modelName string) (float64, error) {
	jobID, err := c.submit(ctx, modelName)
	if err != nil {
		return 0, err
	}

	c.logger.WithFields(logrus.Fields{
		"model":  modelName,
		"job_id": jobID,
	}).Info("Training job submitted")

	status, err := c.waitForCompletion(ctx, jobID)
	if err != nil {
		return 0, err
	}

	if status.Status != "completed" {
		return 0, fmt.Errorf("%w: %s", ErrTrainingFailed, status.Error)
	}

	if c.cache != nil {
		c.cache.InvalidateModel(modelName)
	}
	return status.ImprovementPercent, nil
}

func (c *TrainingClient) submit(ctx context.Context, modelName string) (string, error) {
	body, err := json.Marshal(trainRequest{ModelType: modelName})
	if err != nil {
		return "", fmt.Errorf("failed to marshal training request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/models/train", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: status %d: %s", ErrTrainingFailed, resp.StatusCode, string(respBody))
	}

	var submitted trainResponse
	if err := json.NewDecoder(resp.Body).Decode(&submitted); err != nil {
		return "", fmt.Errorf("failed to decode training response: %w", err)
	}
	return submitted.JobID, nil
}

func (c *TrainingClient) waitForCompletion(ctx context.Context, jobID string) (*trainStatus, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		status, err := c.pollStatus(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if status.Status == "completed" || status.Status == "failed" {
			return status, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrTrainingFailed, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *TrainingClient) pollStatus(ctx context.Context, jobID string) (*trainStatus, error) {
	url := fmt.Sprintf("%s/api/v1/models/train/%s/status", c.baseURL, jobID)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status request failed with status %d", resp.StatusCode)
	}

	var status trainStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode status: %w", err)
	}
	return &status, nil
}
