// Package helpers provides shared utilities for integration tests.
package helpers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yourusername/equine-oracle/internal/config"
	"github.com/yourusername/equine-oracle/internal/database"
)

// SetupTestDB connects to the integration test database and creates the
// schema. Connection details come from TEST_DATABASE_* env vars.
func SetupTestDB(t *testing.T) *database.DB {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Host:           GetEnvOrDefault("TEST_DATABASE_HOST", "localhost"),
		Port:           5432,
		Name:           GetEnvOrDefault("TEST_DATABASE_NAME", "equine_oracle_test"),
		User:           GetEnvOrDefault("TEST_DATABASE_USER", "test"),
		Password:       GetEnvOrDefault("TEST_DATABASE_PASSWORD", "test"),
		SSLMode:        "disable",
		MaxConnections: 4,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.NewDB(ctx, cfg)
	require.NoError(t, err, "failed to connect to test database")

	err = db.InitSchema(ctx)
	require.NoError(t, err, "failed to create schema")

	return db
}

// TeardownTestDB truncates the pipeline tables and closes the pool.
func TeardownTestDB(t *testing.T, db *database.DB) {
	t.Helper()

	tables := []string{
		"prediction_accuracy",
		"retraining_jobs",
		"race_results",
		"race_predictions",
	}

	ctx := context.Background()
	for _, table := range tables {
		_, err := db.GetPool().Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			t.Logf("Warning: failed to truncate table %s: %v", table, err)
		}
	}

	db.Close()
}

// MockScoringServer stands in for the external model scoring service. It
// returns descending scores for whatever field it is sent.
func MockScoringServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/score", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model  string `json:"model"`
			RaceID string `json:"race_id"`
			Horses []struct {
				HorseName string `json:"horse_name"`
			} `json:"horses"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		type scoreOut struct {
			HorseName string  `json:"horse_name"`
			Score     float64 `json:"score"`
		}
		scores := make([]scoreOut, len(req.Horses))
		for i, h := range req.Horses {
			scores[i] = scoreOut{
				HorseName: h.HorseName,
				Score:     1.0 - float64(i)*0.1,
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"scores": scores})
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return httptest.NewServer(mux)
}

// WaitForCondition polls until the condition holds or the timeout elapses.
func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool, message string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v: %s", timeout, message)
}

// GetEnvOrDefault returns the env var value or a fallback.
func GetEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// SkipIfShort skips the test when -short is set.
func SkipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}
