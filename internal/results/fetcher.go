// Package results polls the external racecards API for completed race
// results and upcoming race cards.
package results

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/equine-oracle/internal/config"
	"github.com/yourusername/equine-oracle/internal/models"
)

// Fetcher retrieves completed results and upcoming cards from the feed.
type Fetcher struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	apiKey     string
	logger     *logrus.Logger
}

// NewFetcher creates a results feed fetcher.
func NewFetcher(cfg *config.ResultsSourceConfig, logger *logrus.Logger) *Fetcher {
	httpCfg := DefaultHTTPClientConfig()
	httpCfg.Timeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	httpCfg.MaxRetries = cfg.RetryAttempts
	httpCfg.RateLimit = cfg.RateLimitPerSecond

	return &Fetcher{
		httpClient: NewRateLimitedHTTPClient(httpCfg, logger),
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		logger:     logger,
	}
}

// feedFinisher represents one placed horse in the feed's result payload
type feedFinisher struct {
	Position  int    `json:"position"`
	HorseName string `json:"horse_name"`
	WinOdds   string `json:"win_odds"`
}

// feedResult represents a completed race from the feed
type feedResult struct {
	RaceID         string         `json:"race_id"`
	Track          string         `json:"track"`
	TrackCondition string         `json:"track_condition"`
	CompletedAt    time.Time      `json:"completed_at"`
	Finishers      []feedFinisher `json:"finishers"`
}

// feedCard represents an upcoming race card from the feed
type feedCard struct {
	RaceID         string    `json:"race_id"`
	Track          string    `json:"track"`
	ScheduledStart time.Time `json:"scheduled_start"`
	Runners        []struct {
		HorseName   string             `json:"horse_name"`
		Numeric     map[string]float64 `json:"features"`
		Categorical map[string]string  `json:"categoricals"`
	} `json:"runners"`
}

// FetchCompleted retrieves races completed since the given time. Results
// that fail validation are logged and skipped, never returned.
func (f *Fetcher) FetchCompleted(ctx context.Context, since time.Time) ([]*models.RaceResult, error) {
	url := fmt.Sprintf("%s/api/v1/results?since=%s", f.baseURL, since.UTC().Format(time.RFC3339))

	var raw []feedResult
	if err := f.getJSON(ctx, url, &raw); err != nil {
		return nil, fmt.Errorf("failed to fetch results: %w", err)
	}

	out := make([]*models.RaceResult, 0, len(raw))
	for i := range raw {
		result, err := f.convertResult(&raw[i])
		if err != nil {
			f.logger.WithError(err).WithField("race_id", raw[i].RaceID).
				Warn("Skipping malformed race result from feed")
			continue
		}
		out = append(out, result)
	}

	f.logger.WithFields(logrus.Fields{
		"fetched": len(raw),
		"valid":   len(out),
	}).Debug("Fetched completed results")
	return out, nil
}

// FetchUpcoming retrieves race cards that have not yet run.
func (f *Fetcher) FetchUpcoming(ctx context.Context) ([]models.RaceCard, error) {
	url := f.baseURL + "/api/v1/racecards?status=upcoming"

	var raw []feedCard
	if err := f.getJSON(ctx, url, &raw); err != nil {
		return nil, fmt.Errorf("failed to fetch racecards: %w", err)
	}

	cards := make([]models.RaceCard, 0, len(raw))
	for _, fc := range raw {
		card := models.RaceCard{
			RaceID:         fc.RaceID,
			Track:          fc.Track,
			ScheduledStart: fc.ScheduledStart,
			Horses:         make([]models.FeatureVector, len(fc.Runners)),
		}
		for i, r := range fc.Runners {
			card.Horses[i] = models.FeatureVector{
				HorseName:   r.HorseName,
				Numeric:     r.Numeric,
				Categorical: r.Categorical,
			}
		}
		card.Normalize()
		cards = append(cards, card)
	}
	return cards, nil
}

// Close releases the underlying HTTP client.
func (f *Fetcher) Close() error {
	return f.httpClient.Close()
}

func (f *Fetcher) getJSON(ctx context.Context, url string, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if f.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.apiKey)
	}

	resp, err := f.httpClient.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(dst)
}

// convertResult maps a feed payload onto a validated RaceResult. The feed
// lists finishers by position; only the top four are kept.
func (f *Fetcher) convertResult(fr *feedResult) (*models.RaceResult, error) {
	finishers := append([]feedFinisher(nil), fr.Finishers...)
	sort.SliceStable(finishers, func(i, j int) bool { return finishers[i].Position < finishers[j].Position })

	if len(finishers) < 4 {
		return nil, fmt.Errorf("feed returned %d finishers, need 4", len(finishers))
	}

	recordedAt := fr.CompletedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}

	result := &models.RaceResult{
		RaceID:         fr.RaceID,
		TrackName:      fr.Track,
		Winner:         models.NormalizeHorseName(finishers[0].HorseName),
		Second:         models.NormalizeHorseName(finishers[1].HorseName),
		Third:          models.NormalizeHorseName(finishers[2].HorseName),
		Fourth:         models.NormalizeHorseName(finishers[3].HorseName),
		TrackCondition: fr.TrackCondition,
		RecordedAt:     recordedAt,
	}

	odds := make([]decimal.Decimal, 4)
	for i := 0; i < 4; i++ {
		d, err := parseOdds(finishers[i].WinOdds)
		if err != nil {
			f.logger.WithField("horse", finishers[i].HorseName).WithError(err).
				Debug("Unparseable odds, recording zero")
			d = decimal.Zero
		}
		odds[i] = d
	}
	result.WinningOdds, result.SecondOdds, result.ThirdOdds, result.FourthOdds = odds[0], odds[1], odds[2], odds[3]

	if err := result.Validate(); err != nil {
		return nil, err
	}
	return result, nil
}

// parseOdds accepts decimal odds ("3.5") or fractional odds ("5/2", which
// convert as numerator/denominator + 1).
func parseOdds(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty odds")
	}

	if num, den, found := strings.Cut(s, "/"); found {
		n, err := decimal.NewFromString(strings.TrimSpace(num))
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid fractional odds %q", s)
		}
		d, err := decimal.NewFromString(strings.TrimSpace(den))
		if err != nil || d.IsZero() {
			return decimal.Zero, fmt.Errorf("invalid fractional odds %q", s)
		}
		return n.Div(d).Add(decimal.NewFromInt(1)), nil
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid odds format %q", s)
	}
	return d, nil
}
