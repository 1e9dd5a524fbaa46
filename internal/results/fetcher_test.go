package results

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/equine-oracle/internal/config"
)

func testFetcher(url string) *Fetcher {
	return NewFetcher(&config.ResultsSourceConfig{
		URL:                   url,
		RequestTimeoutSeconds: 5,
		RetryAttempts:         0,
		RateLimitPerSecond:    100,
		LookbackHours:         24,
	}, logrus.New())
}

func TestFetchCompletedParsesFinishers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/results", r.URL.Path)
		assert.NotEmpty(t, r.URL.Query().Get("since"))

		w.Write([]byte(`[{
			"race_id": "ascot-2026-08-30-r4",
			"track": "Ascot",
			"track_condition": "good",
			"completed_at": "2026-08-30T15:05:00Z",
			"finishers": [
				{"position": 3, "horse_name": "copper beech", "win_odds": "9.0"},
				{"position": 1, "horse_name": "Thunder Road", "win_odds": "7/2"},
				{"position": 4, "horse_name": "NIGHT SIGNAL", "win_odds": "12"},
				{"position": 2, "horse_name": "Silver Mist", "win_odds": "5.5"}
			]
		}]`))
	}))
	defer server.Close()

	fetcher := testFetcher(server.URL)
	defer fetcher.Close()

	results, err := fetcher.FetchCompleted(context.Background(), time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "ascot-2026-08-30-r4", r.RaceID)

	// Finishers arrive unordered and mixed-case; positions and names normalize
	assert.Equal(t, "THUNDER ROAD", r.Winner)
	assert.Equal(t, "SILVER MIST", r.Second)
	assert.Equal(t, "COPPER BEECH", r.Third)
	assert.Equal(t, "NIGHT SIGNAL", r.Fourth)

	// Fractional 7/2 converts to decimal odds 4.5
	assert.True(t, r.WinningOdds.Equal(decimal.NewFromFloat(4.5)), "got %s", r.WinningOdds)
	assert.True(t, r.SecondOdds.Equal(decimal.NewFromFloat(5.5)))
}

func TestFetchCompletedSkipsMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"race_id": "short-field", "finishers": [
				{"position": 1, "horse_name": "A", "win_odds": "2"},
				{"position": 2, "horse_name": "B", "win_odds": "3"}
			]},
			{"race_id": "dup-horse", "finishers": [
				{"position": 1, "horse_name": "A", "win_odds": "2"},
				{"position": 2, "horse_name": "a ", "win_odds": "3"},
				{"position": 3, "horse_name": "C", "win_odds": "4"},
				{"position": 4, "horse_name": "D", "win_odds": "5"}
			]},
			{"race_id": "ok", "finishers": [
				{"position": 1, "horse_name": "A", "win_odds": "2"},
				{"position": 2, "horse_name": "B", "win_odds": "3"},
				{"position": 3, "horse_name": "C", "win_odds": "4"},
				{"position": 4, "horse_name": "D", "win_odds": "5"}
			]}
		]`))
	}))
	defer server.Close()

	fetcher := testFetcher(server.URL)
	defer fetcher.Close()

	results, err := fetcher.FetchCompleted(context.Background(), time.Now())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "ok", results[0].RaceID)
}

func TestFetchCompletedServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	fetcher := testFetcher(server.URL)
	defer fetcher.Close()

	_, err := fetcher.FetchCompleted(context.Background(), time.Now())
	assert.Error(t, err)
}

func TestFetchUpcomingNormalizesNames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/racecards", r.URL.Path)
		w.Write([]byte(`[{
			"race_id": "york-2026-08-31-r1",
			"track": "York",
			"scheduled_start": "2026-08-31T13:30:00Z",
			"runners": [
				{"horse_name": " thunder road ", "features": {"speed": 88.5}},
				{"horse_name": "Silver Mist", "features": {"speed": 84.1}, "categoricals": {"going": "good"}}
			]
		}]`))
	}))
	defer server.Close()

	fetcher := testFetcher(server.URL)
	defer fetcher.Close()

	cards, err := fetcher.FetchUpcoming(context.Background())
	require.NoError(t, err)
	require.Len(t, cards, 1)
	require.Len(t, cards[0].Horses, 2)

	assert.Equal(t, "THUNDER ROAD", cards[0].Horses[0].HorseName)
	assert.Equal(t, "SILVER MIST", cards[0].Horses[1].HorseName)
	assert.Equal(t, 88.5, cards[0].Horses[0].Numeric["speed"])
	assert.Equal(t, "good", cards[0].Horses[1].Categorical["going"])
}

func TestParseOdds(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "decimal", input: "3.5", want: "3.5"},
		{name: "integer", input: "12", want: "12"},
		{name: "fractional", input: "5/2", want: "3.5"},
		{name: "evens", input: "1/1", want: "2"},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "SP", wantErr: true},
		{name: "zero denominator", input: "5/0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseOdds(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			want, _ := decimal.NewFromString(tt.want)
			assert.True(t, got.Equal(want), "got %s want %s", got, want)
		})
	}
}
