// Package metrics defines signal- and scoring-specific metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Signal counter vectors
var (
	SignalsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "equine_oracle",
		Name:      "signals_total",
		Help:      "Total number of betting signals generated by signal type",
	}, []string{"signal"})

	RaceRecommendationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "equine_oracle",
		Name:      "race_recommendations_total",
		Help:      "Total number of race-level recommendations by type",
	}, []string{"recommendation"})
)

// Scoring counter vectors
var (
	ScoringRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "equine_oracle",
		Name:      "scoring_requests_total",
		Help:      "Total number of scoring requests by model and status",
	}, []string{"model", "status"})

	ScoringCacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "equine_oracle",
		Name:      "scoring_cache_hits_total",
		Help:      "Total number of scoring cache hits by model",
	}, []string{"model"})
)

// RecordSignal records one generated betting signal.
// signal should be one of: "STRONG_BUY", "BUY", "HOLD", "WAIT"
func RecordSignal(signal string) {
	SignalsTotal.WithLabelValues(signal).Inc()
}

// RecordRaceRecommendation records one race-level recommendation.
func RecordRaceRecommendation(recommendation string) {
	RaceRecommendationsTotal.WithLabelValues(recommendation).Inc()
}

// RecordScoringRequest records a scoring request outcome.
// status should be one of: "success", "failure"
func RecordScoringRequest(model, status string) {
	ScoringRequestsTotal.WithLabelValues(model, status).Inc()
}

// RecordScoringCacheHit records a score served from cache.
func RecordScoringCacheHit(model string) {
	ScoringCacheHitsTotal.WithLabelValues(model).Inc()
}
