// Package metrics provides centralized Prometheus metrics registry for the prediction pipeline.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	PredictionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "equine_oracle",
		Name:      "predictions_total",
		Help:      "Total number of race predictions generated",
	})
	PredictionFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "equine_oracle",
		Name:      "prediction_failures_total",
		Help:      "Total number of failed prediction attempts",
	})
	ResultsIngestedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "equine_oracle",
		Name:      "results_ingested_total",
		Help:      "Total number of race results ingested",
	})
	ValidationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "equine_oracle",
		Name:      "validations_total",
		Help:      "Total number of predictions validated against results",
	})
	ValidationErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "equine_oracle",
		Name:      "validation_errors_total",
		Help:      "Total number of validation failures isolated per race",
	})
	SchedulerSkipsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "equine_oracle",
		Name:      "scheduler_skips_total",
		Help:      "Total number of scheduled runs skipped because the previous run was in flight",
	}, []string{"job"})
)

// Gauge metrics
var (
	EnsembleTop1Rate = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "equine_oracle",
		Name:      "ensemble_top1_rate",
		Help:      "Rolling top-1 accuracy of the ensemble",
	})
	ModelWeight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "equine_oracle",
		Name:      "model_weight",
		Help:      "Current ensemble weight per base ranker",
	}, []string{"model"})
	ModelSharpeRatio = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "equine_oracle",
		Name:      "model_sharpe_ratio",
		Help:      "Sharpe ratio of each model's betting returns over the evaluation window",
	}, []string{"model"})
)

// Histogram metrics
var (
	PredictionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "equine_oracle",
		Name:      "prediction_duration_seconds",
		Help:      "End-to-end duration of one race prediction in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	EnsembleConfidence = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "equine_oracle",
		Name:      "ensemble_confidence",
		Help:      "Distribution of race-level ensemble confidence",
		Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.55, 0.65, 0.75, 0.85, 1.0},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register counter metrics
		registry.MustRegister(PredictionsTotal)
		registry.MustRegister(PredictionFailuresTotal)
		registry.MustRegister(ResultsIngestedTotal)
		registry.MustRegister(ValidationsTotal)
		registry.MustRegister(ValidationErrorsTotal)
		registry.MustRegister(SchedulerSkipsTotal)

		// Register gauge metrics
		registry.MustRegister(EnsembleTop1Rate)
		registry.MustRegister(ModelWeight)
		registry.MustRegister(ModelSharpeRatio)

		// Register histogram metrics
		registry.MustRegister(PredictionDuration)
		registry.MustRegister(EnsembleConfidence)

		// Register signal metrics
		registry.MustRegister(SignalsTotal)
		registry.MustRegister(RaceRecommendationsTotal)
		registry.MustRegister(ScoringRequestsTotal)
		registry.MustRegister(ScoringCacheHitsTotal)

		// Register retraining metrics
		registry.MustRegister(RetrainJobsTotal)
		registry.MustRegister(RetrainFailuresTotal)
		registry.MustRegister(RetrainSkippedTotal)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordPrediction records a completed race prediction.
func RecordPrediction(durationSeconds, confidence float64) {
	PredictionsTotal.Inc()
	PredictionDuration.Observe(durationSeconds)
	EnsembleConfidence.Observe(confidence)
}

// RecordPredictionFailure records a failed prediction attempt.
func RecordPredictionFailure() {
	PredictionFailuresTotal.Inc()
}

// RecordResultIngested records an ingested race result.
func RecordResultIngested() {
	ResultsIngestedTotal.Inc()
}

// RecordValidation records a prediction validated against a result.
func RecordValidation() {
	ValidationsTotal.Inc()
}

// RecordValidationError records a validation failure.
func RecordValidationError() {
	ValidationErrorsTotal.Inc()
}

// RecordSchedulerSkip records a scheduled run skipped due to overlap.
func RecordSchedulerSkip(job string) {
	SchedulerSkipsTotal.WithLabelValues(job).Inc()
}

// UpdateModelWeight updates the ensemble weight gauge for one model.
func UpdateModelWeight(model string, weight float64) {
	ModelWeight.WithLabelValues(model).Set(weight)
}

// UpdateModelSharpe updates the Sharpe ratio gauge for one model.
func UpdateModelSharpe(model string, sharpe float64) {
	ModelSharpeRatio.WithLabelValues(model).Set(sharpe)
}

// UpdateEnsembleTop1Rate updates the rolling top-1 accuracy gauge.
func UpdateEnsembleTop1Rate(rate float64) {
	EnsembleTop1Rate.Set(rate)
}
