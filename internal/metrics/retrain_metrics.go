// Package metrics defines retraining-specific metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retraining counter vectors
var (
	RetrainJobsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "equine_oracle",
		Name:      "retrain_jobs_total",
		Help:      "Total number of retraining jobs dispatched by model and trigger",
	}, []string{"model", "trigger"})

	RetrainFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "equine_oracle",
		Name:      "retrain_failures_total",
		Help:      "Total number of retraining dispatch failures by model",
	}, []string{"model"})

	RetrainSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "equine_oracle",
		Name:      "retrain_skipped_total",
		Help:      "Total number of retrain requests skipped by the cooldown window",
	}, []string{"model"})
)

// RecordRetrainJob records a dispatched retraining job.
// trigger should be one of: "schedule", "performance_drop", "manual"
func RecordRetrainJob(model, trigger string) {
	RetrainJobsTotal.WithLabelValues(model, trigger).Inc()
}

// RecordRetrainFailure records a retraining dispatch failure.
func RecordRetrainFailure(model string) {
	RetrainFailuresTotal.WithLabelValues(model).Inc()
}

// RecordRetrainSkip records a retrain request suppressed by cooldown.
func RecordRetrainSkip(model string) {
	RetrainSkippedTotal.WithLabelValues(model).Inc()
}
