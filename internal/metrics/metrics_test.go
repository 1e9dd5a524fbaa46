package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRegistry(t *testing.T) {
	// Initialize the registry
	InitRegistry()
	registry := GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
}

func TestRecordPrediction(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordPrediction(0.25, 0.72)
	})
}

func TestRecordSignal(t *testing.T) {
	InitRegistry()

	tests := []struct {
		name   string
		signal string
	}{
		{name: "strong buy", signal: "STRONG_BUY"},
		{name: "buy", signal: "BUY"},
		{name: "hold", signal: "HOLD"},
		{name: "wait", signal: "WAIT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				RecordSignal(tt.signal)
			})
		})
	}
}

func TestUpdateModelWeight(t *testing.T) {
	InitRegistry()

	tests := []struct {
		name   string
		weight float64
	}{
		{name: "default weight", weight: 0.35},
		{name: "zero weight", weight: 0},
		{name: "full weight", weight: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				UpdateModelWeight("baseline_gbm", tt.weight)
			})
		})
	}
}

func TestRecordRetrainJob(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordRetrainJob("neural_net", "manual")
		RecordRetrainSkip("neural_net")
		RecordRetrainFailure("neural_net")
	})
}

func TestHandler(t *testing.T) {
	InitRegistry()

	handler := Handler()
	assert.NotNil(t, handler)
}
