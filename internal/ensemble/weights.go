package ensemble

import "github.com/yourusername/equine-oracle/internal/models"

// ValidateWeights rejects weight maps that are empty, contain a negative
// weight, or do not sum to a positive number.
func ValidateWeights(weights map[string]float64) error {
	if len(weights) == 0 {
		return models.ErrInvalidWeights
	}
	var sum float64
	for _, w := range weights {
		if w < 0 {
			return models.ErrInvalidWeights
		}
		sum += w
	}
	if sum <= 0 {
		return models.ErrInvalidWeights
	}
	return nil
}

// NormalizeWeights scales a valid weight map to sum to 1.
func NormalizeWeights(weights map[string]float64) map[string]float64 {
	var sum float64
	for _, w := range weights {
		sum += w
	}

	out := make(map[string]float64, len(weights))
	for k, w := range weights {
		out[k] = w / sum
	}
	return out
}

// EqualWeights returns a uniform weight map over the given models, used as
// the fallback when Sharpe-based optimization has no usable signal.
func EqualWeights(modelNames []string) map[string]float64 {
	out := make(map[string]float64, len(modelNames))
	for _, name := range modelNames {
		out[name] = 1.0 / float64(len(modelNames))
	}
	return out
}
