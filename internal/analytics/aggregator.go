// Package analytics rolls accuracy records into per-model performance
// snapshots and derives risk-adjusted ensemble weights.
package analytics

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/equine-oracle/internal/ensemble"
	"github.com/yourusername/equine-oracle/internal/models"
	"github.com/yourusername/equine-oracle/internal/validation"
)

// HighConfidenceSplit is the boundary between the high- and low-confidence
// buckets used for the calibration sanity check.
const HighConfidenceSplit = 0.70

// Aggregator computes ModelPerformanceSnapshots from accuracy records.
// Snapshots are pure functions of the record set: callers pass a
// consistent snapshot of the records, never a live view.
type Aggregator struct {
	logger *logrus.Logger
}

// NewAggregator creates an aggregator.
func NewAggregator(logger *logrus.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

// Snapshot aggregates the given records (already filtered to one model)
// into a performance snapshot. Rates are unsmoothed ratios; small samples
// are noisy and callers must gate decisions on TotalPredictions.
func (a *Aggregator) Snapshot(modelName string, records []*models.PredictionAccuracyRecord, start, end time.Time) *models.ModelPerformanceSnapshot {
	snap := &models.ModelPerformanceSnapshot{
		ModelName:   modelName,
		WindowStart: start,
		WindowEnd:   end,
	}
	if len(records) == 0 {
		return snap
	}

	var top1, top3Hit, top4Hit, top3Exact, top4Exact int
	var confSum, calibSum float64
	var highTotal, highTop1, lowTotal, lowTop1 int
	rois := make([]float64, 0, len(records))

	for _, r := range records {
		if r.Top1Correct {
			top1++
		}
		if r.WinnerInTop3 {
			top3Hit++
		}
		if r.WinnerInTop4 {
			top4Hit++
		}
		if r.Top3Correct {
			top3Exact++
		}
		if r.Top4Correct {
			top4Exact++
		}
		confSum += r.Confidence
		calibSum += r.CalibrationError

		if r.Confidence >= HighConfidenceSplit {
			highTotal++
			if r.Top1Correct {
				highTop1++
			}
		} else {
			lowTotal++
			if r.Top1Correct {
				lowTop1++
			}
		}

		if r.BettingOutcome != models.OutcomeNoBet {
			rois = append(rois, r.ROI())
		}
	}

	n := float64(len(records))
	snap.TotalPredictions = len(records)
	snap.Top1Rate = float64(top1) / n
	snap.Top3HitRate = float64(top3Hit) / n
	snap.Top4HitRate = float64(top4Hit) / n
	snap.Top3ExactRate = float64(top3Exact) / n
	snap.Top4ExactRate = float64(top4Exact) / n
	snap.AvgConfidence = confSum / n
	// Calibration score: 1 is perfect, 0 is maximally miscalibrated.
	snap.CalibrationScore = 1 - calibSum/n

	for _, roi := range rois {
		snap.TotalROI += roi
	}
	snap.SharpeRatio = SharpeRatio(rois)

	snap.HighConfidenceCount = highTotal
	snap.LowConfidenceCount = lowTotal
	if highTotal > 0 {
		snap.HighConfidenceTop1Rate = float64(highTop1) / float64(highTotal)
	}
	if lowTotal > 0 {
		snap.LowConfidenceTop1Rate = float64(lowTop1) / float64(lowTotal)
	}

	return snap
}

// SnapshotByModel partitions records by model name and aggregates each
// partition, including the ensemble-level one.
func (a *Aggregator) SnapshotByModel(records []*models.PredictionAccuracyRecord, start, end time.Time) map[string]*models.ModelPerformanceSnapshot {
	byModel := make(map[string][]*models.PredictionAccuracyRecord)
	for _, r := range records {
		byModel[r.ModelName] = append(byModel[r.ModelName], r)
	}

	out := make(map[string]*models.ModelPerformanceSnapshot, len(byModel))
	for name, recs := range byModel {
		out[name] = a.Snapshot(name, recs, start, end)
	}
	return out
}

// OptimalWeights recomputes ensemble weights by normalizing each base
// ranker's Sharpe-like ratio against the sum over all rankers. When total
// Sharpe is not positive there is no usable risk-adjusted signal, so it
// falls back to equal weights rather than emitting negative or NaN values.
func (a *Aggregator) OptimalWeights(records []*models.PredictionAccuracyRecord) map[string]float64 {
	sharpes := make(map[string]float64, len(models.BaseRankerNames))
	var total float64

	byModel := make(map[string][]float64)
	for _, r := range records {
		if r.ModelName == validation.EnsembleModelName || r.BettingOutcome == models.OutcomeNoBet {
			continue
		}
		byModel[r.ModelName] = append(byModel[r.ModelName], r.ROI())
	}

	for _, name := range models.BaseRankerNames {
		s := SharpeRatio(byModel[name])
		if s > 0 {
			sharpes[name] = s
			total += s
		}
	}

	if total <= 0 {
		a.logger.Info("Total Sharpe not positive, falling back to equal ensemble weights")
		return ensemble.EqualWeights(models.BaseRankerNames)
	}

	weights := make(map[string]float64, len(models.BaseRankerNames))
	for _, name := range models.BaseRankerNames {
		weights[name] = sharpes[name] / total
	}

	a.logger.WithField("weights", weights).Info("Recomputed ensemble weights from Sharpe ratios")
	return weights
}

// SharpeRatio is mean(roi) / stddev(roi), 0 when the series is empty or
// has zero variance.
func SharpeRatio(rois []float64) float64 {
	if len(rois) == 0 {
		return 0
	}

	var mean float64
	for _, r := range rois {
		mean += r
	}
	mean /= float64(len(rois))

	var variance float64
	for _, r := range rois {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(rois))

	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}
	return mean / std
}
