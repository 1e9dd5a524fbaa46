package models

import "time"

// ModelPerformanceSnapshot is a time-windowed aggregate over accuracy
// records for one model (or the ensemble as a whole). It is always
// recomputed from the record set, never updated incrementally.
type ModelPerformanceSnapshot struct {
	ModelName        string    `json:"model_name"`
	WindowStart      time.Time `json:"window_start"`
	WindowEnd        time.Time `json:"window_end"`
	TotalPredictions int       `json:"total_predictions"`
	Top1Rate         float64   `json:"top1_rate"`
	Top3HitRate      float64   `json:"top3_hit_rate"`
	Top4HitRate      float64   `json:"top4_hit_rate"`
	Top3ExactRate    float64   `json:"top3_exact_rate"`
	Top4ExactRate    float64   `json:"top4_exact_rate"`
	AvgConfidence    float64   `json:"avg_confidence"`
	CalibrationScore float64   `json:"calibration_score"`
	TotalROI         float64   `json:"total_roi"`
	SharpeRatio      float64   `json:"sharpe_ratio"`

	// Confidence-stratified top-1 accuracy at the 0.70 split. A
	// well-calibrated model has HighConfidenceTop1Rate >= LowConfidenceTop1Rate.
	HighConfidenceCount    int     `json:"high_confidence_count"`
	LowConfidenceCount     int     `json:"low_confidence_count"`
	HighConfidenceTop1Rate float64 `json:"high_confidence_top1_rate"`
	LowConfidenceTop1Rate  float64 `json:"low_confidence_top1_rate"`
}

// WellCalibrated reports whether stated confidence tracked empirical
// accuracy over this window. Meaningless on tiny samples; callers gate on
// TotalPredictions.
func (s *ModelPerformanceSnapshot) WellCalibrated() bool {
	return s.HighConfidenceTop1Rate >= s.LowConfidenceTop1Rate
}
