package align

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Metrics summarises one alignment. The relative error fields are nil unless
// ground truth of matching length was supplied.
type Metrics struct {
	TotalFoods        int      `json:"total_foods"`
	MatchedFoods      int      `json:"matched_foods"`
	UnmatchedFoods    int      `json:"unmatched_foods"`
	AvgConfidence     float64  `json:"avg_confidence"`
	TotalWeight       float64  `json:"total_weight"`
	MeanRelativeError *float64 `json:"mean_relative_error,omitempty"`
	MaxRelativeError  *float64 `json:"max_relative_error,omitempty"`
}

// Evaluate computes Metrics for aligned. truth, when given, lists the real
// weights in the order the detections were passed to Align and is paired
// with each result through its DetectionIndex. Entries with a non-positive
// truth weight are left out of the error statistics.
func Evaluate(aligned []AlignedFood, truth []float64) Metrics {
	m := Metrics{TotalFoods: len(aligned)}
	if len(aligned) == 0 {
		return m
	}

	conf := make([]float64, len(aligned))
	weights := make([]float64, len(aligned))
	for i, a := range aligned {
		if a.Matched() {
			m.MatchedFoods++
		} else {
			m.UnmatchedFoods++
		}
		conf[i] = a.ConfidenceScore
		weights[i] = a.Weight
	}
	m.AvgConfidence = stat.Mean(conf, nil)
	m.TotalWeight = floats.Sum(weights)

	if len(truth) == 0 || len(truth) != len(aligned) {
		return m
	}
	errs := make([]float64, 0, len(aligned))
	for _, a := range aligned {
		if a.DetectionIndex < 0 || a.DetectionIndex >= len(truth) {
			continue
		}
		gt := truth[a.DetectionIndex]
		if gt <= 0 || math.IsNaN(gt) {
			continue
		}
		errs = append(errs, math.Abs(a.Weight-gt)/gt)
	}
	if len(errs) == 0 {
		return m
	}
	mean := stat.Mean(errs, nil)
	maxErr := floats.Max(errs)
	m.MeanRelativeError = &mean
	m.MaxRelativeError = &maxErr
	return m
}
