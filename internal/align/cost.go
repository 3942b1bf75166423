package align

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// CostMatrix returns the n×m pairing cost between spatially sorted foods and
// time-ordered weights. Lower is more plausible. It returns nil when either
// side is empty.
func (a *Aligner) CostMatrix(foods []DetectedFood, weights []float64) *mat.Dense {
	return a.cfg.costMatrix(indexFoods(foods), weights)
}

func (c Config) costMatrix(foods []indexedFood, weights []float64) *mat.Dense {
	n, m := len(foods), len(weights)
	if n == 0 || m == 0 {
		return nil
	}
	scale := float64(max(n, m))
	cost := mat.NewDense(n, m, nil)
	for i, f := range foods {
		est := c.EstimateWeight(f.food)
		for j, w := range weights {
			spatial := math.Abs(float64(i-j)) / scale
			weight := math.Abs(est-w) / math.Max(est, w)
			cost.Set(i, j, c.SpatialWeight*spatial+c.TemporalWeight*weight)
		}
	}
	return cost
}

// EstimateWeight is the visual weight estimate for f: area × density factor.
func (c Config) EstimateWeight(f DetectedFood) float64 {
	return f.Area * c.DensityFactor
}

// confidenceFromCost maps a pairing cost onto [0,1].
func confidenceFromCost(cost float64) float64 {
	return math.Max(0, math.Min(1, 1-cost))
}
