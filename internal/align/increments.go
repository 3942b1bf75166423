package align

import "sort"

// DefaultNoiseFloor is the smallest delta, in grams, treated as a real take.
const DefaultNoiseFloor = 0.5

// Increment is a per-take weight delta together with the index of the event
// it came from in the original sequence.
type Increment struct {
	EventIndex int
	Weight     float64
}

// ExtractIncrements returns the deltas of every non-baseline event heavier
// than noiseFloor, in event order. Event 0 is always skipped as the baseline.
func ExtractIncrements(events []WeightEvent, noiseFloor float64) []Increment {
	if len(events) < 2 {
		return nil
	}
	out := make([]Increment, 0, len(events)-1)
	for i := 1; i < len(events); i++ {
		if d := events[i].DeltaWeight; d > noiseFloor {
			out = append(out, Increment{EventIndex: i, Weight: d})
		}
	}
	return out
}

func incrementWeights(incs []Increment) []float64 {
	w := make([]float64, len(incs))
	for i, inc := range incs {
		w[i] = inc.Weight
	}
	return w
}

// median returns the median of xs, averaging the two middle values for an
// even count.
func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
