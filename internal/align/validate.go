package align

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrMissingBaseline is returned when a weight sequence does not start
	// with the zero baseline event.
	ErrMissingBaseline = errors.New("weight sequence must start with a zero baseline")
	// ErrNonMonotonic is returned when timestamps or cumulative weights
	// decrease, or a delta is negative.
	ErrNonMonotonic = errors.New("weight sequence is not monotonic")
)

// ValidateEvents checks a weight sequence at the boundary: a zero baseline
// first, non-decreasing timestamps and cumulative weights, non-negative
// finite deltas. An empty sequence is valid.
func ValidateEvents(events []WeightEvent) error {
	if len(events) == 0 {
		return nil
	}
	if events[0] != Baseline {
		return fmt.Errorf("%w: got %+v", ErrMissingBaseline, events[0])
	}
	for i := 1; i < len(events); i++ {
		prev, cur := events[i-1], events[i]
		for _, v := range []float64{cur.Timestamp, cur.CumulativeWeight, cur.DeltaWeight} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: event %d has non-finite value", ErrNonMonotonic, i)
			}
		}
		switch {
		case cur.Timestamp < prev.Timestamp:
			return fmt.Errorf("%w: event %d timestamp %.3f before %.3f", ErrNonMonotonic, i, cur.Timestamp, prev.Timestamp)
		case cur.CumulativeWeight < prev.CumulativeWeight:
			return fmt.Errorf("%w: event %d cumulative %.2fg below %.2fg", ErrNonMonotonic, i, cur.CumulativeWeight, prev.CumulativeWeight)
		case cur.DeltaWeight < 0:
			return fmt.Errorf("%w: event %d delta %.2fg is negative", ErrNonMonotonic, i, cur.DeltaWeight)
		}
	}
	return nil
}
