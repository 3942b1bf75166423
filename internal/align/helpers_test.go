package align

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// mkFood builds a detection whose box is w×h pixels centred at (cx, cy).
func mkFood(t *testing.T, name string, cx, cy, w, h float64) DetectedFood {
	t.Helper()
	f, err := NewDetectedFood(name, BBox{cx - w/2, cy - h/2, cx + w/2, cy + h/2}, 0.9)
	require.NoError(t, err)
	return f
}

// mkEvents builds a baseline-prefixed sequence from per-take deltas, one
// second apart.
func mkEvents(deltas ...float64) []WeightEvent {
	events := []WeightEvent{Baseline}
	var cum float64
	for i, d := range deltas {
		cum += d
		events = append(events, WeightEvent{
			Timestamp:        float64(i + 1),
			CumulativeWeight: cum,
			DeltaWeight:      d,
		})
	}
	return events
}

func mustAligner(t *testing.T) *Aligner {
	t.Helper()
	a, err := NewAligner(DefaultConfig())
	require.NoError(t, err)
	return a
}

// requireInvariants checks the properties every alignment must hold.
func requireInvariants(t *testing.T, foods []DetectedFood, got []AlignedFood) {
	t.Helper()
	require.Len(t, got, len(foods))

	seenEvent := map[int]bool{}
	seenDetection := map[int]bool{}
	for _, a := range got {
		require.GreaterOrEqual(t, a.ConfidenceScore, 0.0)
		require.LessOrEqual(t, a.ConfidenceScore, 1.0)
		if a.WeightEventIndex >= 0 {
			require.False(t, seenEvent[a.WeightEventIndex], "event %d used twice", a.WeightEventIndex)
			seenEvent[a.WeightEventIndex] = true
		} else {
			require.Equal(t, NoEventIndex, a.WeightEventIndex)
		}
		require.False(t, seenDetection[a.DetectionIndex], "detection %d aligned twice", a.DetectionIndex)
		seenDetection[a.DetectionIndex] = true
		require.Equal(t, foods[a.DetectionIndex], a.Food)
	}
	for i := 1; i < len(got); i++ {
		require.LessOrEqual(t, got[i-1].Food.CenterX, got[i].Food.CenterX)
	}
}
