package align

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractIncrements(t *testing.T) {
	t.Parallel()

	t.Run("skips baseline and noise", func(t *testing.T) {
		events := mkEvents(30, 0.2, 45, 0.5, 60)
		got := ExtractIncrements(events, DefaultNoiseFloor)
		assert.Equal(t, []Increment{
			{EventIndex: 1, Weight: 30},
			{EventIndex: 3, Weight: 45},
			{EventIndex: 5, Weight: 60},
		}, got)
	})

	t.Run("baseline only", func(t *testing.T) {
		assert.Empty(t, ExtractIncrements([]WeightEvent{Baseline}, DefaultNoiseFloor))
		assert.Empty(t, ExtractIncrements(nil, DefaultNoiseFloor))
	})

	t.Run("floor is configurable", func(t *testing.T) {
		events := mkEvents(3, 8, 12)
		got := ExtractIncrements(events, 5)
		assert.Equal(t, []float64{8, 12}, incrementWeights(got))
	})

	t.Run("negative deltas are dropped not validated", func(t *testing.T) {
		events := []WeightEvent{Baseline, {Timestamp: 1, CumulativeWeight: 20, DeltaWeight: 20}, {Timestamp: 2, CumulativeWeight: 5, DeltaWeight: -15}}
		assert.Equal(t, []Increment{{EventIndex: 1, Weight: 20}}, ExtractIncrements(events, DefaultNoiseFloor))
	})
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 0.0, median(nil))
	assert.Equal(t, 45.0, median([]float64{60, 30, 45}))
	assert.Equal(t, 272.5, median([]float64{30, 500, 45, 600}))
}
