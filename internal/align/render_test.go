package align

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderText(t *testing.T) {
	out := RenderText([]AlignedFood{
		{Food: DetectedFood{ClassName: "rice", CenterX: 415, CenterY: 220}, Weight: 120.456, WeightEventIndex: 3, ConfidenceScore: 0.875},
		{Food: DetectedFood{ClassName: "tofu", CenterX: 540, CenterY: 230}, Weight: 64, WeightEventIndex: NoEventIndex, ConfidenceScore: 0.3},
	})

	assert.Contains(t, out, "Item #1:")
	assert.Contains(t, out, "class:      rice")
	assert.Contains(t, out, "position:   (415.0, 220.0)")
	assert.Contains(t, out, "weight:     120.46g")
	assert.Contains(t, out, "event:      #3")
	assert.Contains(t, out, "confidence: 87.50%")
	assert.Contains(t, out, "unmatched (visual estimate)")
	assert.Equal(t, 1, strings.Count(out, "event:"))
}

func TestRenderText_Empty(t *testing.T) {
	out := RenderText(nil)
	assert.Contains(t, out, "Visual-weight alignment")
	assert.NotContains(t, out, "Item #")
}
