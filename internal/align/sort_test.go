package align

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classNames(foods []DetectedFood) []string {
	out := make([]string, len(foods))
	for i, f := range foods {
		out[i] = f.ClassName
	}
	return out
}

func TestSortSpatially(t *testing.T) {
	t.Parallel()

	top := DetectedFood{ClassName: "top", CenterX: 50, CenterY: 0}
	right := DetectedFood{ClassName: "right", CenterX: 100, CenterY: 50}
	bottom := DetectedFood{ClassName: "bottom", CenterX: 50, CenterY: 100}
	left := DetectedFood{ClassName: "left", CenterX: 0, CenterY: 50}
	foods := []DetectedFood{bottom, left, top, right}

	tests := []struct {
		dir  SortDirection
		want []string
	}{
		// bottom and top share x=50; input order is kept.
		{LeftToRight, []string{"left", "bottom", "top", "right"}},
		// left and right share y=50.
		{TopToBottom, []string{"top", "left", "right", "bottom"}},
		{Clockwise, []string{"top", "right", "bottom", "left"}},
	}
	for _, tt := range tests {
		t.Run(tt.dir.String(), func(t *testing.T) {
			got := SortSpatially(foods, tt.dir)
			assert.Equal(t, tt.want, classNames(got))
		})
	}

	assert.Equal(t, []string{"bottom", "left", "top", "right"}, classNames(foods), "input must not be reordered")
}

func TestSortSpatially_SmallInputs(t *testing.T) {
	assert.Empty(t, SortSpatially(nil, Clockwise))

	one := []DetectedFood{{ClassName: "rice", CenterX: 3}}
	assert.Equal(t, one, SortSpatially(one, Clockwise))
}

func TestSortSpatially_StableForEqualKeys(t *testing.T) {
	foods := []DetectedFood{
		{ClassName: "a", CenterX: 10},
		{ClassName: "b", CenterX: 10},
		{ClassName: "c", CenterX: 5},
		{ClassName: "d", CenterX: 10},
	}
	assert.Equal(t, []string{"c", "a", "b", "d"}, classNames(SortSpatially(foods, LeftToRight)))
}

func TestParseSortDirection(t *testing.T) {
	for in, want := range map[string]SortDirection{
		"":              LeftToRight,
		"left_to_right": LeftToRight,
		"TOP_TO_BOTTOM": TopToBottom,
		" clockwise ":   Clockwise,
		"cw":            Clockwise,
	} {
		got, err := ParseSortDirection(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseSortDirection("spiral")
	assert.Error(t, err)
}
