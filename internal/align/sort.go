package align

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// SortDirection selects the axis along which detections are ordered before
// they are paired with weight increments.
type SortDirection int

const (
	LeftToRight SortDirection = iota
	TopToBottom
	// Clockwise orders items by the angle of their centre around the centroid
	// of all centres. Image y grows downwards, so ascending atan2 is clockwise
	// on screen.
	Clockwise
)

func (d SortDirection) String() string {
	switch d {
	case LeftToRight:
		return "left_to_right"
	case TopToBottom:
		return "top_to_bottom"
	case Clockwise:
		return "clockwise"
	default:
		return fmt.Sprintf("SortDirection(%d)", int(d))
	}
}

// ParseSortDirection maps a configuration string onto a SortDirection.
func ParseSortDirection(s string) (SortDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "left_to_right", "ltr":
		return LeftToRight, nil
	case "top_to_bottom", "ttb":
		return TopToBottom, nil
	case "clockwise", "cw":
		return Clockwise, nil
	}
	return LeftToRight, fmt.Errorf("unknown sort direction %q: expected left_to_right, top_to_bottom or clockwise", s)
}

// indexedFood keeps a detection together with its position in the caller's list.
type indexedFood struct {
	food  DetectedFood
	index int
}

// SortSpatially returns a copy of foods ordered along dir. The sort is stable.
func SortSpatially(foods []DetectedFood, dir SortDirection) []DetectedFood {
	sorted := sortIndexed(indexFoods(foods), dir)
	out := make([]DetectedFood, len(sorted))
	for i, f := range sorted {
		out[i] = f.food
	}
	return out
}

func indexFoods(foods []DetectedFood) []indexedFood {
	out := make([]indexedFood, len(foods))
	for i, f := range foods {
		out[i] = indexedFood{food: f, index: i}
	}
	return out
}

func sortIndexed(items []indexedFood, dir SortDirection) []indexedFood {
	out := make([]indexedFood, len(items))
	copy(out, items)
	if len(out) < 2 {
		return out
	}

	var key func(f DetectedFood) float64
	switch dir {
	case TopToBottom:
		key = func(f DetectedFood) float64 { return f.CenterY }
	case Clockwise:
		var cx, cy float64
		for _, it := range out {
			cx += it.food.CenterX
			cy += it.food.CenterY
		}
		cx /= float64(len(out))
		cy /= float64(len(out))
		key = func(f DetectedFood) float64 {
			return math.Atan2(f.CenterY-cy, f.CenterX-cx)
		}
	default:
		key = func(f DetectedFood) float64 { return f.CenterX }
	}

	keys := make([]float64, len(out))
	for i, it := range out {
		keys[i] = key(it.food)
	}
	sort.Stable(byKey{items: out, keys: keys})
	return out
}

type byKey struct {
	items []indexedFood
	keys  []float64
}

func (b byKey) Len() int           { return len(b.items) }
func (b byKey) Less(i, j int) bool { return b.keys[i] < b.keys[j] }
func (b byKey) Swap(i, j int) {
	b.items[i], b.items[j] = b.items[j], b.items[i]
	b.keys[i], b.keys[j] = b.keys[j], b.keys[i]
}
