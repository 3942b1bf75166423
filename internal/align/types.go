package align

import (
	"errors"
	"fmt"
	"math"
)

// NoEventIndex marks an AlignedFood whose weight was not confirmed by the
// sensor and is a visual estimate instead.
const NoEventIndex = -1

var (
	// ErrInvalidBBox is returned when a bounding box is degenerate or inverted.
	ErrInvalidBBox = errors.New("invalid bounding box")
	// ErrInvalidConfidence is returned when a detector confidence is outside [0,1].
	ErrInvalidConfidence = errors.New("confidence out of range")
)

// BBox is an axis-aligned pixel box [x1, y1, x2, y2].
type BBox [4]float64

// Valid reports whether x1 < x2 and y1 < y2 and every coordinate is finite.
func (b BBox) Valid() bool {
	for _, v := range b {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b[0] < b[2] && b[1] < b[3]
}

// Center returns the centre point of the box.
func (b BBox) Center() (x, y float64) {
	return (b[0] + b[2]) / 2, (b[1] + b[3]) / 2
}

// Area returns the box area in square pixels.
func (b BBox) Area() float64 {
	return (b[2] - b[0]) * (b[3] - b[1])
}

// DetectedFood is one item found in a tray image. Values are treated as
// immutable once constructed.
type DetectedFood struct {
	ClassName  string  `json:"class_name"`
	BBox       BBox    `json:"bbox"`
	Confidence float64 `json:"confidence"`
	CenterX    float64 `json:"center_x"`
	CenterY    float64 `json:"center_y"`
	Area       float64 `json:"area"`
}

// NewDetectedFood validates a detection and derives its centre and area.
func NewDetectedFood(className string, bbox BBox, confidence float64) (DetectedFood, error) {
	if !bbox.Valid() {
		return DetectedFood{}, fmt.Errorf("%w: %v", ErrInvalidBBox, bbox)
	}
	if math.IsNaN(confidence) || confidence < 0 || confidence > 1 {
		return DetectedFood{}, fmt.Errorf("%w: %v", ErrInvalidConfidence, confidence)
	}
	cx, cy := bbox.Center()
	return DetectedFood{
		ClassName:  className,
		BBox:       bbox,
		Confidence: confidence,
		CenterX:    cx,
		CenterY:    cy,
		Area:       bbox.Area(),
	}, nil
}

// WeightEvent is one cumulative reading from the tray scale. The first event
// of a sequence is the zero baseline.
type WeightEvent struct {
	Timestamp        float64 `json:"timestamp"`
	CumulativeWeight float64 `json:"cumulative_weight"`
	DeltaWeight      float64 `json:"delta_weight"`
}

// Baseline is the zero event every sequence starts with.
var Baseline = WeightEvent{}

// AlignedFood pairs a detection with its estimated weight in grams.
//
// WeightEventIndex indexes the original weight-event sequence, or is
// NoEventIndex when the weight is a visual estimate. DetectionIndex is the
// position of Food in the detection list passed to Align.
type AlignedFood struct {
	Food             DetectedFood `json:"food"`
	Weight           float64      `json:"weight"`
	WeightEventIndex int          `json:"weight_event_index"`
	ConfidenceScore  float64      `json:"confidence_score"`
	DetectionIndex   int          `json:"detection_index"`
}

// Matched reports whether the weight came from a sensor event.
func (a AlignedFood) Matched() bool {
	return a.WeightEventIndex >= 0
}
