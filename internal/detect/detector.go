// Package detect finds food items in tray images.
package detect

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"

	"github.com/banshee-data/tray.report/internal/align"
	"github.com/banshee-data/tray.report/internal/monitoring"
)

var logf = monitoring.Component("detect")

// Detector returns the food items visible in a tray image, in pixel
// coordinates of img.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]align.DetectedFood, error)
}

type batchDetection struct {
	ClassName  string     `json:"class_name"`
	Class      string     `json:"class"`
	BBox       align.BBox `json:"bbox"`
	Confidence float64    `json:"confidence"`
}

// DecodeDetections reads a JSON array of detections. Each entry names its
// class as class_name or class; centre and area are always recomputed from
// the box.
func DecodeDetections(r io.Reader) ([]align.DetectedFood, error) {
	var raw []batchDetection
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode detections: %w", err)
	}

	foods := make([]align.DetectedFood, 0, len(raw))
	for i, d := range raw {
		name := d.ClassName
		if name == "" {
			name = d.Class
		}
		f, err := align.NewDetectedFood(name, d.BBox, d.Confidence)
		if err != nil {
			return nil, fmt.Errorf("detection %d: %w", i, err)
		}
		foods = append(foods, f)
	}
	return foods, nil
}

// StaticDetector replays a fixed set of detections whatever the image.
type StaticDetector struct {
	Foods []align.DetectedFood
}

// Detect returns a copy of the stored detections.
func (s StaticDetector) Detect(ctx context.Context, _ image.Image) ([]align.DetectedFood, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]align.DetectedFood(nil), s.Foods...), nil
}
