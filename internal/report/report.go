// Package report assembles an alignment, its metrics and per-item nutrition
// into the document written by tray-align, and renders it as JSON, a static
// chart or an HTML page.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/tray.report/internal/align"
	"github.com/banshee-data/tray.report/internal/monitoring"
	"github.com/banshee-data/tray.report/internal/nutrition"
	"github.com/banshee-data/tray.report/internal/version"
)

var logf = monitoring.Component("report")

// Item is one aligned food in output order.
type Item struct {
	ClassName        string             `json:"class_name"`
	Weight           float64            `json:"weight"`
	WeightEventIndex int                `json:"weight_event_index"`
	ConfidenceScore  float64            `json:"confidence_score"`
	BBox             align.BBox         `json:"bbox"`
	CenterX          float64            `json:"center_x"`
	CenterY          float64            `json:"center_y"`
	DetectionIndex   int                `json:"detection_index"`
	Matched          bool               `json:"matched"`
	Nutrition        *nutrition.Portion `json:"nutrition,omitempty"`
	NutritionError   string             `json:"nutrition_error,omitempty"`
}

// Report is the full result of one tray alignment.
type Report struct {
	RunID          string           `json:"run_id"`
	Version        string           `json:"version"`
	CreatedAt      time.Time        `json:"created_at"`
	Foods          []Item           `json:"foods"`
	Metrics        align.Metrics    `json:"metrics"`
	NutritionTotal *nutrition.Facts `json:"nutrition_total,omitempty"`
}

// Build assembles a Report. When lookup is non-nil each item's nutrition is
// looked up by class name and weight; a failed lookup is recorded on that
// item and does not fail the report.
func Build(ctx context.Context, aligned []align.AlignedFood, metrics align.Metrics, lookup nutrition.Lookup) (Report, error) {
	r := Report{
		RunID:     uuid.NewString(),
		Version:   version.Version,
		CreatedAt: time.Now().UTC(),
		Foods:     make([]Item, len(aligned)),
		Metrics:   metrics,
	}

	var total nutrition.Facts
	var found int
	for i, a := range aligned {
		item := Item{
			ClassName:        a.Food.ClassName,
			Weight:           a.Weight,
			WeightEventIndex: a.WeightEventIndex,
			ConfidenceScore:  a.ConfidenceScore,
			BBox:             a.Food.BBox,
			CenterX:          a.Food.CenterX,
			CenterY:          a.Food.CenterY,
			DetectionIndex:   a.DetectionIndex,
			Matched:          a.Matched(),
		}
		if lookup != nil {
			if err := ctx.Err(); err != nil {
				return Report{}, err
			}
			portion, err := lookup.Lookup(ctx, a.Food.ClassName, a.Weight)
			if err != nil {
				logf("run %s: no nutrition for %q: %v", r.RunID, a.Food.ClassName, err)
				item.NutritionError = err.Error()
			} else {
				item.Nutrition = &portion
				total = total.Add(portion.Facts)
				found++
			}
		}
		r.Foods[i] = item
	}
	if found > 0 {
		r.NutritionTotal = &total
	}
	return r, nil
}

// WriteJSON writes r as indented JSON.
func WriteJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}
