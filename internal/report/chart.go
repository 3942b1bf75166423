package report

import (
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/tray.report/internal/align"
)

// WriteChart saves a grouped bar chart comparing each item's assigned weight
// with its area-based visual estimate (area × density). The file format
// follows the extension of path (png, svg, pdf, ...).
func WriteChart(path string, aligned []align.AlignedFood, density float64) error {
	if len(aligned) == 0 {
		return errors.New("no items to chart")
	}

	assigned := make(plotter.Values, len(aligned))
	estimate := make(plotter.Values, len(aligned))
	labels := make([]string, len(aligned))
	for i, a := range aligned {
		assigned[i] = a.Weight
		estimate[i] = a.Food.Area * density
		labels[i] = fmt.Sprintf("%d %s", i+1, a.Food.ClassName)
		if !a.Matched() {
			labels[i] += "*"
		}
	}

	p := plot.New()
	p.Title.Text = "Tray items - assigned vs visual weight"
	p.Y.Label.Text = "Weight (g)"
	p.X.Label.Text = "Item (* = visual estimate)"

	w := vg.Points(14)

	assignedBars, err := plotter.NewBarChart(assigned, w)
	if err != nil {
		return fmt.Errorf("failed to create assigned bars: %w", err)
	}
	assignedBars.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	assignedBars.LineStyle.Width = vg.Length(0)
	assignedBars.Offset = -w / 2

	estimateBars, err := plotter.NewBarChart(estimate, w)
	if err != nil {
		return fmt.Errorf("failed to create estimate bars: %w", err)
	}
	estimateBars.Color = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	estimateBars.LineStyle.Width = vg.Length(0)
	estimateBars.Offset = w / 2

	p.Add(assignedBars, estimateBars)
	p.Legend.Add("assigned", assignedBars)
	p.Legend.Add("visual estimate", estimateBars)
	p.Legend.Top = true
	p.NominalX(labels...)

	width := vg.Length(len(aligned))*1.2*vg.Inch + 2*vg.Inch
	if err := p.Save(width, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save chart %s: %w", path, err)
	}
	return nil
}
