package report

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// RenderHTML writes an interactive page with the per-item weights and
// confidence scores of r.
func RenderHTML(w io.Writer, r Report) error {
	x := make([]string, len(r.Foods))
	weights := make([]opts.BarData, len(r.Foods))
	conf := make([]opts.BarData, len(r.Foods))
	for i, it := range r.Foods {
		x[i] = fmt.Sprintf("%d %s", i+1, it.ClassName)
		weights[i] = opts.BarData{Name: it.ClassName, Value: round2(it.Weight)}
		conf[i] = opts.BarData{Name: it.ClassName, Value: round2(it.ConfidenceScore * 100)}
	}

	subtitle := fmt.Sprintf("run=%s matched=%d/%d total=%.1fg",
		r.RunID, r.Metrics.MatchedFoods, r.Metrics.TotalFoods, r.Metrics.TotalWeight)

	weightBar := charts.NewBar()
	weightBar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Tray alignment", Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Item weights (g)", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	weightBar.SetXAxis(x).
		AddSeries("weight", weights,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	confBar := charts.NewBar()
	confBar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{Title: "Alignment confidence (%)"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 100}),
	)
	confBar.SetXAxis(x).
		AddSeries("confidence", conf,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	page := components.NewPage()
	page.PageTitle = "Tray alignment"
	page.AddCharts(weightBar, confBar)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
