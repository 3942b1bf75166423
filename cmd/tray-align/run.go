package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/banshee-data/tray.report/internal/align"
	"github.com/banshee-data/tray.report/internal/config"
	"github.com/banshee-data/tray.report/internal/detect"
	"github.com/banshee-data/tray.report/internal/monitoring"
	"github.com/banshee-data/tray.report/internal/nutrition"
	"github.com/banshee-data/tray.report/internal/report"
	"github.com/banshee-data/tray.report/internal/scale"
	"github.com/banshee-data/tray.report/internal/security"
)

type options struct {
	ConfigPath     string
	DetectionsPath string
	ImagePath      string
	WeightsPath    string
	PortPath       string
	Simulate       string
	Seed           uint64
	Truth          string
	Direction      string
	NutritionDB    string
	ChartPath      string
	HTMLPath       string
	OutPath        string
}

func run(ctx context.Context, o options, stdout io.Writer) error {
	for _, p := range []string{o.ChartPath, o.HTMLPath, o.OutPath} {
		if p == "" || p == "-" {
			continue
		}
		if err := security.ValidateOutputPath(p); err != nil {
			return err
		}
	}

	cfg := config.DefaultTuningConfig()
	if o.ConfigPath != "" {
		loaded, err := config.LoadTuningConfig(o.ConfigPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	dir, err := cfg.Direction()
	if o.Direction != "" {
		dir, err = align.ParseSortDirection(o.Direction)
	}
	if err != nil {
		return err
	}

	truth, err := parseCSVFloatSlice(o.Truth)
	if err != nil {
		return fmt.Errorf("invalid -truth: %w", err)
	}

	foods, err := loadDetections(ctx, o, cfg)
	if err != nil {
		return err
	}

	events, err := loadEvents(ctx, o, cfg, truth)
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		// interrupting a serial capture ends it; keep what was read
		ctx = context.WithoutCancel(ctx)
	} else if err != nil {
		return err
	}

	aligner, err := align.NewAligner(cfg.AlignerConfig())
	if err != nil {
		return err
	}
	aligned, err := aligner.Align(foods, events, dir)
	if err != nil {
		return fmt.Errorf("alignment failed: %w", err)
	}
	metrics := align.Evaluate(aligned, truth)

	var lookup nutrition.Lookup
	if o.NutritionDB != "" {
		store, err := nutrition.Open(o.NutritionDB)
		if err != nil {
			return err
		}
		defer store.Close()
		lookup = store
	}

	rep, err := report.Build(ctx, aligned, metrics, lookup)
	if err != nil {
		return err
	}

	fmt.Fprint(stdout, align.RenderText(aligned))
	fmt.Fprintf(stdout, "\nmatched %d/%d, avg confidence %.2f, total %.2fg\n",
		metrics.MatchedFoods, metrics.TotalFoods, metrics.AvgConfidence, metrics.TotalWeight)
	if metrics.MeanRelativeError != nil {
		fmt.Fprintf(stdout, "relative error: mean %.2f%%, max %.2f%%\n",
			*metrics.MeanRelativeError*100, *metrics.MaxRelativeError*100)
	}

	if o.ChartPath != "" && len(aligned) > 0 {
		if err := report.WriteChart(o.ChartPath, aligned, cfg.GetDensityFactor()); err != nil {
			return err
		}
		monitoring.Logf("wrote chart %s", o.ChartPath)
	}
	if o.HTMLPath != "" {
		if err := writeFile(o.HTMLPath, func(w io.Writer) error { return report.RenderHTML(w, rep) }); err != nil {
			return err
		}
		monitoring.Logf("wrote html report %s", o.HTMLPath)
	}
	switch o.OutPath {
	case "":
	case "-":
		return report.WriteJSON(stdout, rep)
	default:
		if err := writeFile(o.OutPath, func(w io.Writer) error { return report.WriteJSON(w, rep) }); err != nil {
			return err
		}
		monitoring.Logf("wrote report %s (run %s)", o.OutPath, rep.RunID)
	}
	return nil
}

func loadDetections(ctx context.Context, o options, cfg *config.TuningConfig) ([]align.DetectedFood, error) {
	switch {
	case o.DetectionsPath != "" && o.ImagePath != "":
		return nil, errors.New("use only one of -detections and -image")
	case o.DetectionsPath != "":
		f, err := os.Open(o.DetectionsPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return detect.DecodeDetections(f)
	case o.ImagePath != "":
		img, err := detect.LoadImage(o.ImagePath)
		if err != nil {
			return nil, err
		}
		d, err := detect.NewOllamaDetector(cfg.GetOllamaURL(), cfg.GetOllamaModel(), cfg.GetMaxImageDim(), cfg.GetDetectTimeout())
		if err != nil {
			return nil, err
		}
		foods, err := d.Detect(ctx, img)
		if err != nil {
			return nil, fmt.Errorf("detection failed: %w", err)
		}
		monitoring.Logf("detector found %d item(s) in %s", len(foods), o.ImagePath)
		return foods, nil
	default:
		return nil, errors.New("one of -detections or -image is required")
	}
}

// loadEvents returns no events, and no error, when no weight source is given.
func loadEvents(ctx context.Context, o options, cfg *config.TuningConfig, truth []float64) ([]align.WeightEvent, error) {
	sources := 0
	for _, s := range []string{o.WeightsPath, o.PortPath, o.Simulate} {
		if s != "" {
			sources++
		}
	}
	if sources > 1 {
		return nil, errors.New("use only one of -weights, -port and -simulate")
	}

	switch {
	case o.WeightsPath != "":
		f, err := os.Open(o.WeightsPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return scale.DecodeEvents(f)
	case o.PortPath != "":
		port, err := scale.OpenPort(o.PortPath, scale.PortOptions{BaudRate: cfg.GetScaleBaudRate()})
		if err != nil {
			return nil, err
		}
		defer port.Close()
		monitoring.Logf("capturing from %s, press Ctrl-C to stop", o.PortPath)
		return scale.NewStream(port, cfg.GetScaleIdleTimeout()).Capture(ctx)
	case o.Simulate != "":
		anomaly, err := scale.ParseAnomaly(o.Simulate)
		if err != nil {
			return nil, err
		}
		if len(truth) == 0 {
			return nil, errors.New("-simulate needs -truth weights")
		}
		return scale.NewSimulator(scale.DefaultNoiseLevel, o.Seed).WithAnomaly(truth, anomaly), nil
	default:
		monitoring.Logf("no weight source given, all items will be unmatched")
		return nil, nil
	}
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// parseCSVFloatSlice parses a comma-separated list of floats
func parseCSVFloatSlice(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float '%s': %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
