// Command tray-align pairs the food items found in a tray photo with the
// weight increments recorded by the tray scale and reports per-item weights,
// alignment metrics and, optionally, nutrition.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/tray.report/internal/version"
)

var (
	configPath     = flag.String("config", "", "Path to tuning config JSON (defaults built in when empty)")
	detectionsPath = flag.String("detections", "", "Detection batch JSON file")
	imagePath      = flag.String("image", "", "Tray photo to run through the Ollama detector")
	weightsPath    = flag.String("weights", "", "Weight event batch JSON file")
	portPath       = flag.String("port", "", "Serial device of the tray scale to capture from")
	simulate       = flag.String("simulate", "", "Simulate scale events from -truth: none, missing, extra or merged")
	seed           = flag.Uint64("seed", 1, "Seed for -simulate")
	truthList      = flag.String("truth", "", "Comma-separated true weights in grams, in detection order")
	direction      = flag.String("direction", "", "Spatial order override: left_to_right, top_to_bottom or clockwise")
	nutritionDB    = flag.String("nutrition-db", "", "sqlite nutrition database (migrated on open)")
	chartPath      = flag.String("chart", "", "Write a weight comparison chart (png, svg or pdf)")
	htmlPath       = flag.String("html", "", "Write an interactive HTML report")
	outPath        = flag.String("out", "", "Write the JSON report here; - for stdout")
	showVersion    = flag.Bool("version", false, "Print the version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := options{
		ConfigPath:     *configPath,
		DetectionsPath: *detectionsPath,
		ImagePath:      *imagePath,
		WeightsPath:    *weightsPath,
		PortPath:       *portPath,
		Simulate:       *simulate,
		Seed:           *seed,
		Truth:          *truthList,
		Direction:      *direction,
		NutritionDB:    *nutritionDB,
		ChartPath:      *chartPath,
		HTMLPath:       *htmlPath,
		OutPath:        *outPath,
	}
	if err := run(ctx, opts, os.Stdout); err != nil {
		log.Printf("tray-align: %v", err)
		stop()
		os.Exit(1)
	}
}
