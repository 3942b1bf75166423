// Package scale turns tray-scale output into the weight event sequences
// consumed by the aligner.
//
// A scale reports its settled cumulative load one reading per line, either as
// a JSON object or as a "timestamp,weight" CSV pair. Weights may carry a g,
// kg, oz or lb suffix (a JSON reading names it in "unit") and are converted
// to grams. Readings can come from a serial port, a file, or the Simulator.
package scale

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/tray.report/internal/align"
	"github.com/banshee-data/tray.report/internal/units"
)

// ErrMalformedReading is returned for lines that are neither a JSON reading
// nor a timestamp,grams pair.
var ErrMalformedReading = errors.New("malformed scale reading")

// Reading is one settled cumulative load reported by the scale.
type Reading struct {
	Timestamp  float64 `json:"timestamp"`
	Cumulative float64 `json:"cumulative_weight"`
}

// ParseReading decodes a single line of scale output.
func ParseReading(line string) (Reading, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Reading{}, fmt.Errorf("%w: empty line", ErrMalformedReading)
	}

	var r Reading
	if strings.HasPrefix(line, "{") {
		var raw struct {
			Timestamp  *float64 `json:"timestamp"`
			Cumulative *float64 `json:"cumulative_weight"`
			Unit       string   `json:"unit"`
		}
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			return Reading{}, fmt.Errorf("%w: %v", ErrMalformedReading, err)
		}
		if raw.Timestamp == nil || raw.Cumulative == nil {
			return Reading{}, fmt.Errorf("%w: missing timestamp or cumulative_weight", ErrMalformedReading)
		}
		grams, err := units.ToGrams(*raw.Cumulative, strings.ToLower(raw.Unit))
		if err != nil {
			return Reading{}, fmt.Errorf("%w: %v", ErrMalformedReading, err)
		}
		r = Reading{Timestamp: *raw.Timestamp, Cumulative: grams}
	} else {
		parts := strings.Split(line, ",")
		if len(parts) != 2 {
			return Reading{}, fmt.Errorf("%w: %q", ErrMalformedReading, line)
		}
		ts, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return Reading{}, fmt.Errorf("%w: timestamp: %v", ErrMalformedReading, err)
		}
		cum, err := units.ParseMass(parts[1])
		if err != nil {
			return Reading{}, fmt.Errorf("%w: weight: %v", ErrMalformedReading, err)
		}
		r = Reading{Timestamp: ts, Cumulative: cum}
	}

	if math.IsNaN(r.Timestamp) || math.IsInf(r.Timestamp, 0) ||
		math.IsNaN(r.Cumulative) || math.IsInf(r.Cumulative, 0) {
		return Reading{}, fmt.Errorf("%w: non-finite value", ErrMalformedReading)
	}
	return r, nil
}

// EventsFromReadings prepends the zero baseline and derives each delta from
// the previous cumulative reading. No readings yields no events.
func EventsFromReadings(readings []Reading) []align.WeightEvent {
	if len(readings) == 0 {
		return nil
	}
	events := make([]align.WeightEvent, 0, len(readings)+1)
	events = append(events, align.Baseline)
	prev := 0.0
	for _, r := range readings {
		events = append(events, align.WeightEvent{
			Timestamp:        r.Timestamp,
			CumulativeWeight: r.Cumulative,
			DeltaWeight:      r.Cumulative - prev,
		})
		prev = r.Cumulative
	}
	return events
}
