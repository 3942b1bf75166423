package scale

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/banshee-data/tray.report/internal/align"
)

type batchEvent struct {
	Timestamp        float64  `json:"timestamp"`
	CumulativeWeight float64  `json:"cumulative_weight"`
	DeltaWeight      *float64 `json:"delta_weight,omitempty"`
}

// DecodeEvents reads a JSON array of weight events. A missing delta_weight is
// taken from the difference to the previous cumulative weight (zero for the
// first event).
func DecodeEvents(r io.Reader) ([]align.WeightEvent, error) {
	var raw []batchEvent
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode weight events: %w", err)
	}

	events := make([]align.WeightEvent, len(raw))
	for i, e := range raw {
		ev := align.WeightEvent{
			Timestamp:        e.Timestamp,
			CumulativeWeight: e.CumulativeWeight,
		}
		switch {
		case e.DeltaWeight != nil:
			ev.DeltaWeight = *e.DeltaWeight
		case i > 0:
			ev.DeltaWeight = e.CumulativeWeight - raw[i-1].CumulativeWeight
		}
		events[i] = ev
	}
	return events, nil
}
