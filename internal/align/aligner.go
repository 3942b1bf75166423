// Package align pairs food items detected in a tray image with the weight
// increments recorded by the tray scale as each item is lifted.
//
// Detections are ordered spatially, increments temporally, and a minimum-cost
// bipartite matching over a combined positional/weight cost picks the pairs.
// When the two sources disagree in count one of three policies fills in the
// gaps so that every detection receives exactly one weight.
package align

import (
	"errors"
	"fmt"
	"math"
)

const (
	DefaultSpatialWeight  = 0.6
	DefaultTemporalWeight = 0.4
	// DefaultDensityFactor converts box area (px²) to grams. It is an
	// uncalibrated placeholder and must be tuned per camera and tray.
	DefaultDensityFactor = 0.1
)

// Config is the immutable tuning of an Aligner.
type Config struct {
	// SpatialWeight scales the positional-order term of the pairing cost.
	SpatialWeight float64
	// TemporalWeight scales the weight/area consistency term.
	TemporalWeight float64
	// NoiseFloor drops increments at or below this many grams.
	NoiseFloor float64
	// DensityFactor is grams per square pixel of bounding box.
	DensityFactor float64
	// StrictEvents rejects weight sequences that fail ValidateEvents instead
	// of letting them propagate into the deltas.
	StrictEvents bool
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		SpatialWeight:  DefaultSpatialWeight,
		TemporalWeight: DefaultTemporalWeight,
		NoiseFloor:     DefaultNoiseFloor,
		DensityFactor:  DefaultDensityFactor,
	}
}

// Validate checks that every coefficient is finite and in range.
func (c Config) Validate() error {
	check := func(name string, v float64) error {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%s must be a finite non-negative number, got %v", name, v)
		}
		return nil
	}
	if err := errors.Join(
		check("spatial_weight", c.SpatialWeight),
		check("temporal_weight", c.TemporalWeight),
		check("noise_floor", c.NoiseFloor),
		check("density_factor", c.DensityFactor),
	); err != nil {
		return err
	}
	if c.DensityFactor == 0 {
		return fmt.Errorf("density_factor must be positive")
	}
	return nil
}

// Aligner maps detections to weights. It holds no mutable state, so one
// instance can serve concurrent callers.
type Aligner struct {
	cfg Config
}

// NewAligner validates cfg and returns an Aligner using it.
func NewAligner(cfg Config) (*Aligner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid aligner config: %w", err)
	}
	return &Aligner{cfg: cfg}, nil
}

// Config returns the aligner's tuning.
func (a *Aligner) Config() Config {
	return a.cfg
}

// Align returns exactly one AlignedFood per detection, ordered by centre x.
//
// An empty detection list yields an empty result. Missing weight data yields
// all-unmatched entries. An error means this alignment failed (for example a
// malformed cost matrix) and nothing else is affected.
func (a *Aligner) Align(foods []DetectedFood, events []WeightEvent, dir SortDirection) ([]AlignedFood, error) {
	if len(foods) == 0 {
		return []AlignedFood{}, nil
	}
	if a.cfg.StrictEvents {
		if err := ValidateEvents(events); err != nil {
			return nil, err
		}
	}

	sorted := sortIndexed(indexFoods(foods), dir)
	incs := ExtractIncrements(events, a.cfg.NoiseFloor)

	var (
		out []AlignedFood
		err error
	)
	switch SelectPolicy(len(sorted), len(incs)) {
	case NoWeights:
		out = a.cfg.alignNoWeights(sorted)
	case OneToOne:
		out, err = a.cfg.alignOneToOne(sorted, incs)
	case MissingWeights:
		out, err = a.cfg.alignMissingWeights(sorted, incs)
	case ExtraWeights:
		out, err = a.cfg.alignExtraWeights(sorted, incs)
	}
	if err != nil {
		return nil, err
	}

	sortByCenterX(out)
	return out, nil
}
