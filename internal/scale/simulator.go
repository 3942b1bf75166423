package scale

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/banshee-data/tray.report/internal/align"
)

// DefaultNoiseLevel is the standard deviation of simulated scale noise in grams.
const DefaultNoiseLevel = 0.5

// Anomaly is a sensor fault injected by the Simulator.
type Anomaly int

const (
	// NoAnomaly produces one event per take.
	NoAnomaly Anomaly = iota
	// Missing drops one take, as if the scale missed it.
	Missing
	// Extra inserts a 10-30 g spurious take.
	Extra
	// Merged combines two consecutive takes into one event.
	Merged
)

func (a Anomaly) String() string {
	switch a {
	case NoAnomaly:
		return "none"
	case Missing:
		return "missing"
	case Extra:
		return "extra"
	case Merged:
		return "merged"
	default:
		return fmt.Sprintf("Anomaly(%d)", int(a))
	}
}

// ParseAnomaly accepts the names produced by Anomaly.String.
func ParseAnomaly(s string) (Anomaly, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return NoAnomaly, nil
	case "missing":
		return Missing, nil
	case "extra":
		return Extra, nil
	case "merged":
		return Merged, nil
	}
	return NoAnomaly, fmt.Errorf("unknown anomaly %q", s)
}

// Simulator generates plausible weight event sequences for a list of true
// item weights. The same seed always yields the same sequence.
type Simulator struct {
	rng      *rand.Rand
	noise    distuv.Normal
	interval distuv.Uniform
	extra    distuv.Uniform
}

// NewSimulator returns a Simulator adding Gaussian noise of noiseLevel grams
// to every take.
func NewSimulator(noiseLevel float64, seed uint64) *Simulator {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &Simulator{
		rng:      rand.New(src),
		noise:    distuv.Normal{Mu: 0, Sigma: noiseLevel, Src: src},
		interval: distuv.Uniform{Min: 0.5, Max: 2.0, Src: src},
		extra:    distuv.Uniform{Min: 10, Max: 30, Src: src},
	}
}

// Sequence simulates the items being lifted in order, 0.5-2 s apart.
func (s *Simulator) Sequence(weights []float64) []align.WeightEvent {
	events := make([]align.WeightEvent, 0, len(weights)+1)
	events = append(events, align.Baseline)

	var t, cum float64
	for _, w := range weights {
		t += s.interval.Rand()
		delta := w + s.noise.Rand()
		cum += delta
		events = append(events, align.WeightEvent{
			Timestamp:        t,
			CumulativeWeight: cum,
			DeltaWeight:      delta,
		})
	}
	return events
}

// WithAnomaly simulates the takes with fault a applied. Missing and Merged
// need at least two weights and fall back to a clean sequence otherwise.
func (s *Simulator) WithAnomaly(weights []float64, a Anomaly) []align.WeightEvent {
	takes := append([]float64(nil), weights...)
	switch a {
	case Missing:
		if len(takes) > 1 {
			skip := s.rng.IntN(len(takes))
			takes = append(takes[:skip], takes[skip+1:]...)
		}
	case Extra:
		pos := 0
		if len(takes) > 0 {
			pos = s.rng.IntN(len(takes))
		}
		takes = append(takes[:pos], append([]float64{s.extra.Rand()}, takes[pos:]...)...)
	case Merged:
		if len(takes) >= 2 {
			i := s.rng.IntN(len(takes) - 1)
			takes[i] += takes[i+1]
			takes = append(takes[:i+1], takes[i+2:]...)
		}
	}
	return s.Sequence(takes)
}
