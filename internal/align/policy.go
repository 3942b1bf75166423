package align

import (
	"fmt"
	"sort"

	"github.com/banshee-data/tray.report/internal/monitoring"
)

const (
	// VisualEstimateConfidence is the fixed score given to items whose weight
	// was estimated from their area because no sensor event was left for them.
	VisualEstimateConfidence = 0.3

	// MergeRatio flags a delta as a merge candidate (several items lifted in
	// one take) when it exceeds this multiple of the median delta.
	MergeRatio = 1.8
)

var logf = monitoring.Component("align")

// Policy is the count-mismatch branch chosen for one alignment.
type Policy int

const (
	// NoWeights: the sensor produced no usable increments.
	NoWeights Policy = iota
	// OneToOne: as many increments as detections.
	OneToOne
	// MissingWeights: more detections than increments (sensor missed a take).
	MissingWeights
	// ExtraWeights: more increments than detections (noise or merged takes).
	ExtraWeights
)

func (p Policy) String() string {
	switch p {
	case NoWeights:
		return "no_weights"
	case OneToOne:
		return "one_to_one"
	case MissingWeights:
		return "missing_weights"
	case ExtraWeights:
		return "extra_weights"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// SelectPolicy picks the branch purely from the detection count n and the
// increment count m.
func SelectPolicy(n, m int) Policy {
	switch {
	case m == 0:
		return NoWeights
	case n == m:
		return OneToOne
	case n > m:
		return MissingWeights
	default:
		return ExtraWeights
	}
}

func (c Config) alignNoWeights(foods []indexedFood) []AlignedFood {
	out := make([]AlignedFood, len(foods))
	for i, f := range foods {
		out[i] = AlignedFood{
			Food:             f.food,
			WeightEventIndex: NoEventIndex,
			DetectionIndex:   f.index,
		}
	}
	return out
}

func (c Config) alignOneToOne(foods []indexedFood, incs []Increment) ([]AlignedFood, error) {
	out, _, err := c.assign(foods, incs)
	return out, err
}

func (c Config) alignMissingWeights(foods []indexedFood, incs []Increment) ([]AlignedFood, error) {
	out, matched, err := c.assign(foods, incs)
	if err != nil {
		return nil, err
	}
	for i, f := range foods {
		if matched[i] {
			continue
		}
		out = append(out, AlignedFood{
			Food:             f.food,
			Weight:           c.EstimateWeight(f.food),
			WeightEventIndex: NoEventIndex,
			ConfidenceScore:  VisualEstimateConfidence,
			DetectionIndex:   f.index,
		})
	}
	return out, nil
}

// alignExtraWeights excludes merge candidates when doing so leaves exactly one
// increment per item. The excluded mass is not redistributed.
func (c Config) alignExtraWeights(foods []indexedFood, incs []Increment) ([]AlignedFood, error) {
	threshold := MergeRatio * median(incrementWeights(incs))

	var merged, normal []Increment
	for _, inc := range incs {
		if inc.Weight > threshold {
			merged = append(merged, inc)
		} else {
			normal = append(normal, inc)
		}
	}

	if len(merged) > 0 && len(normal) == len(foods) {
		logf("excluding %d merge candidate(s) above %.2fg", len(merged), threshold)
		out, _, err := c.assign(foods, normal)
		return out, err
	}
	out, _, err := c.assign(foods, incs)
	return out, err
}

// assign solves the matching between foods and incs and returns one
// AlignedFood per assigned row, in row order, plus which rows were assigned.
func (c Config) assign(foods []indexedFood, incs []Increment) ([]AlignedFood, []bool, error) {
	cost := c.costMatrix(foods, incrementWeights(incs))
	rows, err := HungarianAssign(cost)
	if err != nil {
		return nil, nil, fmt.Errorf("assignment failed: %w", err)
	}

	matched := make([]bool, len(foods))
	out := make([]AlignedFood, 0, len(foods))
	for i, j := range rows {
		if j < 0 {
			continue
		}
		matched[i] = true
		out = append(out, AlignedFood{
			Food:             foods[i].food,
			Weight:           incs[j].Weight,
			WeightEventIndex: incs[j].EventIndex,
			ConfidenceScore:  confidenceFromCost(cost.At(i, j)),
			DetectionIndex:   foods[i].index,
		})
	}
	return out, matched, nil
}

// sortByCenterX orders results left to right whatever direction was used
// for matching.
// TODO: honour the requested SortDirection here once downstream consumers
// stop assuming left-to-right output.
func sortByCenterX(aligned []AlignedFood) {
	sort.SliceStable(aligned, func(i, j int) bool {
		return aligned[i].Food.CenterX < aligned[j].Food.CenterX
	})
}
