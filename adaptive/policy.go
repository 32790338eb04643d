package adaptive

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/mycok/uRoute/history"
	"github.com/mycok/uRoute/roadgraph/graph"
)

// Number of observations at which history reaches full confidence.
const fullConfidenceSamples = 10.0

// SurfacePenalties holds the cost multipliers applied to a vehicle class on
// medium and low quality roads. High quality roads are never penalized.
type SurfacePenalties struct {
	Medium float64 `yaml:"medium"`
	Low    float64 `yaml:"low"`
}

// Policy holds the tunable constants of the adaptive cost function and of
// feedback ingestion.
type Policy struct {
	// How strongly history influences edge costs, in the [0, 1] range.
	HistoricalWeight float64 `yaml:"historical_weight"`

	// Forgetting rate of the delay accumulator, in the (0, 1] range.
	DecayFactor float64 `yaml:"decay_factor"`

	// Minimum number of observations before an edge's history is applied.
	MinSamples int `yaml:"min_samples"`

	// Roads with quality at or above QualityHigh are not penalized; roads
	// at or above QualityMedium get the medium penalty; anything below
	// gets the low quality penalty.
	QualityHigh   float64 `yaml:"quality_high"`
	QualityMedium float64 `yaml:"quality_medium"`

	// Surface penalties per vehicle class. Entries must specify both the
	// medium and the low penalty.
	VehiclePenalties map[VehicleClass]SurfacePenalties `yaml:"vehicle_penalties"`
}

// DefaultPolicy returns the stock policy constants.
func DefaultPolicy() Policy {
	return Policy{
		HistoricalWeight: 0.3,
		DecayFactor:      0.95,
		MinSamples:       3,
		QualityHigh:      0.85,
		QualityMedium:    0.75,
		VehiclePenalties: map[VehicleClass]SurfacePenalties{
			VehicleBoda:   {Medium: 1.1, Low: 1.3},
			VehicleBajaji: {Medium: 1.3, Low: 1.8},
		},
	}
}

// LoadPolicy reads policy overrides from a YAML document. Fields missing from
// the document keep their DefaultPolicy values.
func LoadPolicy(r io.Reader) (Policy, error) {
	p := DefaultPolicy()
	if err := yaml.NewDecoder(r).Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Policy{}, fmt.Errorf("decode policy: %w", err)
	}

	if err := p.validate(); err != nil {
		return Policy{}, fmt.Errorf("invalid policy: %w", err)
	}

	return p, nil
}

func (p Policy) validate() error {
	var err error

	if p.HistoricalWeight < 0 || p.HistoricalWeight > 1 {
		err = multierror.Append(err, fmt.Errorf("historical weight must be in [0, 1]"))
	}

	if p.DecayFactor <= 0 || p.DecayFactor > 1 {
		err = multierror.Append(err, fmt.Errorf("decay factor must be in (0, 1]"))
	}

	if p.MinSamples < 0 {
		err = multierror.Append(err, fmt.Errorf("min samples must be >= 0"))
	}

	if p.QualityMedium < 0 || p.QualityMedium > p.QualityHigh || p.QualityHigh > 1 {
		err = multierror.Append(err, fmt.Errorf("quality thresholds must satisfy 0 <= medium <= high <= 1"))
	}

	for _, v := range []VehicleClass{VehicleBoda, VehicleBajaji} {
		pen, exists := p.VehiclePenalties[v]
		if !exists {
			err = multierror.Append(err, fmt.Errorf("surface penalties for vehicle %q not provided", v))

			continue
		}

		if pen.Medium < 1 || pen.Low < 1 {
			err = multierror.Append(err, fmt.Errorf("surface penalties for vehicle %q must be >= 1", v))
		}
	}

	return err
}

// surfacePenalty returns the multiplier for driving vehicle over a road of
// the specified quality.
func (p Policy) surfacePenalty(quality float64, vehicle VehicleClass) float64 {
	pen := p.VehiclePenalties[vehicle]

	switch {
	case quality >= p.QualityHigh:
		return 1.0
	case quality >= p.QualityMedium:
		return pen.Medium
	default:
		return pen.Low
	}
}

// BaseCost returns the static cost of traversing e with vehicle.
func (p Policy) BaseCost(e graph.Edge, vehicle VehicleClass) float64 {
	return e.BaseDistance * e.Metadata.TrafficFactor * p.surfacePenalty(e.Metadata.Quality, vehicle)
}

// EdgeCost returns the adaptive cost of traversing e with vehicle given the
// edge history in snap, and whether history contributed to it.
//
// History is ignored for edges with fewer than MinSamples observations.
// Otherwise the static cost is scaled by
//
//	1 + HistoricalWeight * confidence * (AverageDelay + 2 * FailureRate)
//
// where confidence ramps linearly from 0 to 1 over the first ten
// observations. The multiplier is never below 1, so history can only make an
// edge more expensive.
func (p Policy) EdgeCost(e graph.Edge, vehicle VehicleClass, snap history.Snapshot) (float64, bool) {
	cost := p.BaseCost(e, vehicle)
	if snap == nil {
		return cost, false
	}

	rec, exists := snap.Lookup(history.KeyOf(e))
	if !exists || rec.UsageCount < p.MinSamples {
		return cost, false
	}

	confidence := math.Min(float64(rec.UsageCount)/fullConfidenceSamples, 1.0)
	penalty := 1.0 + p.HistoricalWeight*confidence*(rec.AverageDelay+2.0*rec.FailureRate)

	return cost * penalty, true
}
