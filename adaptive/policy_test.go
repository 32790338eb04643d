package adaptive

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"

	check "gopkg.in/check.v1"

	"github.com/mycok/uRoute/history"
	"github.com/mycok/uRoute/roadgraph/graph"
)

var _ = check.Suite(new(PolicyTestSuite))

type PolicyTestSuite struct{}

func (s *PolicyTestSuite) TestSurfacePenalties(c *check.C) {
	p := DefaultPolicy()

	testCases := []struct {
		quality float64
		vehicle VehicleClass
		exp     float64
	}{
		{quality: 1.0, vehicle: VehicleBoda, exp: 10},
		{quality: 0.85, vehicle: VehicleBajaji, exp: 10},
		{quality: 0.84, vehicle: VehicleBoda, exp: 11},
		{quality: 0.75, vehicle: VehicleBajaji, exp: 13},
		{quality: 0.74, vehicle: VehicleBoda, exp: 13},
		{quality: 0.2, vehicle: VehicleBajaji, exp: 18},
	}

	for i, tc := range testCases {
		e := graph.Edge{From: 0, To: 1, BaseDistance: 10, Metadata: graph.Metadata{TrafficFactor: 1, Quality: tc.quality}}
		cost, influenced := p.EdgeCost(e, tc.vehicle, nil)

		c.Assert(influenced, check.Equals, false)
		assertClose(c, cost, tc.exp, fmt.Sprintf("test case %d", i))
	}
}

func (s *PolicyTestSuite) TestTrafficScalesBaseCost(c *check.C) {
	e := graph.Edge{BaseDistance: 4, Metadata: graph.Metadata{TrafficFactor: 2.5, Quality: 1}}
	c.Assert(DefaultPolicy().BaseCost(e, VehicleBoda), check.Equals, 10.0)
}

func (s *PolicyTestSuite) TestHistoryGating(c *check.C) {
	p := DefaultPolicy()
	e := graph.Edge{From: 3, To: 7, BaseDistance: 10, Metadata: graph.DefaultMetadata()}

	// Terrible history below MinSamples must not change the cost.
	st := history.NewStore(map[history.EdgeKey]history.Record{
		history.KeyOf(e): {UsageCount: p.MinSamples - 1, TotalDelay: 50, AverageDelay: 25, TotalFailures: 2, FailureRate: 1},
	})

	st.View(func(snap history.Snapshot) {
		cost, influenced := p.EdgeCost(e, VehicleBoda, snap)
		c.Assert(influenced, check.Equals, false)
		c.Assert(cost, check.Equals, p.BaseCost(e, VehicleBoda))
	})
}

func (s *PolicyTestSuite) TestHistoricalPenalty(c *check.C) {
	p := DefaultPolicy()
	e := graph.Edge{From: 0, To: 1, BaseDistance: 10, Metadata: graph.DefaultMetadata()}

	testCases := []struct {
		rec history.Record
		exp float64
	}{
		// confidence 0.5: 1 + 0.3 * 0.5 * (0.4 + 2 * 0.2)
		{rec: history.Record{UsageCount: 5, AverageDelay: 0.4, FailureRate: 0.2}, exp: 10 * 1.12},
		// confidence saturates at 1: 1 + 0.3 * (1 + 2 * 0.5)
		{rec: history.Record{UsageCount: 40, AverageDelay: 1, FailureRate: 0.5}, exp: 10 * 1.6},
		// clean history leaves the cost unchanged but still counts.
		{rec: history.Record{UsageCount: 3}, exp: 10},
	}

	for i, tc := range testCases {
		st := history.NewStore(map[history.EdgeKey]history.Record{history.KeyOf(e): tc.rec})
		st.View(func(snap history.Snapshot) {
			cost, influenced := p.EdgeCost(e, VehicleBoda, snap)
			c.Assert(influenced, check.Equals, true, check.Commentf("test case %d", i))
			assertClose(c, cost, tc.exp, fmt.Sprintf("test case %d", i))
		})
	}
}

func (s *PolicyTestSuite) TestHistoryIsDirectional(c *check.C) {
	p := DefaultPolicy()
	fwd := graph.Edge{From: 0, To: 1, BaseDistance: 10, Metadata: graph.DefaultMetadata()}
	rev := graph.Edge{From: 1, To: 0, BaseDistance: 10, Metadata: graph.DefaultMetadata()}

	st := history.NewStore(map[history.EdgeKey]history.Record{
		history.KeyOf(fwd): {UsageCount: 10, AverageDelay: 1, FailureRate: 1},
	})

	st.View(func(snap history.Snapshot) {
		_, influenced := p.EdgeCost(rev, VehicleBoda, snap)
		c.Assert(influenced, check.Equals, false)
	})
}

func (s *PolicyTestSuite) TestCostNeverBelowBaseCost(c *check.C) {
	rng := rand.New(rand.NewSource(42))
	p := DefaultPolicy()

	for i := 0; i < 500; i++ {
		e := graph.Edge{
			From:         graph.NodeID(rng.Intn(20)),
			To:           graph.NodeID(rng.Intn(20)),
			BaseDistance: rng.Float64() * 100,
			Metadata:     graph.Metadata{TrafficFactor: rng.Float64() * 3, Quality: rng.Float64()},
		}

		var rec history.Record
		for n := rng.Intn(15); n > 0; n-- {
			rec.Observe(rng.Float64()*2, rng.Intn(3) != 0, p.DecayFactor)
		}

		vehicle := VehicleBoda
		if rng.Intn(2) == 0 {
			vehicle = VehicleBajaji
		}

		st := history.NewStore(map[history.EdgeKey]history.Record{history.KeyOf(e): rec})
		st.View(func(snap history.Snapshot) {
			cost, influenced := p.EdgeCost(e, vehicle, snap)
			base := p.BaseCost(e, vehicle)

			c.Assert(cost >= base, check.Equals, true, check.Commentf("iteration %d: %v < %v", i, cost, base))
			c.Assert(influenced, check.Equals, rec.UsageCount >= p.MinSamples, check.Commentf("iteration %d", i))
			if !influenced {
				c.Assert(cost, check.Equals, base)
			}
		})
	}
}

func (s *PolicyTestSuite) TestLoadPolicy(c *check.C) {
	p, err := LoadPolicy(strings.NewReader(""))
	c.Assert(err, check.IsNil)
	c.Assert(p, check.DeepEquals, DefaultPolicy())

	doc := `
historical_weight: 0.5
min_samples: 5
vehicle_penalties:
  bajaji:
    medium: 1.4
    low: 2.0
`
	p, err = LoadPolicy(strings.NewReader(doc))
	c.Assert(err, check.IsNil)
	c.Assert(p.HistoricalWeight, check.Equals, 0.5)
	c.Assert(p.MinSamples, check.Equals, 5)
	c.Assert(p.DecayFactor, check.Equals, 0.95)
	c.Assert(p.VehiclePenalties[VehicleBajaji], check.Equals, SurfacePenalties{Medium: 1.4, Low: 2.0})
	c.Assert(p.VehiclePenalties[VehicleBoda], check.Equals, SurfacePenalties{Medium: 1.1, Low: 1.3})
}

func (s *PolicyTestSuite) TestLoadInvalidPolicy(c *check.C) {
	_, err := LoadPolicy(strings.NewReader("decay_factor: 1.5\nhistorical_weight: -1\n"))
	c.Assert(err, check.ErrorMatches, "(?ms).*decay factor must be in \\(0, 1\\].*")
	c.Assert(err, check.ErrorMatches, "(?ms).*historical weight must be in \\[0, 1\\].*")

	_, err = LoadPolicy(strings.NewReader("quality_medium: 0.9\n"))
	c.Assert(err, check.ErrorMatches, "(?ms).*quality thresholds.*")

	_, err = LoadPolicy(strings.NewReader("historical_weight: [1, 2]\n"))
	c.Assert(err, check.ErrorMatches, "(?s)decode policy:.*")
}

func (s *PolicyTestSuite) TestParseVehicleClass(c *check.C) {
	for in, exp := range map[string]VehicleClass{
		"boda":          VehicleBoda,
		" Light ":       VehicleBoda,
		"two-wheeler":   VehicleBoda,
		"BAJAJI":        VehicleBajaji,
		"three-wheeler": VehicleBajaji,
		"heavy":         VehicleBajaji,
	} {
		v, err := ParseVehicleClass(in)
		c.Assert(err, check.IsNil)
		c.Assert(v, check.Equals, exp)
	}

	_, err := ParseVehicleClass("truck")
	c.Assert(errors.Is(err, ErrUnknownVehicle), check.Equals, true)
}

func assertClose(c *check.C, obtained, expected float64, label string) {
	c.Assert(math.Abs(obtained-expected) < 1e-9, check.Equals, true,
		check.Commentf("%s: obtained %v, expected %v", label, obtained, expected))
}
