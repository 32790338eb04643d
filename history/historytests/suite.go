/*
Package historytests contains re-usable test suites that can be imported and
run against any object that implements the history.Persister interface.
*/
package historytests

import (
	"math"

	check "gopkg.in/check.v1"

	"github.com/mycok/uRoute/history"
)

// BaseSuite defines a set of re-usable persistence tests that can be
// executed against any concrete type that implements history.Persister.
type BaseSuite struct {
	p history.Persister
}

// SetPersister configures the test-suite to run all tests against an
// instance of history.Persister.
func (s *BaseSuite) SetPersister(p history.Persister) {
	s.p = p
}

// TestLoadWithoutSnapshot verifies that a missing snapshot loads as an
// empty history.
func (s *BaseSuite) TestLoadWithoutSnapshot(c *check.C) {
	records, err := s.p.Load()
	c.Assert(err, check.IsNil)
	c.Assert(records, check.HasLen, 0)
}

// TestRoundTrip verifies that every record field survives a save / load
// cycle unchanged.
func (s *BaseSuite) TestRoundTrip(c *check.C) {
	orig := map[history.EdgeKey]history.Record{
		{From: 0, To: 1}: {
			UsageCount:    3,
			TotalDelay:    1.0*math.Pow(0.95, 1.0/3.0) + 0.5,
			AverageDelay:  (1.0*math.Pow(0.95, 1.0/3.0) + 0.5) / 3,
			TotalFailures: 1,
			FailureRate:   1.0 / 3.0,
		},
		{From: 1, To: 0}: {UsageCount: 1},
		{From: -7, To: 42}: {
			UsageCount:    10,
			TotalDelay:    1e-9 / 3,
			AverageDelay:  1e-9 / 30,
			TotalFailures: 10,
			FailureRate:   1,
		},
	}

	c.Assert(s.p.Save(orig), check.IsNil)

	loaded, err := s.p.Load()
	c.Assert(err, check.IsNil)
	c.Assert(loaded, check.DeepEquals, orig)
}

// TestSaveReplacesSnapshot verifies that each save rewrites the snapshot as
// a whole.
func (s *BaseSuite) TestSaveReplacesSnapshot(c *check.C) {
	first := map[history.EdgeKey]history.Record{
		{From: 0, To: 1}: {UsageCount: 1, TotalDelay: 0.5, AverageDelay: 0.5},
	}
	c.Assert(s.p.Save(first), check.IsNil)

	second := map[history.EdgeKey]history.Record{
		{From: 0, To: 1}: {UsageCount: 2, TotalDelay: 0.75, AverageDelay: 0.375},
		{From: 1, To: 2}: {UsageCount: 1, TotalFailures: 1, FailureRate: 1},
	}
	c.Assert(s.p.Save(second), check.IsNil)

	loaded, err := s.p.Load()
	c.Assert(err, check.IsNil)
	c.Assert(loaded, check.DeepEquals, second)
}

// TestSaveEmptySnapshot verifies that an empty history can be persisted.
func (s *BaseSuite) TestSaveEmptySnapshot(c *check.C) {
	c.Assert(s.p.Save(map[history.EdgeKey]history.Record{}), check.IsNil)

	loaded, err := s.p.Load()
	c.Assert(err, check.IsNil)
	c.Assert(loaded, check.HasLen, 0)
}
