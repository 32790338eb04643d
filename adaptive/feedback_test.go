package adaptive

import (
	"errors"
	"fmt"
	"math"

	check "gopkg.in/check.v1"

	"github.com/mycok/uRoute/history"
	histmemory "github.com/mycok/uRoute/history/store/memory"
	"github.com/mycok/uRoute/roadgraph/graph"
)

var _ = check.Suite(new(FeedbackTestSuite))

type FeedbackTestSuite struct {
	persister *histmemory.InMemoryPersister
	eng       *Engine
}

func (s *FeedbackTestSuite) SetUpTest(c *check.C) {
	s.persister = histmemory.NewInMemoryPersister()

	eng, err := NewEngine(Config{Graph: lineGraph(c), Persister: s.persister})
	c.Assert(err, check.IsNil)
	s.eng = eng
}

func (s *FeedbackTestSuite) TestTripDelay(c *check.C) {
	testCases := []struct {
		actual, expected float64
		exp              float64
	}{
		{actual: 30, expected: 20, exp: 0.5},
		{actual: 20, expected: 20, exp: 0},
		{actual: 10, expected: 20, exp: 0},
		{actual: 30, expected: 0, exp: 0},
		{actual: 30, expected: -5, exp: 0},
	}

	for i, tc := range testCases {
		c.Assert(tripDelay(tc.actual, tc.expected), check.Equals, tc.exp, check.Commentf("test case %d", i))
	}
}

func (s *FeedbackTestSuite) TestEarlyArrivalEarnsNoBonus(c *check.C) {
	c.Assert(s.eng.RecordRouteFeedback([]graph.NodeID{0, 1, 2}, 5, 20, true), check.IsNil)

	rec, exists := s.eng.EdgeHistory(history.EdgeKey{From: 1, To: 2})
	c.Assert(exists, check.Equals, true)
	c.Assert(rec, check.Equals, history.Record{UsageCount: 1})
}

func (s *FeedbackTestSuite) TestFailedTripUpdatesEveryEdge(c *check.C) {
	c.Assert(s.eng.RecordRouteFeedback([]graph.NodeID{0, 1, 2}, 40, 20, false), check.IsNil)

	for _, key := range []history.EdgeKey{{From: 0, To: 1}, {From: 1, To: 2}} {
		rec, exists := s.eng.EdgeHistory(key)
		c.Assert(exists, check.Equals, true)
		c.Assert(rec.UsageCount, check.Equals, 1)
		c.Assert(rec.TotalFailures, check.Equals, 1)
		c.Assert(rec.FailureRate, check.Equals, 1.0)
		c.Assert(rec.AverageDelay, check.Equals, 1.0)
	}

	_, exists := s.eng.EdgeHistory(history.EdgeKey{From: 1, To: 0})
	c.Assert(exists, check.Equals, false)
}

func (s *FeedbackTestSuite) TestRepeatedNodesObserveEdgeTwice(c *check.C) {
	c.Assert(s.eng.RecordRouteFeedback([]graph.NodeID{0, 1, 0, 1}, 20, 20, true), check.IsNil)

	rec, _ := s.eng.EdgeHistory(history.EdgeKey{From: 0, To: 1})
	c.Assert(rec.UsageCount, check.Equals, 2)

	rec, _ = s.eng.EdgeHistory(history.EdgeKey{From: 1, To: 0})
	c.Assert(rec.UsageCount, check.Equals, 1)
}

func (s *FeedbackTestSuite) TestShortPathsStillPersist(c *check.C) {
	c.Assert(s.eng.RecordRouteFeedback(nil, 30, 20, true), check.IsNil)
	c.Assert(s.eng.RecordRouteFeedback([]graph.NodeID{2}, 30, 20, false), check.IsNil)

	c.Assert(s.persister.Saves(), check.Equals, 2)
	c.Assert(s.eng.EdgeHistorySummary().TotalEdgesTracked, check.Equals, 0)
}

func (s *FeedbackTestSuite) TestSnapshotIsPersisted(c *check.C) {
	c.Assert(s.eng.RecordRouteFeedback([]graph.NodeID{0, 1, 2}, 30, 20, true), check.IsNil)

	saved, err := s.persister.Load()
	c.Assert(err, check.IsNil)
	c.Assert(saved, check.HasLen, 2)
	c.Assert(saved[history.EdgeKey{From: 0, To: 1}], check.Equals, history.Record{
		UsageCount: 1, TotalDelay: 0.5, AverageDelay: 0.5,
	})
}

func (s *FeedbackTestSuite) TestNonFiniteTimesAreRejected(c *check.C) {
	for _, times := range [][2]float64{
		{math.NaN(), 20},
		{30, math.Inf(1)},
		{math.Inf(-1), 20},
	} {
		err := s.eng.RecordRouteFeedback([]graph.NodeID{0, 1}, times[0], times[1], true)
		c.Assert(errors.Is(err, ErrInvalidFeedback), check.Equals, true)
	}

	c.Assert(s.persister.Saves(), check.Equals, 0)
	c.Assert(s.eng.EdgeHistorySummary().TotalEdgesTracked, check.Equals, 0)
}

func (s *FeedbackTestSuite) TestOverflowingDelayIsRejected(c *check.C) {
	err := s.eng.RecordRouteFeedback([]graph.NodeID{0, 1}, 1e300, 1e-300, true)
	c.Assert(errors.Is(err, ErrInvalidFeedback), check.Equals, true)
	c.Assert(err, check.ErrorMatches, ".*trip delay overflows")

	c.Assert(s.persister.Saves(), check.Equals, 0)
	_, exists := s.eng.EdgeHistory(history.EdgeKey{From: 0, To: 1})
	c.Assert(exists, check.Equals, false)

	// The rejected trip leaves nothing behind that would break later saves.
	c.Assert(s.eng.RecordRouteFeedback([]graph.NodeID{0, 1}, 30, 20, true), check.IsNil)
	c.Assert(s.persister.Saves(), check.Equals, 1)
}

func (s *FeedbackTestSuite) TestPersistFailureKeepsLearnedState(c *check.C) {
	eng, err := NewEngine(Config{
		Graph:     lineGraph(c),
		Persister: &stubPersister{saveErr: fmt.Errorf("%w: disk full", history.ErrHistoryPersist)},
	})
	c.Assert(err, check.IsNil)

	err = eng.RecordRouteFeedback([]graph.NodeID{0, 1, 2}, 30, 20, true)
	c.Assert(errors.Is(err, history.ErrHistoryPersist), check.Equals, true)
	c.Assert(err, check.ErrorMatches, "record route feedback: .*disk full")

	rec, exists := eng.EdgeHistory(history.EdgeKey{From: 0, To: 1})
	c.Assert(exists, check.Equals, true)
	c.Assert(rec.UsageCount, check.Equals, 1)
}
