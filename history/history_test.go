package history_test

import (
	"math"
	"sync"
	"testing"

	check "gopkg.in/check.v1"

	"github.com/mycok/uRoute/history"
	"github.com/mycok/uRoute/roadgraph/graph"
)

var _ = check.Suite(new(RecordTestSuite))
var _ = check.Suite(new(StoreTestSuite))

func Test(t *testing.T) {
	check.TestingT(t)
}

type RecordTestSuite struct{}

func (s *RecordTestSuite) TestFirstObservation(c *check.C) {
	var rec history.Record
	rec.Observe(0.5, true, 0.95)

	c.Assert(rec, check.DeepEquals, history.Record{
		UsageCount:   1,
		TotalDelay:   0.5,
		AverageDelay: 0.5,
	})
}

// The decay applied to the old accumulator is decayFactor^(1/(n+1)) where n
// is the new usage count, so it gets closer to 1 as the edge matures. This
// pins the behavior so that a change to it is a deliberate decision.
func (s *RecordTestSuite) TestDecayExponentShrinksWithUsage(c *check.C) {
	var rec history.Record
	rec.Observe(1.0, true, 0.95)
	rec.Observe(1.0, true, 0.95)

	expTotal := 1.0*math.Pow(0.95, 1.0/3.0) + 1.0
	c.Assert(rec.TotalDelay, check.Equals, expTotal)
	c.Assert(rec.AverageDelay, check.Equals, expTotal/2)

	rec.Observe(1.0, true, 0.95)
	expTotal = expTotal*math.Pow(0.95, 1.0/4.0) + 1.0
	c.Assert(rec.TotalDelay, check.Equals, expTotal)
	c.Assert(rec.AverageDelay, check.Equals, expTotal/3)

	// Per-update decay moves towards 1 as samples accumulate.
	c.Assert(math.Pow(0.95, 1.0/3.0) < math.Pow(0.95, 1.0/4.0), check.Equals, true)
}

func (s *RecordTestSuite) TestDerivedFieldsStayConsistent(c *check.C) {
	var rec history.Record
	delays := []float64{0.2, 0, 1.5, 0.1, 0.7}
	for i, d := range delays {
		rec.Observe(d, i%2 == 0, 0.9)

		c.Assert(rec.UsageCount, check.Equals, i+1)
		c.Assert(rec.AverageDelay, check.Equals, rec.TotalDelay/float64(rec.UsageCount))
		c.Assert(rec.FailureRate, check.Equals, float64(rec.TotalFailures)/float64(rec.UsageCount))
	}

	c.Assert(rec.TotalFailures, check.Equals, 2)
}

func (s *RecordTestSuite) TestFailureRateMonotonicity(c *check.C) {
	var rec history.Record
	rec.Observe(0, false, 0.95)
	c.Assert(rec.FailureRate, check.Equals, 1.0)

	rec = history.Record{}
	rec.Observe(0, true, 0.95)
	rec.Observe(0, true, 0.95)
	for i := 0; i < 5; i++ {
		before := rec.FailureRate
		rec.Observe(0, false, 0.95)
		c.Assert(rec.FailureRate > before, check.Equals, true, check.Commentf("iteration %d", i))
	}
}

func (s *RecordTestSuite) TestEdgeKeyRoundTrip(c *check.C) {
	keys := []history.EdgeKey{
		{From: 0, To: 1},
		{From: 12, To: 3},
		{From: -4, To: 7},
		{From: 5, To: -9},
		{From: -1, To: -2},
	}

	for _, key := range keys {
		parsed, err := history.ParseEdgeKey(key.String())
		c.Assert(err, check.IsNil)
		c.Assert(parsed, check.Equals, key)
	}

	c.Assert(history.EdgeKey{From: 1, To: 2}, check.Not(check.Equals), history.EdgeKey{From: 2, To: 1})
}

func (s *RecordTestSuite) TestParseMalformedEdgeKey(c *check.C) {
	for _, in := range []string{"", "12", "a-b", "1-", "-", "1-2-3"} {
		_, err := history.ParseEdgeKey(in)
		c.Assert(err, check.NotNil, check.Commentf("input %q", in))
	}
}

type StoreTestSuite struct{}

func (s *StoreTestSuite) TestNewStoreCopiesInput(c *check.C) {
	in := map[history.EdgeKey]history.Record{
		{From: 0, To: 1}: {UsageCount: 3, TotalDelay: 0.3, AverageDelay: 0.1},
	}

	st := history.NewStore(in)
	in[history.EdgeKey{From: 0, To: 1}] = history.Record{}

	rec, ok := st.Lookup(history.EdgeKey{From: 0, To: 1})
	c.Assert(ok, check.Equals, true)
	c.Assert(rec.UsageCount, check.Equals, 3)

	out := st.Records()
	out[history.EdgeKey{From: 0, To: 1}] = history.Record{}
	rec, _ = st.Lookup(history.EdgeKey{From: 0, To: 1})
	c.Assert(rec.UsageCount, check.Equals, 3)
}

func (s *StoreTestSuite) TestUpdateCreatesRecordsLazily(c *check.C) {
	st := history.NewStore(nil)
	c.Assert(st.Len(), check.Equals, 0)

	key := history.KeyOf(graph.Edge{From: 4, To: 2})
	st.Update(func(w history.Writer) {
		w.Observe(key, 0.25, false, 0.95)
	})

	c.Assert(st.Len(), check.Equals, 1)
	st.View(func(snap history.Snapshot) {
		rec, ok := snap.Lookup(key)
		c.Assert(ok, check.Equals, true)
		c.Assert(rec.FailureRate, check.Equals, 1.0)

		_, ok = snap.Lookup(history.EdgeKey{From: 2, To: 4})
		c.Assert(ok, check.Equals, false)
	})
}

func (s *StoreTestSuite) TestSummary(c *check.C) {
	c.Assert(history.NewStore(nil).Summary(), check.DeepEquals, history.Summary{})

	st := history.NewStore(map[history.EdgeKey]history.Record{
		{From: 0, To: 1}: {UsageCount: 2, AverageDelay: 0.4, FailureRate: 0.5},
		{From: 1, To: 2}: {UsageCount: 4, AverageDelay: 0.1},
		{From: 2, To: 3}: {UsageCount: 1, AverageDelay: 0.1},
		{From: 3, To: 4}: {UsageCount: 1, AverageDelay: 0.4},
	})

	sum := st.Summary()
	c.Assert(sum.TotalEdgesTracked, check.Equals, 4)
	c.Assert(sum.MostReliable.Key, check.Equals, history.EdgeKey{From: 1, To: 2})
	c.Assert(sum.LeastReliable.Key, check.Equals, history.EdgeKey{From: 0, To: 1})
	c.Assert(math.Abs(sum.AverageDelayAcrossAllEdges-0.25) < 1e-12, check.Equals, true)
}

func (s *StoreTestSuite) TestReadersNeverObserveHalfAppliedBatches(c *check.C) {
	st := history.NewStore(nil)
	keys := []history.EdgeKey{{From: 0, To: 1}, {From: 1, To: 2}, {From: 2, To: 3}}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			st.Update(func(w history.Writer) {
				for _, key := range keys {
					w.Observe(key, 0.1, i%3 != 0, 0.95)
				}
			})
		}
	}()

	for i := 0; i < 200; i++ {
		st.View(func(snap history.Snapshot) {
			var counts []int
			for _, key := range keys {
				rec, _ := snap.Lookup(key)
				counts = append(counts, rec.UsageCount)
			}

			c.Assert(counts[0], check.Equals, counts[1])
			c.Assert(counts[1], check.Equals, counts[2])
		})
	}

	wg.Wait()
}
