/*
	history package maintains per-edge performance statistics collected from
	completed delivery trips. The statistics are read by route searches and
	updated by feedback ingestion.
*/

package history

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mycok/uRoute/roadgraph/graph"
)

// EdgeKey identifies the history of one directed road segment. Endpoints are
// never normalized: (a, b) and (b, a) are distinct keys.
type EdgeKey struct {
	From graph.NodeID
	To   graph.NodeID
}

// KeyOf returns the history key for the specified edge.
func KeyOf(e graph.Edge) EdgeKey {
	return EdgeKey{From: e.From, To: e.To}
}

// String renders the key as "from-to". It is only used at persistence
// boundaries.
func (k EdgeKey) String() string {
	return strconv.FormatInt(int64(k.From), 10) + "-" + strconv.FormatInt(int64(k.To), 10)
}

// Less orders keys by source node, then by destination node.
func (k EdgeKey) Less(other EdgeKey) bool {
	if k.From != other.From {
		return k.From < other.From
	}

	return k.To < other.To
}

// ParseEdgeKey parses a key rendered by EdgeKey.String.
func ParseEdgeKey(s string) (EdgeKey, error) {
	// Node IDs may be negative, so split on the first separator that
	// follows at least one character.
	idx := strings.Index(s[min(1, len(s)):], "-")
	if idx < 0 {
		return EdgeKey{}, fmt.Errorf("malformed edge key %q", s)
	}
	idx += min(1, len(s))

	from, err := strconv.ParseInt(s[:idx], 10, 64)
	if err != nil {
		return EdgeKey{}, fmt.Errorf("malformed edge key %q: %w", s, err)
	}

	to, err := strconv.ParseInt(s[idx+1:], 10, 64)
	if err != nil {
		return EdgeKey{}, fmt.Errorf("malformed edge key %q: %w", s, err)
	}

	return EdgeKey{From: graph.NodeID(from), To: graph.NodeID(to)}, nil
}

// Record holds the accumulated performance statistics of one edge.
//
// AverageDelay and FailureRate are derived from the accumulators and are
// recomputed by Observe, which is the only way a record changes.
type Record struct {
	UsageCount    int     `json:"usage_count"`
	TotalDelay    float64 `json:"total_delay"`
	AverageDelay  float64 `json:"average_delay"`
	TotalFailures int     `json:"total_failures"`
	FailureRate   float64 `json:"failure_rate"`
}

// Observe folds a single trip observation into the record.
//
// The previous delay accumulator is scaled by decayFactor^(1/(n+1)) where n
// is the new usage count. The exponent shrinks as samples accumulate, so a
// mature edge forgets less per update than a young one.
func (r *Record) Observe(delay float64, success bool, decayFactor float64) {
	newCount := r.UsageCount + 1
	decay := math.Pow(decayFactor, 1/float64(newCount+1))

	r.TotalDelay = r.TotalDelay*decay + delay
	r.AverageDelay = r.TotalDelay / float64(newCount)

	if !success {
		r.TotalFailures++
	}
	r.FailureRate = float64(r.TotalFailures) / float64(newCount)

	r.UsageCount = newCount
}

// Reliability returns the ranking score used by summaries. Lower is better.
func (r Record) Reliability() float64 {
	return r.AverageDelay + r.FailureRate
}
