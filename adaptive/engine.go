/*
	adaptive package implements a label-setting shortest path search over a
	road graph whose edge costs combine static road attributes with
	historical trip performance, together with the feedback ingestion that
	maintains that history.
*/

package adaptive

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/mycok/uRoute/history"
	"github.com/mycok/uRoute/roadgraph/graph"
)

// Stats describes the work performed by a single route search.
type Stats struct {
	NodesExplored     int // Nodes settled by the search
	EdgesExamined     int // Outgoing edges enumerated from settled nodes
	PathLength        int // Number of nodes in the returned path
	HistoryInfluenced int // Edge costs that history contributed to
}

// Result is the outcome of a route search. When no route exists Path is
// nil and TotalCost is +Inf.
type Result struct {
	Path      []graph.NodeID
	TotalCost float64
	Stats     Stats
}

// Found reports whether the search produced a route.
func (r Result) Found() bool { return len(r.Path) != 0 }

// Engine finds routes under the adaptive cost function and learns from trip
// feedback. Searches may run concurrently with each other and with feedback
// ingestion; feedback calls are serialized.
type Engine struct {
	config Config
	policy Policy
	store  *history.Store

	// Serializes feedback ingestion so that snapshots reach storage in
	// the order they were produced.
	feedbackMu sync.Mutex

	statsMu   sync.Mutex
	lastStats Stats
}

// NewEngine loads the persisted edge history and returns a ready to use
// engine.
func NewEngine(config Config) (*Engine, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("adaptive engine: config validation failed: %w", err)
	}

	records, err := config.Persister.Load()
	if err != nil {
		if !config.DiscardCorruptHistory || !errors.Is(err, history.ErrHistoryLoad) {
			return nil, fmt.Errorf("adaptive engine: %w", err)
		}

		config.Logger.WithField("err", err).Warn("discarding unreadable edge history and starting fresh")
		records = nil
	}

	e := &Engine{
		config: config,
		policy: *config.Policy,
		store:  history.NewStore(records),
	}

	config.Logger.WithFields(logrus.Fields{
		"vehicle":       config.Vehicle,
		"edges_tracked": e.store.Len(),
	}).Info("loaded edge history")

	return e, nil
}

// Close releases the history persister.
func (e *Engine) Close() error {
	return e.config.Persister.Close()
}

// Vehicle returns the vehicle class used by FindOptimalPath.
func (e *Engine) Vehicle() VehicleClass { return e.config.Vehicle }

// FindOptimalPath finds the minimum cost route from start to end for the
// engine's configured vehicle class.
func (e *Engine) FindOptimalPath(start, end graph.NodeID) (Result, error) {
	return e.FindPath(start, end, e.config.Vehicle)
}

// FindPath finds the minimum cost route from start to end for vehicle. A
// missing route is not an error; see Result.Found.
func (e *Engine) FindPath(start, end graph.NodeID, vehicle VehicleClass) (Result, error) {
	if !vehicle.valid() {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownVehicle, vehicle)
	}

	if !e.config.Graph.HasNode(start) {
		return Result{}, fmt.Errorf("start node %d: %w", start, ErrInvalidNode)
	}

	if !e.config.Graph.HasNode(end) {
		return Result{}, fmt.Errorf("end node %d: %w", end, ErrInvalidNode)
	}

	// The history is read under the store's read lock for the whole search
	// so that concurrent feedback cannot change costs mid-search.
	var res Result
	e.store.View(func(snap history.Snapshot) {
		res = e.search(start, end, vehicle, snap)
	})

	e.statsMu.Lock()
	e.lastStats = res.Stats
	e.statsMu.Unlock()

	fields := logrus.Fields{
		"start":              start,
		"end":                end,
		"vehicle":            vehicle,
		"found":              res.Found(),
		"nodes_explored":     res.Stats.NodesExplored,
		"edges_examined":     res.Stats.EdgesExamined,
		"history_influenced": res.Stats.HistoryInfluenced,
	}
	if res.Found() {
		fields["total_cost"] = res.TotalCost
	}
	e.config.Logger.WithFields(fields).Debug("route search completed")

	return res, nil
}

func (e *Engine) search(start, end graph.NodeID, vehicle VehicleClass, snap history.Snapshot) Result {
	var (
		stats   Stats
		nodeIDs = e.config.Graph.NodeIDs()
		costs   = make(map[graph.NodeID]float64, len(nodeIDs))
		parents = make(map[graph.NodeID]graph.NodeID, len(nodeIDs))
		settled = make(map[graph.NodeID]bool, len(nodeIDs))
		front   frontier
	)

	for _, id := range nodeIDs {
		costs[id] = math.Inf(1)
	}
	costs[start] = 0

	front.push(start, 0)

	for !front.empty() {
		u := front.pop().node
		if settled[u] {
			// Stale entry superseded by a cheaper one.
			continue
		}

		settled[u] = true
		stats.NodesExplored++

		if u == end {
			break
		}

		for _, edge := range e.config.Graph.Neighbors(u) {
			stats.EdgesExamined++

			v := edge.To
			if settled[v] {
				continue
			}

			edgeCost, influenced := e.policy.EdgeCost(edge, vehicle, snap)
			if influenced {
				stats.HistoryInfluenced++
			}

			if newCost := costs[u] + edgeCost; newCost < tentativeCost(costs, v) {
				costs[v] = newCost
				parents[v] = u
				front.push(v, newCost)
			}
		}
	}

	if !settled[end] {
		return Result{TotalCost: math.Inf(1), Stats: stats}
	}

	path := reconstructPath(parents, start, end)
	if path == nil {
		return Result{TotalCost: math.Inf(1), Stats: stats}
	}

	stats.PathLength = len(path)

	return Result{Path: path, TotalCost: costs[end], Stats: stats}
}

// tentativeCost returns the current cost estimate for v. Nodes that the graph
// did not list in NodeIDs are treated as undiscovered.
func tentativeCost(costs map[graph.NodeID]float64, v graph.NodeID) float64 {
	if c, exists := costs[v]; exists {
		return c
	}

	return math.Inf(1)
}

// reconstructPath follows parent links back from end to start. It returns
// nil if end is not linked to start.
func reconstructPath(parents map[graph.NodeID]graph.NodeID, start, end graph.NodeID) []graph.NodeID {
	var path []graph.NodeID
	for cur := end; ; {
		path = append(path, cur)
		if cur == start {
			break
		}

		prev, exists := parents[cur]
		if !exists {
			return nil
		}
		cur = prev
	}

	// Reverse path slice in place to form path from start->end.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return path
}

// Statistics returns the stats of the most recent search.
func (e *Engine) Statistics() Stats {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()

	return e.lastStats
}

// EdgeHistorySummary summarizes the learned edge history.
func (e *Engine) EdgeHistorySummary() history.Summary {
	return e.store.Summary()
}

// EdgeHistory returns a copy of the history record for an edge.
func (e *Engine) EdgeHistory(key history.EdgeKey) (history.Record, bool) {
	return e.store.Lookup(key)
}
