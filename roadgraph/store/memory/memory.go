/*
Package memory includes an in-memory road graph store that implements the
graph.Graph interface.
*/
package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mycok/uRoute/roadgraph/graph"
)

// Compile-time check for ensuring InMemoryGraph implements Graph.
var _ graph.Graph = (*InMemoryGraph)(nil)

// edgeList contains the edges that originate from a node in the graph.
type edgeList []graph.Edge

// InMemoryGraph implements an in-memory road graph that can be concurrently
// accessed by multiple clients.
type InMemoryGraph struct {
	mu      sync.RWMutex
	nodes   map[graph.NodeID]struct{}
	nodeIDs []graph.NodeID
	edges   map[graph.NodeID]edgeList
}

// NewInMemoryGraph creates a new in-memory road graph.
func NewInMemoryGraph() *InMemoryGraph {
	return &InMemoryGraph{
		nodes: make(map[graph.NodeID]struct{}),
		edges: make(map[graph.NodeID]edgeList),
	}
}

// AddNode inserts a node with the specified ID. Adding an existing node is
// a no-op.
func (g *InMemoryGraph) AddNode(id graph.NodeID) {
	// Acquire a write lock to avoid data races while mutating graph data.
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[id]; exists {
		return
	}

	g.nodes[id] = struct{}{}

	// Keep the ID list ordered so that searches iterate nodes in a
	// deterministic order.
	idx := sort.Search(len(g.nodeIDs), func(i int) bool { return g.nodeIDs[i] >= id })
	g.nodeIDs = append(g.nodeIDs, 0)
	copy(g.nodeIDs[idx+1:], g.nodeIDs[idx:])
	g.nodeIDs[idx] = id
}

// AddEdge creates a directed edge. Both endpoints must already exist.
func (g *InMemoryGraph) AddEdge(edge graph.Edge) error {
	if edge.BaseDistance < 0 || edge.Metadata.TrafficFactor < 0 ||
		edge.Metadata.Quality < 0 || edge.Metadata.Quality > 1 {
		return fmt.Errorf("add edge %d -> %d: %w", edge.From, edge.To, graph.ErrInvalidEdge)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	_, srcExists := g.nodes[edge.From]
	_, destExists := g.nodes[edge.To]

	if !srcExists || !destExists {
		return fmt.Errorf("add edge %d -> %d: %w", edge.From, edge.To, graph.ErrUnknownEdgeNodes)
	}

	g.edges[edge.From] = append(g.edges[edge.From], edge)

	return nil
}

// Neighbors returns a copy of the outgoing edges of the specified node.
func (g *InMemoryGraph) Neighbors(id graph.NodeID) []graph.Edge {
	// Acquire a read lock to avoid data races while reading graph data.
	g.mu.RLock()
	defer g.mu.RUnlock()

	list := g.edges[id]
	if len(list) == 0 {
		return nil
	}

	out := make([]graph.Edge, len(list))
	copy(out, list)

	return out
}

// NodeIDs returns the IDs of all nodes in ascending order.
func (g *InMemoryGraph) NodeIDs() []graph.NodeID {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]graph.NodeID, len(g.nodeIDs))
	copy(out, g.nodeIDs)

	return out
}

// HasNode reports whether a node with the specified ID exists.
func (g *InMemoryGraph) HasNode(id graph.NodeID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, exists := g.nodes[id]

	return exists
}

// NumEdges returns the total number of directed edges in the graph.
func (g *InMemoryGraph) NumEdges() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var n int
	for _, list := range g.edges {
		n += len(list)
	}

	return n
}
