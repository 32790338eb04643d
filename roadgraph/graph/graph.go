/*
	graph package defines the types that describe a directed road graph and
	the behavior expected from road graph data sources.
*/

package graph

// NodeID identifies a location (intersection, depot, drop-off point) in the
// road graph.
type NodeID int64

// Graph should be implemented by road graph data sources. Implementations
// must return finite edge lists that stay stable for the duration of a
// single route search.
type Graph interface {
	// Neighbors returns the outgoing edges of the node with the specified ID.
	Neighbors(id NodeID) []Edge

	// NodeIDs returns the IDs of every node in the graph.
	NodeIDs() []NodeID

	// HasNode reports whether a node with the specified ID exists.
	HasNode(id NodeID) bool
}

// Metadata carries the static road attributes attached to an edge.
type Metadata struct {
	// Multiplicative congestion factor. 1.0 means free flow.
	TrafficFactor float64

	// Road surface quality in the [0, 1] range. 1.0 is the best surface.
	Quality float64
}

// DefaultMetadata returns free-flowing, best-quality road attributes.
func DefaultMetadata() Metadata {
	return Metadata{TrafficFactor: 1.0, Quality: 1.0}
}

// Edge represents a directed road segment that originates from From and
// terminates at To. An edge and its reverse are distinct entities.
type Edge struct {
	From         NodeID   // Origin node
	To           NodeID   // Destination node
	BaseDistance float64  // Physical segment length
	Metadata     Metadata // Static road attributes
}
