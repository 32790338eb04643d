package graph

import "errors"

var (
	// ErrUnknownEdgeNodes is returned when we attempt to create an Edge
	// object with an unknown source and / or destination node.
	ErrUnknownEdgeNodes = errors.New("unknown source and / or destination node")

	// ErrInvalidEdge is returned when an edge carries a negative distance,
	// a negative traffic factor or a quality value outside the [0, 1] range.
	ErrInvalidEdge = errors.New("invalid edge attributes")
)
