package adaptive

import "errors"

var (
	// ErrInvalidNode is returned when a route search references a node
	// that does not exist in the road graph.
	ErrInvalidNode = errors.New("invalid node")

	// ErrUnknownVehicle is returned for vehicle classes the engine does
	// not know how to price.
	ErrUnknownVehicle = errors.New("unknown vehicle class")

	// ErrInvalidFeedback is returned for feedback carrying NaN or infinite
	// trip times, or times whose relative delay overflows.
	ErrInvalidFeedback = errors.New("invalid route feedback")
)
