package history

import "errors"

var (
	// ErrHistoryLoad is returned when a persisted history snapshot exists
	// but cannot be decoded. Storage and connection failures are never
	// wrapped in it.
	ErrHistoryLoad = errors.New("history load failed")

	// ErrHistoryPersist is returned when a history snapshot cannot be
	// written to durable storage.
	ErrHistoryPersist = errors.New("history persist failed")
)
