package history

// Persister is implemented by durable history backends. Snapshots are always
// written as a whole; there is no incremental persistence.
type Persister interface {
	// Load returns the persisted snapshot. A missing snapshot is not an
	// error: an empty map is returned instead. A snapshot that exists but
	// cannot be decoded yields an error wrapping ErrHistoryLoad.
	Load() (map[EdgeKey]Record, error)

	// Save replaces the persisted snapshot with records. Failures yield an
	// error wrapping ErrHistoryPersist.
	Save(records map[EdgeKey]Record) error

	// Close releases any resources held by the backend.
	Close() error
}
