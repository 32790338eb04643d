/*
Package memory provides a history.Persister that keeps snapshots in process
memory. It is meant for tests and local development where durability across
process runs is not required.
*/
package memory

import (
	"sync"

	"github.com/mycok/uRoute/history"
)

// Compile-time check for ensuring InMemoryPersister implements Persister.
var _ history.Persister = (*InMemoryPersister)(nil)

// InMemoryPersister keeps a deep copy of the last saved snapshot.
type InMemoryPersister struct {
	mu       sync.Mutex
	snapshot map[history.EdgeKey]history.Record
	saves    int
}

// NewInMemoryPersister creates an empty in-memory persister.
func NewInMemoryPersister() *InMemoryPersister {
	return &InMemoryPersister{}
}

// Load returns a copy of the last saved snapshot or an empty map if nothing
// was saved yet.
func (p *InMemoryPersister) Load() (map[history.EdgeKey]history.Record, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return copyRecords(p.snapshot), nil
}

// Save replaces the stored snapshot with a copy of records.
func (p *InMemoryPersister) Save(records map[history.EdgeKey]history.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.snapshot = copyRecords(records)
	p.saves++

	return nil
}

// Saves returns the number of completed Save calls.
func (p *InMemoryPersister) Saves() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.saves
}

// Close is a no-op.
func (p *InMemoryPersister) Close() error { return nil }

func copyRecords(in map[history.EdgeKey]history.Record) map[history.EdgeKey]history.Record {
	out := make(map[history.EdgeKey]history.Record, len(in))
	for key, rec := range in {
		out[key] = rec
	}

	return out
}
