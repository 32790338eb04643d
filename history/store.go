package history

import (
	"sort"
	"sync"
)

// Snapshot provides read access to the history table. Values returned by a
// Snapshot are copies and never alias the records owned by the Store.
type Snapshot interface {
	// Lookup returns the record for the specified edge, if any.
	Lookup(key EdgeKey) (Record, bool)
}

// Writer provides write access to the history table inside Store.Update.
type Writer interface {
	// Observe folds a trip observation into the record of the specified
	// edge, creating the record if needed.
	Observe(key EdgeKey, delay float64, success bool, decayFactor float64)
}

// Compile-time checks for ensuring recordTable implements Snapshot and Writer.
var (
	_ Snapshot = recordTable(nil)
	_ Writer   = recordTable(nil)
)

// recordTable is the unsynchronized record map. It is only handed out while
// the owning Store holds the matching lock.
type recordTable map[EdgeKey]*Record

func (t recordTable) Lookup(key EdgeKey) (Record, bool) {
	rec, exists := t[key]
	if !exists {
		return Record{}, false
	}

	return *rec, true
}

func (t recordTable) Observe(key EdgeKey, delay float64, success bool, decayFactor float64) {
	rec, exists := t[key]
	if !exists {
		rec = new(Record)
		t[key] = rec
	}

	rec.Observe(delay, success, decayFactor)
}

// Store owns every edge history record. Readers and writers are serialized
// with a read-write lock so that a reader observes a batch of updates either
// completely or not at all.
type Store struct {
	mu      sync.RWMutex
	records recordTable
}

// NewStore creates a store that is pre-populated with copies of the
// specified records.
func NewStore(records map[EdgeKey]Record) *Store {
	s := &Store{records: make(recordTable, len(records))}
	for key, rec := range records {
		rcopy := rec
		s.records[key] = &rcopy
	}

	return s
}

// View invokes fn with a consistent read-only snapshot of the table. The
// snapshot must not be retained after fn returns.
func (s *Store) View(fn func(Snapshot)) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fn(s.records)
}

// Update invokes fn with exclusive write access to the table. All updates
// applied by fn become visible to readers at once.
func (s *Store) Update(fn func(Writer)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(s.records)
}

// Lookup returns a copy of the record for the specified edge.
func (s *Store) Lookup(key EdgeKey) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.records.Lookup(key)
}

// Len returns the number of tracked edges.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

// Records returns a deep copy of the whole table.
func (s *Store) Records() map[EdgeKey]Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[EdgeKey]Record, len(s.records))
	for key, rec := range s.records {
		out[key] = *rec
	}

	return out
}

// EdgeStat pairs an edge with its record.
type EdgeStat struct {
	Key    EdgeKey
	Record Record
}

// Summary describes the learned history as a whole.
type Summary struct {
	TotalEdgesTracked          int
	MostReliable               *EdgeStat
	LeastReliable              *EdgeStat
	AverageDelayAcrossAllEdges float64
}

// Summary ranks the tracked edges by Record.Reliability. Ties are broken by
// key order so that the result is deterministic.
func (s *Store) Summary() Summary {
	s.mu.RLock()
	stats := make([]EdgeStat, 0, len(s.records))
	for key, rec := range s.records {
		stats = append(stats, EdgeStat{Key: key, Record: *rec})
	}
	s.mu.RUnlock()

	if len(stats) == 0 {
		return Summary{}
	}

	sort.Slice(stats, func(i, j int) bool {
		si, sj := stats[i].Record.Reliability(), stats[j].Record.Reliability()
		if si != sj {
			return si < sj
		}

		return stats[i].Key.Less(stats[j].Key)
	})

	var totalDelay float64
	for _, st := range stats {
		totalDelay += st.Record.AverageDelay
	}

	most, least := stats[0], stats[len(stats)-1]

	return Summary{
		TotalEdgesTracked:          len(stats),
		MostReliable:               &most,
		LeastReliable:              &least,
		AverageDelayAcrossAllEdges: totalDelay / float64(len(stats)),
	}
}
