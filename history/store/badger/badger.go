/*
Package badger provides a history.Persister backed by an embedded BadgerDB
key-value store. Each edge record lives under its own key; a snapshot save
replaces the full set of edge keys.
*/
package badger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"github.com/mycok/uRoute/history"
)

var edgePrefix = []byte("edge/")

// Compile-time check for ensuring BadgerPersister implements Persister.
var _ history.Persister = (*BadgerPersister)(nil)

// Config holds configuration for a BadgerDB backed persister.
type Config struct {
	// Directory for the database files. Required unless InMemory is set.
	Path string

	// InMemory keeps the database in memory. Useful for testing.
	InMemory bool

	// SyncWrites flushes every commit to disk before returning.
	SyncWrites bool

	// The logger to use for BadgerDB's internal messages. If not defined,
	// BadgerDB logging is disabled.
	Logger *logrus.Entry
}

// BadgerPersister persists history snapshots to a BadgerDB instance.
type BadgerPersister struct {
	db *badger.DB
}

// NewBadgerPersister opens the database described by cfg.
func NewBadgerPersister(cfg Config) (*BadgerPersister, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	// *logrus.Entry already satisfies badger.Logger.
	if cfg.Logger != nil {
		opts = opts.WithLogger(cfg.Logger)
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	return &BadgerPersister{db: db}, nil
}

// Load reads every edge record from the database. Undecodable keys or
// values are reported as history.ErrHistoryLoad; database errors are
// returned as is.
func (p *BadgerPersister) Load() (map[history.EdgeKey]history.Record, error) {
	records := make(map[history.EdgeKey]history.Record)

	err := p.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(prefixIteratorOptions())
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()

			key, err := decodeKey(item.Key())
			if err != nil {
				return fmt.Errorf("%w: %w", history.ErrHistoryLoad, err)
			}

			val, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("read record %s: %w", key, err)
			}

			var rec history.Record
			if err = json.Unmarshal(val, &rec); err != nil {
				return fmt.Errorf("%w: decode record %s: %w", history.ErrHistoryLoad, key, err)
			}

			records[key] = rec
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

// Save replaces the stored edge records with records. The snapshot is
// written in a single transaction unless it exceeds BadgerDB's transaction
// size limit, in which case it is split across consecutive transactions.
func (p *BadgerPersister) Save(records map[history.EdgeKey]history.Record) error {
	txn := p.db.NewTransaction(true)
	defer func() { txn.Discard() }()

	// Collect keys that are no longer part of the snapshot.
	var stale [][]byte
	it := txn.NewIterator(prefixIteratorOptions())
	for it.Rewind(); it.Valid(); it.Next() {
		rawKey := it.Item().KeyCopy(nil)
		if key, err := decodeKey(rawKey); err == nil {
			if _, keep := records[key]; keep {
				continue
			}
		}

		stale = append(stale, rawKey)
	}
	it.Close()

	apply := func(fn func(*badger.Txn) error) error {
		err := fn(txn)
		if !errors.Is(err, badger.ErrTxnTooBig) {
			return err
		}

		if err = txn.Commit(); err != nil {
			return err
		}
		txn = p.db.NewTransaction(true)

		return fn(txn)
	}

	for _, rawKey := range stale {
		if err := apply(func(t *badger.Txn) error { return t.Delete(rawKey) }); err != nil {
			return fmt.Errorf("%w: %w", history.ErrHistoryPersist, err)
		}
	}

	for key, rec := range records {
		val, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("%w: encode record %s: %w", history.ErrHistoryPersist, key, err)
		}

		rawKey := encodeKey(key)
		if err = apply(func(t *badger.Txn) error { return t.Set(rawKey, val) }); err != nil {
			return fmt.Errorf("%w: %w", history.ErrHistoryPersist, err)
		}
	}

	if err := txn.Commit(); err != nil {
		return fmt.Errorf("%w: %w", history.ErrHistoryPersist, err)
	}

	return nil
}

// Close closes the underlying database.
func (p *BadgerPersister) Close() error {
	return p.db.Close()
}

func prefixIteratorOptions() badger.IteratorOptions {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = edgePrefix

	return opts
}

func encodeKey(key history.EdgeKey) []byte {
	return append(append([]byte(nil), edgePrefix...), key.String()...)
}

func decodeKey(raw []byte) (history.EdgeKey, error) {
	return history.ParseEdgeKey(string(bytes.TrimPrefix(raw, edgePrefix)))
}
