/*
Package file provides a history.Persister that stores snapshots as a single
JSON document on the local file system.

Every save rewrites the whole document: it is written to a temporary file in
the target directory, flushed to disk and then renamed over the previous
snapshot. The document embeds an xxhash checksum of its edge table so that
torn or hand-edited snapshots are reported instead of silently loaded.
*/
package file

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"

	"github.com/mycok/uRoute/history"
)

const formatVersion = 1

// Compile-time check for ensuring FilePersister implements Persister.
var _ history.Persister = (*FilePersister)(nil)

// document mirrors the on-disk snapshot layout.
type document struct {
	Version  int             `json:"version"`
	Checksum string          `json:"checksum"`
	Edges    json.RawMessage `json:"edges"`
}

// FilePersister persists history snapshots to a JSON file.
type FilePersister struct {
	path string
}

// NewFilePersister returns a persister that reads and writes the snapshot
// at path. The file does not need to exist.
func NewFilePersister(path string) (*FilePersister, error) {
	if path == "" {
		return nil, errors.New("history file path not provided")
	}

	return &FilePersister{path: path}, nil
}

// Path returns the location of the snapshot file.
func (p *FilePersister) Path() string { return p.path }

// Load reads and verifies the snapshot. A missing file yields an empty
// history. Only an undecodable or tampered snapshot is reported as
// history.ErrHistoryLoad; read failures are returned as is.
func (p *FilePersister) Load() (map[history.EdgeKey]history.Record, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return make(map[history.EdgeKey]history.Record), nil
		}

		return nil, fmt.Errorf("read %s: %w", p.path, err)
	}

	var doc document
	if err = json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", history.ErrHistoryLoad, p.path, err)
	}

	if doc.Version != formatVersion {
		return nil, fmt.Errorf("%w: %s: unsupported format version %d", history.ErrHistoryLoad, p.path, doc.Version)
	}

	// The checksum covers the compact encoding of the edge table.
	var compact bytes.Buffer
	if err = json.Compact(&compact, doc.Edges); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", history.ErrHistoryLoad, p.path, err)
	}

	if sum := checksum(compact.Bytes()); sum != doc.Checksum {
		return nil, fmt.Errorf(
			"%w: %s: checksum mismatch (stored %s, computed %s)",
			history.ErrHistoryLoad, p.path, doc.Checksum, sum,
		)
	}

	var edges map[string]history.Record
	if err = json.Unmarshal(compact.Bytes(), &edges); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", history.ErrHistoryLoad, p.path, err)
	}

	records := make(map[history.EdgeKey]history.Record, len(edges))
	for rawKey, rec := range edges {
		key, err := history.ParseEdgeKey(rawKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", history.ErrHistoryLoad, p.path, err)
		}

		records[key] = rec
	}

	return records, nil
}

// Save atomically replaces the snapshot file with records.
func (p *FilePersister) Save(records map[history.EdgeKey]history.Record) error {
	edges := make(map[string]history.Record, len(records))
	for key, rec := range records {
		edges[key.String()] = rec
	}

	edgeData, err := json.Marshal(edges)
	if err != nil {
		return fmt.Errorf("%w: encode snapshot: %w", history.ErrHistoryPersist, err)
	}

	data, err := json.MarshalIndent(document{
		Version:  formatVersion,
		Checksum: checksum(edgeData),
		Edges:    edgeData,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode snapshot: %w", history.ErrHistoryPersist, err)
	}

	if err = p.writeAtomically(data); err != nil {
		return fmt.Errorf("%w: %w", history.ErrHistoryPersist, err)
	}

	return nil
}

// Close is a no-op; the persister holds no open handles between calls.
func (p *FilePersister) Close() error { return nil }

func (p *FilePersister) writeAtomically(data []byte) error {
	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(p.path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	// Remove the temp file on any failure below. After a successful rename
	// the remove is a harmless no-op.
	defer func() { _ = os.Remove(tmpName) }()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("write %s: %w", tmpName, err)
	}

	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("sync %s: %w", tmpName, err)
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}

	if err = os.Rename(tmpName, p.path); err != nil {
		return fmt.Errorf("rename %s: %w", tmpName, err)
	}

	return nil
}

func checksum(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}
