package cdb

import (
	"database/sql"
	"fmt"

	// Register the postgres driver used to talk to cockroachdb.
	_ "github.com/lib/pq"

	"github.com/mycok/uRoute/history"
	"github.com/mycok/uRoute/roadgraph/graph"
)

var (
	ensureSchemaQuery = `
					CREATE TABLE IF NOT EXISTS edge_history (
						src            BIGINT NOT NULL,
						dest           BIGINT NOT NULL,
						usage_count    BIGINT NOT NULL,
						total_delay    DOUBLE PRECISION NOT NULL,
						average_delay  DOUBLE PRECISION NOT NULL,
						total_failures BIGINT NOT NULL,
						failure_rate   DOUBLE PRECISION NOT NULL,
						PRIMARY KEY (src, dest)
					)
					`

	loadHistoryQuery = `
					SELECT src, dest, usage_count, total_delay, average_delay, total_failures, failure_rate
					FROM edge_history
					`

	clearHistoryQuery = "DELETE FROM edge_history"

	insertRecordQuery = `
					INSERT INTO edge_history (src, dest, usage_count, total_delay, average_delay, total_failures, failure_rate)
					VALUES ($1, $2, $3, $4, $5, $6, $7)
					`
)

// Compile-time check for ensuring CockroachDBPersister implements Persister.
var _ history.Persister = (*CockroachDBPersister)(nil)

// CockroachDBPersister implements a history.Persister that stores edge
// history records in a cockroachdb (or any postgres compatible) instance.
type CockroachDBPersister struct {
	db *sql.DB
}

// NewCockroachDBPersister returns a CockroachDBPersister instance that
// connects to the database specified by dsn and ensures the edge_history
// table exists.
func NewCockroachDBPersister(dsn string) (*CockroachDBPersister, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if _, err = db.Exec(ensureSchemaQuery); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ensure edge_history schema: %w", err)
	}

	return &CockroachDBPersister{db: db}, nil
}

// Close terminates the connection to the database.
func (c *CockroachDBPersister) Close() error {
	return c.db.Close()
}

// Load reads every row of the edge_history table. Rows are strongly typed,
// so every failure here is a database error and never history.ErrHistoryLoad.
func (c *CockroachDBPersister) Load() (map[history.EdgeKey]history.Record, error) {
	rows, err := c.db.Query(loadHistoryQuery)
	if err != nil {
		return nil, fmt.Errorf("query edge history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make(map[history.EdgeKey]history.Record)
	for rows.Next() {
		var (
			src, dest int64
			rec       history.Record
		)

		if err = rows.Scan(
			&src, &dest, &rec.UsageCount, &rec.TotalDelay,
			&rec.AverageDelay, &rec.TotalFailures, &rec.FailureRate,
		); err != nil {
			return nil, fmt.Errorf("scan edge history: %w", err)
		}

		records[history.EdgeKey{From: graph.NodeID(src), To: graph.NodeID(dest)}] = rec
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("query edge history: %w", err)
	}

	return records, nil
}

// Save replaces the contents of the edge_history table with records in a
// single transaction.
func (c *CockroachDBPersister) Save(records map[history.EdgeKey]history.Record) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %w", history.ErrHistoryPersist, err)
	}

	if err = c.replaceAll(tx, records); err != nil {
		_ = tx.Rollback()

		return fmt.Errorf("%w: %w", history.ErrHistoryPersist, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", history.ErrHistoryPersist, err)
	}

	return nil
}

func (c *CockroachDBPersister) replaceAll(tx *sql.Tx, records map[history.EdgeKey]history.Record) error {
	if _, err := tx.Exec(clearHistoryQuery); err != nil {
		return err
	}

	stmt, err := tx.Prepare(insertRecordQuery)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for key, rec := range records {
		if _, err = stmt.Exec(
			int64(key.From), int64(key.To), rec.UsageCount, rec.TotalDelay,
			rec.AverageDelay, rec.TotalFailures, rec.FailureRate,
		); err != nil {
			return fmt.Errorf("insert record %s: %w", key, err)
		}
	}

	return nil
}
