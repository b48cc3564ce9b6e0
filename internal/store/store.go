// Package store provides the SQLite-backed persistence for the graph:
// files, nodes, edges, and vectors, guarded by a single-writer lock.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/codeatlas/codeatlas/internal/errs"
)

// Querier abstracts *sql.DB and *sql.Tx so store methods work in both contexts.
type Querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Store wraps a SQLite connection for graph storage.
type Store struct {
	db     *sql.DB
	q      Querier // active querier: db or tx
	dbPath string
	lock   *writerLock
}

// Open opens or creates the database at dbPath and acquires the writer
// lock beside it. Migrations newer than the stored schema version run
// before Open returns; a database from a newer schema is rejected.
func Open(dbPath string) (*Store, error) {
	lock, err := acquireWriterLock(dbPath + ".lock")
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)")
	if err != nil {
		lock.release()
		return nil, fmt.Errorf("open db: %w", err)
	}
	s := &Store{db: db, dbPath: dbPath, lock: lock}
	s.q = s.db
	if err := s.migrate(); err != nil {
		db.Close()
		lock.release()
		return nil, err
	}
	return s, nil
}

// OpenMemory opens an in-memory database (for testing). No writer lock
// is taken; the database dies with the connection.
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("open memory db: %w", err)
	}
	// The in-memory database vanishes if all connections close.
	db.SetMaxOpenConns(1)
	s := &Store{db: db, dbPath: ":memory:"}
	s.q = s.db
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// WithTransaction executes fn within a single transaction. The callback
// receives a transaction-scoped Store; the receiver's querier is never
// mutated, so concurrent readers are unaffected.
func (s *Store) WithTransaction(fn func(txStore *Store) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	txStore := &Store{db: s.db, q: tx, dbPath: s.dbPath}
	if err := fn(txStore); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Close closes the database and releases the writer lock.
func (s *Store) Close() error {
	err := s.db.Close()
	if s.lock != nil {
		s.lock.release()
	}
	return err
}

// SchemaVersion returns the persisted schema version.
func (s *Store) SchemaVersion() (int, error) {
	var v int
	err := s.q.QueryRow("SELECT version FROM schema_version").Scan(&v)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, errs.Wrap(errs.StoreIntegrity, "read schema version", err)
	}
	return v, nil
}

// Now returns the current UTC time truncated to whole seconds, the
// resolution persisted in the store.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
