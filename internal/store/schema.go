package store

import (
	"fmt"
	"log/slog"

	"github.com/codeatlas/codeatlas/internal/errs"
)

// migration is one schema step. Statements run inside a single
// transaction together with the version bump.
type migration struct {
	version int
	stmts   []string
}

var migrations = []migration{
	{
		version: 1,
		stmts: []string{
			`CREATE TABLE schema_version (version INTEGER NOT NULL)`,
			`INSERT INTO schema_version (version) VALUES (0)`,
			`CREATE TABLE files (
				path TEXT PRIMARY KEY,
				language TEXT NOT NULL,
				hash TEXT NOT NULL,
				size INTEGER NOT NULL,
				mod_time TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE TABLE nodes (
				id TEXT PRIMARY KEY,
				kind TEXT NOT NULL,
				name TEXT NOT NULL,
				qualified_name TEXT NOT NULL,
				file_path TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
				language TEXT NOT NULL,
				start_line INTEGER NOT NULL,
				start_column INTEGER NOT NULL,
				end_line INTEGER NOT NULL,
				end_column INTEGER NOT NULL,
				signature TEXT NOT NULL DEFAULT '',
				docstring TEXT NOT NULL DEFAULT '',
				is_exported INTEGER NOT NULL DEFAULT 0,
				updated_at TEXT NOT NULL,
				UNIQUE(kind, file_path, qualified_name, start_line)
			)`,
			`CREATE INDEX idx_nodes_file ON nodes(file_path)`,
			`CREATE INDEX idx_nodes_kind ON nodes(kind)`,
			`CREATE INDEX idx_nodes_name ON nodes(name)`,
			`CREATE TABLE edges (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				source_id TEXT NOT NULL,
				target_id TEXT NOT NULL DEFAULT '',
				target_symbol TEXT NOT NULL DEFAULT '',
				kind TEXT NOT NULL,
				confidence REAL NOT NULL DEFAULT 1.0,
				file_path TEXT NOT NULL,
				start_line INTEGER NOT NULL DEFAULT 0,
				start_column INTEGER NOT NULL DEFAULT 0,
				end_line INTEGER NOT NULL DEFAULT 0,
				end_column INTEGER NOT NULL DEFAULT 0,
				UNIQUE(source_id, target_id, target_symbol, kind, start_line, start_column)
			)`,
			`CREATE INDEX idx_edges_source ON edges(source_id, kind)`,
			`CREATE INDEX idx_edges_target ON edges(target_id, kind)`,
			`CREATE INDEX idx_edges_file ON edges(file_path)`,
			`CREATE INDEX idx_edges_symbol ON edges(target_symbol)`,
		},
	},
	{
		version: 2,
		stmts: []string{
			`CREATE TABLE vectors (
				node_id TEXT PRIMARY KEY REFERENCES nodes(id) ON DELETE CASCADE,
				embedding BLOB NOT NULL,
				dim INTEGER NOT NULL,
				model TEXT NOT NULL
			)`,
		},
	},
}

// migrate applies all migrations newer than the stored version, one
// transaction per migration. Downgrades are rejected.
func (s *Store) migrate() error {
	// schema_version may not exist yet on a fresh database.
	var current int
	err := s.db.QueryRow("SELECT version FROM schema_version").Scan(&current)
	if err != nil {
		current = 0
	}

	latest := migrations[len(migrations)-1].version
	if current > latest {
		return errs.New(errs.StoreIntegrity,
			fmt.Sprintf("database schema version %d is newer than supported %d", current, latest))
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := s.applyMigration(m); err != nil {
			return errs.Wrap(errs.StoreIntegrity, fmt.Sprintf("migration %d", m.version), err)
		}
		slog.Info("store.migrate", "version", m.version)
	}
	return nil
}

func (s *Store) applyMigration(m migration) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	for _, stmt := range m.stmts {
		if _, err := tx.Exec(stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec %q: %w", stmt[:min(40, len(stmt))], err)
		}
	}
	if _, err := tx.Exec("UPDATE schema_version SET version=?", m.version); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
