package store

import (
	"database/sql"
	"fmt"

	"github.com/codeatlas/codeatlas/internal/graph"
	"github.com/codeatlas/codeatlas/internal/lang"
)

// UpsertFile inserts or updates a file record.
func (s *Store) UpsertFile(f *graph.FileRecord) error {
	if f.UpdatedAt.IsZero() {
		f.UpdatedAt = Now()
	}
	_, err := s.q.Exec(`
		INSERT INTO files (path, language, hash, size, mod_time, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			language=excluded.language, hash=excluded.hash, size=excluded.size,
			mod_time=excluded.mod_time, updated_at=excluded.updated_at`,
		f.Path, string(f.Language), f.Hash, f.Size, formatTime(f.ModTime), formatTime(f.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert file: %w", err)
	}
	return nil
}

// DeleteFile removes a file record. Owned nodes cascade via the foreign
// key; edges sourced from the file are removed explicitly since they
// reference nodes by ID only.
func (s *Store) DeleteFile(path string) error {
	if err := s.DeleteEdgesByFile(path); err != nil {
		return err
	}
	if _, err := s.q.Exec("DELETE FROM files WHERE path=?", path); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// GetFile returns the record for a path, or nil when not indexed.
func (s *Store) GetFile(path string) (*graph.FileRecord, error) {
	row := s.q.QueryRow(`SELECT path, language, hash, size, mod_time, updated_at
		FROM files WHERE path=?`, path)
	return scanFile(row)
}

// AllFiles returns every indexed file ordered by path.
func (s *Store) AllFiles() ([]*graph.FileRecord, error) {
	rows, err := s.q.Query(`SELECT path, language, hash, size, mod_time, updated_at
		FROM files ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var result []*graph.FileRecord
	for rows.Next() {
		var f graph.FileRecord
		var language, modTime, updatedAt string
		if err := rows.Scan(&f.Path, &language, &f.Hash, &f.Size, &modTime, &updatedAt); err != nil {
			return nil, err
		}
		f.Language = lang.Language(language)
		f.ModTime = parseTime(modTime)
		f.UpdatedAt = parseTime(updatedAt)
		result = append(result, &f)
	}
	return result, rows.Err()
}

// CountFiles returns the number of indexed files.
func (s *Store) CountFiles() (int, error) {
	var count int
	err := s.q.QueryRow("SELECT COUNT(*) FROM files").Scan(&count)
	return count, err
}

func scanFile(row *sql.Row) (*graph.FileRecord, error) {
	var f graph.FileRecord
	var language, modTime, updatedAt string
	err := row.Scan(&f.Path, &language, &f.Hash, &f.Size, &modTime, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	f.Language = lang.Language(language)
	f.ModTime = parseTime(modTime)
	f.UpdatedAt = parseTime(updatedAt)
	return &f, nil
}
