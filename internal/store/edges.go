package store

import (
	"fmt"
	"strings"

	"github.com/codeatlas/codeatlas/internal/graph"
)

const edgeCols = `id, source_id, target_id, target_symbol, kind, confidence,
	file_path, start_line, start_column, end_line, end_column`

// InsertEdge inserts an edge, deduplicating on the identity columns.
func (s *Store) InsertEdge(e *graph.Edge) error {
	_, err := s.q.Exec(`
		INSERT INTO edges (source_id, target_id, target_symbol, kind, confidence,
			file_path, start_line, start_column, end_line, end_column)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id, target_id, target_symbol, kind, start_line, start_column)
		DO UPDATE SET confidence=excluded.confidence`,
		e.SourceID, e.TargetID, e.TargetSymbol, string(e.Kind), e.Confidence,
		e.FilePath, e.Range.StartLine, e.Range.StartColumn, e.Range.EndLine, e.Range.EndColumn)
	if err != nil {
		return fmt.Errorf("insert edge: %w", err)
	}
	return nil
}

// edgesBatchSize keeps 10 cols × rows under the 999 bind variable limit.
const edgesBatchSize = 99

// InsertEdgeBatch inserts edges in batched multi-row INSERTs.
func (s *Store) InsertEdgeBatch(edges []*graph.Edge) error {
	for i := 0; i < len(edges); i += edgesBatchSize {
		end := min(i+edgesBatchSize, len(edges))
		if err := s.insertEdgeChunk(edges[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) insertEdgeChunk(batch []*graph.Edge) error {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO edges (source_id, target_id, target_symbol, kind, confidence,
		file_path, start_line, start_column, end_line, end_column) VALUES `)

	args := make([]any, 0, len(batch)*10)
	for i, e := range batch {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString("(?,?,?,?,?,?,?,?,?,?)")
		args = append(args, e.SourceID, e.TargetID, e.TargetSymbol, string(e.Kind), e.Confidence,
			e.FilePath, e.Range.StartLine, e.Range.StartColumn, e.Range.EndLine, e.Range.EndColumn)
	}
	sb.WriteString(` ON CONFLICT(source_id, target_id, target_symbol, kind, start_line, start_column)
		DO UPDATE SET confidence=excluded.confidence`)

	if _, err := s.q.Exec(sb.String(), args...); err != nil {
		return fmt.Errorf("insert edge batch: %w", err)
	}
	return nil
}

// ResolveEdge sets an edge's target and confidence in one atomic update.
func (s *Store) ResolveEdge(edgeID int64, targetID string, confidence float64) error {
	_, err := s.q.Exec("UPDATE edges SET target_id=?, confidence=? WHERE id=?",
		targetID, confidence, edgeID)
	if err != nil {
		return fmt.Errorf("resolve edge: %w", err)
	}
	return nil
}

// GetIncomingEdges returns edges targeting a node, optionally filtered
// by kinds, ordered by (file, line) for deterministic traversal.
func (s *Store) GetIncomingEdges(nodeID string, kinds ...graph.EdgeKind) ([]*graph.Edge, error) {
	q := `SELECT ` + edgeCols + ` FROM edges WHERE target_id=?`
	args := []any{nodeID}
	q, args = appendKindFilter(q, args, kinds)
	q += ` ORDER BY file_path, start_line, start_column`
	return s.queryEdges(q, args...)
}

// GetOutgoingEdges returns edges sourced from a node, optionally
// filtered by kinds, in deterministic order.
func (s *Store) GetOutgoingEdges(nodeID string, kinds ...graph.EdgeKind) ([]*graph.Edge, error) {
	q := `SELECT ` + edgeCols + ` FROM edges WHERE source_id=?`
	args := []any{nodeID}
	q, args = appendKindFilter(q, args, kinds)
	q += ` ORDER BY file_path, start_line, start_column`
	return s.queryEdges(q, args...)
}

// GetEdgesByKind returns all edges of a kind in deterministic order.
func (s *Store) GetEdgesByKind(kind graph.EdgeKind) ([]*graph.Edge, error) {
	return s.queryEdges(`SELECT `+edgeCols+` FROM edges WHERE kind=?
		ORDER BY file_path, start_line, start_column`, string(kind))
}

// UnresolvedEdgesByFile returns unresolved edges sourced from the given
// files. Called with no files it returns every unresolved edge.
func (s *Store) UnresolvedEdgesByFile(paths ...string) ([]*graph.Edge, error) {
	q := `SELECT ` + edgeCols + ` FROM edges WHERE target_id=''`
	args := make([]any, 0, len(paths))
	if len(paths) > 0 {
		placeholders := strings.Repeat("?,", len(paths))
		q += ` AND file_path IN (` + placeholders[:len(placeholders)-1] + `)`
		for _, p := range paths {
			args = append(args, p)
		}
	}
	q += ` ORDER BY file_path, start_line, start_column`
	return s.queryEdges(q, args...)
}

// UnresolvedEdgesBySymbols returns unresolved edges whose target symbol
// matches any of the given simple names. Used for forward discovery
// after new nodes appear.
func (s *Store) UnresolvedEdgesBySymbols(names []string) ([]*graph.Edge, error) {
	if len(names) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(names))
	q := `SELECT ` + edgeCols + ` FROM edges WHERE target_id=''
		AND target_symbol IN (` + placeholders[:len(placeholders)-1] + `)
		ORDER BY file_path, start_line, start_column`
	args := make([]any, len(names))
	for i, n := range names {
		args[i] = n
	}
	return s.queryEdges(q, args...)
}

// DeleteEdgesByFile removes all edges sourced from a file.
func (s *Store) DeleteEdgesByFile(path string) error {
	_, err := s.q.Exec("DELETE FROM edges WHERE file_path=?", path)
	return err
}

// CountEdges returns the total edge count.
func (s *Store) CountEdges() (int, error) {
	var count int
	err := s.q.QueryRow("SELECT COUNT(*) FROM edges").Scan(&count)
	return count, err
}

// CountEdgesByKind returns the number of edges of one kind.
func (s *Store) CountEdgesByKind(kind graph.EdgeKind) (int, error) {
	var count int
	err := s.q.QueryRow("SELECT COUNT(*) FROM edges WHERE kind=?", string(kind)).Scan(&count)
	return count, err
}

func appendKindFilter(q string, args []any, kinds []graph.EdgeKind) (string, []any) {
	if len(kinds) == 0 {
		return q, args
	}
	placeholders := strings.Repeat("?,", len(kinds))
	q += ` AND kind IN (` + placeholders[:len(placeholders)-1] + `)`
	for _, k := range kinds {
		args = append(args, string(k))
	}
	return q, args
}

func (s *Store) queryEdges(q string, args ...any) ([]*graph.Edge, error) {
	rows, err := s.q.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()

	var result []*graph.Edge
	for rows.Next() {
		var e graph.Edge
		var kind string
		if err := rows.Scan(&e.ID, &e.SourceID, &e.TargetID, &e.TargetSymbol, &kind, &e.Confidence,
			&e.FilePath, &e.Range.StartLine, &e.Range.StartColumn, &e.Range.EndLine, &e.Range.EndColumn); err != nil {
			return nil, err
		}
		e.Kind = graph.EdgeKind(kind)
		result = append(result, &e)
	}
	return result, rows.Err()
}
