package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/codeatlas/codeatlas/internal/graph"
	"github.com/codeatlas/codeatlas/internal/lang"
)

const nodeCols = `id, kind, name, qualified_name, file_path, language,
	start_line, start_column, end_line, end_column,
	signature, docstring, is_exported, updated_at`

// UpsertNode inserts or replaces a node by its deterministic ID.
func (s *Store) UpsertNode(n *graph.Node) error {
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = Now()
	}
	_, err := s.q.Exec(`
		INSERT INTO nodes (`+nodeCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind=excluded.kind, name=excluded.name, qualified_name=excluded.qualified_name,
			file_path=excluded.file_path, language=excluded.language,
			start_line=excluded.start_line, start_column=excluded.start_column,
			end_line=excluded.end_line, end_column=excluded.end_column,
			signature=excluded.signature, docstring=excluded.docstring,
			is_exported=excluded.is_exported, updated_at=excluded.updated_at`,
		nodeArgs(n)...)
	if err != nil {
		return fmt.Errorf("upsert node: %w", err)
	}
	return nil
}

// Formula-derived batch size: SQLite has a 999 bind variable limit.
const numNodeCols = 14
const nodesBatchSize = 999 / numNodeCols

// UpsertNodeBatch inserts or updates nodes in batched multi-row INSERTs.
func (s *Store) UpsertNodeBatch(nodes []*graph.Node) error {
	for i := 0; i < len(nodes); i += nodesBatchSize {
		end := min(i+nodesBatchSize, len(nodes))
		if err := s.upsertNodeChunk(nodes[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) upsertNodeChunk(batch []*graph.Node) error {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO nodes (` + nodeCols + `) VALUES `)

	args := make([]any, 0, len(batch)*numNodeCols)
	for i, n := range batch {
		if n.UpdatedAt.IsZero() {
			n.UpdatedAt = Now()
		}
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString("(?,?,?,?,?,?,?,?,?,?,?,?,?,?)")
		args = append(args, nodeArgs(n)...)
	}
	sb.WriteString(` ON CONFLICT(id) DO UPDATE SET
		kind=excluded.kind, name=excluded.name, qualified_name=excluded.qualified_name,
		file_path=excluded.file_path, language=excluded.language,
		start_line=excluded.start_line, start_column=excluded.start_column,
		end_line=excluded.end_line, end_column=excluded.end_column,
		signature=excluded.signature, docstring=excluded.docstring,
		is_exported=excluded.is_exported, updated_at=excluded.updated_at`)

	if _, err := s.q.Exec(sb.String(), args...); err != nil {
		return fmt.Errorf("upsert node batch: %w", err)
	}
	return nil
}

func nodeArgs(n *graph.Node) []any {
	return []any{
		n.ID, string(n.Kind), n.Name, n.QualifiedName, n.FilePath, string(n.Language),
		n.Range.StartLine, n.Range.StartColumn, n.Range.EndLine, n.Range.EndColumn,
		n.Signature, n.Docstring, boolToInt(n.IsExported), formatTime(n.UpdatedAt),
	}
}

// GetNodeByID returns a node by its ID, or nil when absent.
func (s *Store) GetNodeByID(id string) (*graph.Node, error) {
	row := s.q.QueryRow(`SELECT `+nodeCols+` FROM nodes WHERE id=?`, id)
	return scanNode(row)
}

// GetNodesByFile returns all nodes owned by a file, ordered by position.
func (s *Store) GetNodesByFile(path string) ([]*graph.Node, error) {
	return s.queryNodes(`SELECT `+nodeCols+` FROM nodes WHERE file_path=?
		ORDER BY start_line, start_column`, path)
}

// GetNodesByKind returns all nodes of a kind ordered by (file, line).
func (s *Store) GetNodesByKind(kind graph.NodeKind) ([]*graph.Node, error) {
	return s.queryNodes(`SELECT `+nodeCols+` FROM nodes WHERE kind=?
		ORDER BY file_path, start_line`, string(kind))
}

// GetNodesByName returns all nodes with a simple name, ordered by
// (file, line) so ambiguous matches resolve deterministically.
func (s *Store) GetNodesByName(name string) ([]*graph.Node, error) {
	return s.queryNodes(`SELECT `+nodeCols+` FROM nodes WHERE name=?
		ORDER BY file_path, start_line`, name)
}

// DeleteNodesByFile removes all nodes owned by a file.
func (s *Store) DeleteNodesByFile(path string) error {
	_, err := s.q.Exec("DELETE FROM nodes WHERE file_path=?", path)
	return err
}

// CountNodes returns the total node count.
func (s *Store) CountNodes() (int, error) {
	var count int
	err := s.q.QueryRow("SELECT COUNT(*) FROM nodes").Scan(&count)
	return count, err
}

func (s *Store) queryNodes(q string, args ...any) ([]*graph.Node, error) {
	rows, err := s.q.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNodeInto(sc scanner, n *graph.Node) error {
	var kind, language, updatedAt string
	var exported int
	err := sc.Scan(&n.ID, &kind, &n.Name, &n.QualifiedName, &n.FilePath, &language,
		&n.Range.StartLine, &n.Range.StartColumn, &n.Range.EndLine, &n.Range.EndColumn,
		&n.Signature, &n.Docstring, &exported, &updatedAt)
	if err != nil {
		return err
	}
	n.Kind = graph.NodeKind(kind)
	n.Language = lang.Language(language)
	n.IsExported = exported != 0
	n.UpdatedAt = parseTime(updatedAt)
	return nil
}

func scanNode(row *sql.Row) (*graph.Node, error) {
	var n graph.Node
	if err := scanNodeInto(row, &n); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

func scanNodes(rows *sql.Rows) ([]*graph.Node, error) {
	var result []*graph.Node
	for rows.Next() {
		var n graph.Node
		if err := scanNodeInto(rows, &n); err != nil {
			return nil, err
		}
		result = append(result, &n)
	}
	return result, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
