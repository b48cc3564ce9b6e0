// Package query executes the per-language pattern sets against a parse
// tree and yields raw captures for the extractor.
package query

import (
	"fmt"
	"log/slog"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codeatlas/codeatlas/internal/graph"
	"github.com/codeatlas/codeatlas/internal/lang"
	"github.com/codeatlas/codeatlas/internal/parser"
)

// Capture is one named subtree extracted by a pattern.
type Capture struct {
	Name      string
	Range     graph.Range
	StartByte uint
	EndByte   uint
	Text      string
}

// Match groups the captures of a single pattern match in source order.
// Kind is the outer capture's name (the pattern's node or edge kind).
type Match struct {
	Kind     string
	Captures []Capture
}

// Get returns the first capture with the given name, or nil.
func (m *Match) Get(name string) *Capture {
	for i := range m.Captures {
		if m.Captures[i].Name == name {
			return &m.Captures[i]
		}
	}
	return nil
}

type compiledSet struct {
	nodes *tree_sitter.Query
	edges *tree_sitter.Query
}

// Engine compiles and caches the pattern queries per language.
// Compiled queries are immutable and shared across goroutines; each Run
// uses its own cursor.
type Engine struct {
	mu    sync.Mutex
	cache map[lang.Language]*compiledSet
}

// NewEngine creates an empty query engine.
func NewEngine() *Engine {
	return &Engine{cache: make(map[lang.Language]*compiledSet)}
}

// kindCaptures are outer capture names; everything else is an inner
// capture attached to the match.
var kindCaptures = map[string]bool{
	"function": true, "method": true, "constructor": true, "destructor": true,
	"class": true, "struct": true, "interface": true, "trait": true,
	"enum": true, "module": true, "type_alias": true, "constant": true,
	"variable": true,
	"call": true, "import": true, "extends": true, "implements": true,
}

func (e *Engine) compiled(l lang.Language) (*compiledSet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if cs, ok := e.cache[l]; ok {
		return cs, nil
	}

	ps, ok := Patterns(l)
	if !ok {
		return nil, fmt.Errorf("no pattern set for language %s", l)
	}
	tsLang, err := parser.GetLanguage(l)
	if err != nil {
		return nil, err
	}

	cs := &compiledSet{}
	if cs.nodes, err = tree_sitter.NewQuery(tsLang, ps.Nodes); err != nil {
		slog.Warn("query.compile.nodes.err", "lang", l, "err", err)
		cs.nodes = nil
	}
	if cs.edges, err = tree_sitter.NewQuery(tsLang, ps.Edges); err != nil {
		slog.Warn("query.compile.edges.err", "lang", l, "err", err)
		cs.edges = nil
	}
	e.cache[l] = cs
	return cs, nil
}

// Run executes the node and edge pattern sets over a parse tree.
// Matches are returned grouped per pattern match, in source order.
// A pattern group that failed to compile yields no matches.
func (e *Engine) Run(l lang.Language, tree *tree_sitter.Tree, source []byte) (nodes, edges []Match, err error) {
	cs, err := e.compiled(l)
	if err != nil {
		return nil, nil, err
	}
	if cs.nodes != nil {
		nodes = runQuery(cs.nodes, tree, source)
	}
	if cs.edges != nil {
		edges = runQuery(cs.edges, tree, source)
	}
	return nodes, edges, nil
}

func runQuery(q *tree_sitter.Query, tree *tree_sitter.Tree, source []byte) []Match {
	qc := tree_sitter.NewQueryCursor()
	defer qc.Close()

	captureNames := q.CaptureNames()
	matches := qc.Matches(q, tree.RootNode(), source)

	var result []Match
	for {
		m := matches.Next()
		if m == nil {
			break
		}
		match := Match{}
		for _, c := range m.Captures {
			name := captureNames[c.Index]
			if kindCaptures[name] && match.Kind == "" {
				match.Kind = name
			}
			match.Captures = append(match.Captures, Capture{
				Name:      name,
				Range:     nodeRange(&c.Node),
				StartByte: uint(c.Node.StartByte()),
				EndByte:   uint(c.Node.EndByte()),
				Text:      parser.NodeText(&c.Node, source),
			})
		}
		if match.Kind == "" || len(match.Captures) == 0 {
			continue
		}
		result = append(result, match)
	}
	return result
}

// nodeRange converts tree-sitter 0-based positions to 1-based lines and
// columns.
func nodeRange(n *tree_sitter.Node) graph.Range {
	start := n.StartPosition()
	end := n.EndPosition()
	return graph.Range{
		StartLine:   int(start.Row) + 1,
		StartColumn: int(start.Column) + 1,
		EndLine:     int(end.Row) + 1,
		EndColumn:   int(end.Column) + 1,
	}
}
