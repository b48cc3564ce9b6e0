// Package extract turns parse-tree captures into typed graph nodes,
// structural edges, and unresolved references.
package extract

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/codeatlas/codeatlas/internal/errs"
	"github.com/codeatlas/codeatlas/internal/graph"
	"github.com/codeatlas/codeatlas/internal/lang"
	"github.com/codeatlas/codeatlas/internal/parser"
	"github.com/codeatlas/codeatlas/internal/query"
)

// Warning records a contained per-file problem.
type Warning struct {
	Path    string
	Kind    errs.Kind
	Message string
}

// Result is the extraction output for one file. Edges holds structural
// edges resolved from syntax alone; Refs holds unresolved edges awaiting
// the resolver (TargetID empty, TargetSymbol set).
type Result struct {
	FileNode *graph.Node
	Nodes    []*graph.Node
	Edges    []*graph.Edge
	Refs     []*graph.Edge
	Warnings []Warning
}

// Extractor runs the query engine over single files.
type Extractor struct {
	engine *query.Engine
}

// New creates an Extractor sharing one compiled-query cache.
func New(engine *query.Engine) *Extractor {
	return &Extractor{engine: engine}
}

// def is an extracted definition before node construction.
type def struct {
	kind      graph.NodeKind
	name      string
	rng       graph.Range
	startByte uint
	endByte   uint
	signature string
	parent    int // index into defs, -1 = file
	node      *graph.Node
}

// File extracts one file. relPath is the store key; source is the raw
// file content. Parse failures are contained: whatever extracted before
// the error region is kept and a ParseFailure warning recorded.
func (x *Extractor) File(relPath string, source []byte, language lang.Language) (*Result, error) {
	source = stripBOM(source)

	tree, err := parser.Parse(language, source)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", relPath, err)
	}
	defer tree.Close()

	res := &Result{}
	if tree.RootNode().HasError() {
		res.Warnings = append(res.Warnings, Warning{
			Path: relPath, Kind: errs.ParseFailure,
			Message: "syntax errors in parse tree; partial extraction",
		})
	}

	nodeMatches, edgeMatches, err := x.engine.Run(language, tree, source)
	if err != nil {
		return nil, err
	}

	spec := lang.ForLanguage(language)

	// Synthetic file node: path as both name and qualified name.
	lines := countLines(source)
	fileNode := &graph.Node{
		ID:            graph.NodeID(graph.KindFile, relPath, relPath, 1),
		Kind:          graph.KindFile,
		Name:          relPath,
		QualifiedName: relPath,
		FilePath:      relPath,
		Language:      language,
		Range:         graph.Range{StartLine: 1, StartColumn: 1, EndLine: lines, EndColumn: 1},
		IsExported:    true,
	}
	res.FileNode = fileNode
	res.Nodes = append(res.Nodes, fileNode)

	defs := buildDefs(nodeMatches)
	x.buildNodes(res, defs, source, relPath, language, spec)
	x.buildRefs(res, defs, edgeMatches, relPath, language)

	return res, nil
}

// buildDefs collects definitions from node matches and links each to
// its innermost strictly-enclosing definition.
func buildDefs(matches []query.Match) []*def {
	defs := make([]*def, 0, len(matches))
	for _, m := range matches {
		outer := m.Get(m.Kind)
		nameCap := m.Get("name")
		if outer == nil || nameCap == nil {
			continue
		}
		name := nameCap.Text
		if name == "" {
			continue
		}
		defs = append(defs, &def{
			kind:      kindFor(m.Kind),
			name:      name,
			rng:       outer.Range,
			startByte: outer.StartByte,
			endByte:   outer.EndByte,
			signature: signatureOf(outer.Text),
			parent:    -1,
		})
	}

	for i, d := range defs {
		best := -1
		var bestSpan uint = ^uint(0)
		for j, p := range defs {
			if i == j {
				continue
			}
			if p.startByte <= d.startByte && d.endByte <= p.endByte &&
				(p.startByte < d.startByte || d.endByte < p.endByte) {
				span := p.endByte - p.startByte
				if span < bestSpan {
					bestSpan = span
					best = j
				}
			}
		}
		d.parent = best
	}
	return defs
}

// buildNodes materializes graph nodes with qualified names from the
// enclosing-scope chain and emits contains edges.
func (x *Extractor) buildNodes(res *Result, defs []*def, source []byte, relPath string, language lang.Language, spec *lang.LanguageSpec) {
	sep := "."
	if spec != nil {
		sep = spec.ScopeSeparator
	}
	srcLines := strings.Split(string(source), "\n")

	var qualify func(d *def) string
	qualify = func(d *def) string {
		if d.parent < 0 {
			return d.name
		}
		return qualify(defs[d.parent]) + sep + d.name
	}

	for _, d := range defs {
		kind := d.kind
		if d.parent >= 0 && d.kind == graph.KindFunction && isContainerKind(defs[d.parent].kind) {
			kind = graph.KindMethod
		}
		if kind == graph.KindMethod {
			kind = classifySpecialMethod(kind, d.name, parentName(defs, d), spec)
		}

		qn := qualify(d)
		n := &graph.Node{
			ID:            graph.NodeID(kind, relPath, qn, d.rng.StartLine),
			Kind:          kind,
			Name:          d.name,
			QualifiedName: qn,
			FilePath:      relPath,
			Language:      language,
			Range:         d.rng,
			Signature:     d.signature,
			Docstring:     docstringAbove(srcLines, d.rng.StartLine),
			IsExported:    lang.IsExported(d.name, language),
		}
		d.node = n
		res.Nodes = append(res.Nodes, n)
	}

	for _, d := range defs {
		parentID := res.FileNode.ID
		if d.parent >= 0 && defs[d.parent].node != nil {
			parentID = defs[d.parent].node.ID
		}
		res.Edges = append(res.Edges, &graph.Edge{
			SourceID:     parentID,
			TargetID:     d.node.ID,
			TargetSymbol: d.node.Name,
			Kind:         graph.EdgeContains,
			Confidence:   1.0,
			FilePath:     relPath,
			Range:        d.rng,
		})
	}
}

// buildRefs turns edge matches into unresolved references (and resolves
// intra-file extends/implements directly).
func (x *Extractor) buildRefs(res *Result, defs []*def, matches []query.Match, relPath string, language lang.Language) {
	byName := make(map[string]*graph.Node, len(defs))
	for _, d := range defs {
		if d.node != nil {
			if _, seen := byName[d.name]; !seen {
				byName[d.name] = d.node
			}
		}
	}

	enclosing := func(startByte uint) *graph.Node {
		best := -1
		var bestSpan uint = ^uint(0)
		for j, p := range defs {
			if p.startByte <= startByte && startByte < p.endByte {
				span := p.endByte - p.startByte
				if span < bestSpan {
					bestSpan = span
					best = j
				}
			}
		}
		if best >= 0 && defs[best].node != nil {
			return defs[best].node
		}
		return res.FileNode
	}

	for _, m := range matches {
		switch m.Kind {
		case "call":
			x.buildCallRef(res, m, enclosing, relPath, language)
		case "import":
			pathCap := m.Get("path")
			if pathCap == nil {
				continue
			}
			res.Refs = append(res.Refs, &graph.Edge{
				SourceID:     res.FileNode.ID,
				TargetSymbol: trimImportPath(pathCap.Text),
				Kind:         graph.EdgeImports,
				FilePath:     relPath,
				Range:        pathCap.Range,
			})
		case "extends":
			baseCap := m.Get("base")
			if baseCap == nil {
				continue
			}
			src := enclosing(baseCap.StartByte)
			x.linkHierarchy(res, src, baseCap, graph.EdgeExtends, byName, relPath)
		case "implements":
			ifaceCap := m.Get("iface")
			if ifaceCap == nil {
				continue
			}
			src := enclosing(ifaceCap.StartByte)
			// Rust-style impl blocks carry the implementing type in @base.
			if baseCap := m.Get("base"); baseCap != nil {
				if n, ok := byName[baseCap.Text]; ok {
					src = n
				}
			}
			x.linkHierarchy(res, src, ifaceCap, graph.EdgeImplements, byName, relPath)
		}
	}
}

func (x *Extractor) buildCallRef(res *Result, m query.Match, enclosing func(uint) *graph.Node, relPath string, language lang.Language) {
	calleeCap := m.Get("callee")
	if calleeCap == nil {
		return
	}
	callee := strings.TrimSpace(calleeCap.Text)
	if callee == "" {
		return
	}

	// Ruby require calls are imports, not calls.
	if language == lang.Ruby && (callee == "require" || callee == "require_relative") {
		if pathCap := m.Get("path"); pathCap != nil {
			res.Refs = append(res.Refs, &graph.Edge{
				SourceID:     res.FileNode.ID,
				TargetSymbol: trimImportPath(pathCap.Text),
				Kind:         graph.EdgeImports,
				FilePath:     relPath,
				Range:        pathCap.Range,
			})
		}
		return
	}

	src := enclosing(calleeCap.StartByte)
	res.Refs = append(res.Refs, &graph.Edge{
		SourceID:     src.ID,
		TargetSymbol: callee,
		Kind:         graph.EdgeCalls,
		FilePath:     relPath,
		Range:        calleeCap.Range,
	})
}

// linkHierarchy emits an extends/implements edge: resolved with full
// confidence when the base is declared in the same file, otherwise an
// unresolved reference retaining the symbol.
func (x *Extractor) linkHierarchy(res *Result, src *graph.Node, c *query.Capture, kind graph.EdgeKind, byName map[string]*graph.Node, relPath string) {
	if src == nil || src == res.FileNode {
		// A hierarchy clause outside any definition is malformed input.
		slog.Debug("extract.hierarchy.orphan", "path", relPath, "symbol", c.Text)
		return
	}
	e := &graph.Edge{
		SourceID:     src.ID,
		TargetSymbol: c.Text,
		Kind:         kind,
		FilePath:     relPath,
		Range:        c.Range,
	}
	if target, ok := byName[c.Text]; ok && target.ID != src.ID {
		e.TargetID = target.ID
		e.Confidence = 1.0
		res.Edges = append(res.Edges, e)
		return
	}
	res.Refs = append(res.Refs, e)
}

func parentName(defs []*def, d *def) string {
	if d.parent < 0 {
		return ""
	}
	return defs[d.parent].name
}

// classifySpecialMethod maps constructor/destructor names onto their
// own kinds.
func classifySpecialMethod(kind graph.NodeKind, name, parent string, spec *lang.LanguageSpec) graph.NodeKind {
	if spec == nil {
		return kind
	}
	for _, c := range spec.ConstructorNames {
		if name == c {
			return graph.KindConstructor
		}
	}
	for _, dtor := range spec.DestructorNames {
		if dtor == "~" {
			if parent != "" && name == "~"+parent {
				return graph.KindDestructor
			}
			continue
		}
		if name == dtor {
			return graph.KindDestructor
		}
	}
	// C++/Java style: method named like its class is a constructor.
	if parent != "" && name == parent && kind == graph.KindMethod {
		return graph.KindConstructor
	}
	return kind
}

func kindFor(capture string) graph.NodeKind {
	switch capture {
	case "function":
		return graph.KindFunction
	case "method":
		return graph.KindMethod
	case "constructor":
		return graph.KindConstructor
	case "destructor":
		return graph.KindDestructor
	case "class":
		return graph.KindClass
	case "struct":
		return graph.KindStruct
	case "interface":
		return graph.KindInterface
	case "trait":
		return graph.KindTrait
	case "enum":
		return graph.KindEnum
	case "module":
		return graph.KindModule
	case "type_alias":
		return graph.KindTypeAlias
	case "constant":
		return graph.KindConstant
	case "variable":
		return graph.KindVariable
	default:
		return graph.KindUnknown
	}
}

func isContainerKind(k graph.NodeKind) bool {
	switch k {
	case graph.KindClass, graph.KindStruct, graph.KindInterface,
		graph.KindTrait, graph.KindEnum, graph.KindModule:
		return true
	}
	return false
}

// signatureOf returns the definition's header: text up to the body
// opener or first line break, whichever comes first.
func signatureOf(text string) string {
	cut := len(text)
	if i := strings.IndexAny(text, "{\n"); i >= 0 {
		cut = i
	}
	sig := strings.TrimSpace(text[:cut])
	// Python/Ruby headers end with a delimiter worth trimming.
	sig = strings.TrimSuffix(sig, ":")
	if len(sig) > 200 {
		sig = sig[:200]
	}
	return sig
}

// trimImportPath strips the quote or angle-bracket wrapping from an
// import path capture.
func trimImportPath(p string) string {
	p = strings.TrimSpace(p)
	p = strings.Trim(p, `"'`)
	p = strings.TrimPrefix(p, "<")
	p = strings.TrimSuffix(p, ">")
	return p
}

// stripBOM removes a UTF-8 BOM from the start of source. Common in
// C#/Windows-generated files; the hash still covers the raw bytes.
func stripBOM(source []byte) []byte {
	if len(source) >= 3 && source[0] == 0xEF && source[1] == 0xBB && source[2] == 0xBF {
		return source[3:]
	}
	return source
}

func countLines(source []byte) int {
	n := 1
	for _, b := range source {
		if b == '\n' {
			n++
		}
	}
	return n
}
