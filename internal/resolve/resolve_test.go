package resolve

import (
	"context"
	"testing"

	"github.com/codeatlas/codeatlas/internal/graph"
	"github.com/codeatlas/codeatlas/internal/lang"
	"github.com/codeatlas/codeatlas/internal/store"
)

// harness builds stores with hand-assembled graphs.
type harness struct {
	t  *testing.T
	st *store.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	st, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return &harness{t: t, st: st}
}

func (h *harness) file(path string, l lang.Language) *graph.Node {
	h.t.Helper()
	if err := h.st.UpsertFile(&graph.FileRecord{
		Path: path, Language: l, Hash: "h", Size: 1, ModTime: store.Now(),
	}); err != nil {
		h.t.Fatalf("UpsertFile: %v", err)
	}
	n := &graph.Node{
		ID: graph.NodeID(graph.KindFile, path, path, 1), Kind: graph.KindFile,
		Name: path, QualifiedName: path, FilePath: path, Language: l,
		Range: graph.Range{StartLine: 1, StartColumn: 1, EndLine: 100, EndColumn: 1},
		IsExported: true,
	}
	if err := h.st.UpsertNode(n); err != nil {
		h.t.Fatalf("UpsertNode: %v", err)
	}
	return n
}

func (h *harness) node(kind graph.NodeKind, path, qn, name string, line int, exported bool, parent *graph.Node) *graph.Node {
	h.t.Helper()
	n := &graph.Node{
		ID: graph.NodeID(kind, path, qn, line), Kind: kind,
		Name: name, QualifiedName: qn, FilePath: path, Language: lang.Python,
		Range:      graph.Range{StartLine: line, StartColumn: 1, EndLine: line + 2, EndColumn: 1},
		IsExported: exported,
	}
	if err := h.st.UpsertNode(n); err != nil {
		h.t.Fatalf("UpsertNode: %v", err)
	}
	if parent != nil {
		h.edge(parent, n, graph.EdgeContains, 1.0)
	}
	return n
}

func (h *harness) edge(from, to *graph.Node, kind graph.EdgeKind, conf float64) {
	h.t.Helper()
	err := h.st.InsertEdge(&graph.Edge{
		SourceID: from.ID, TargetID: to.ID, TargetSymbol: to.Name,
		Kind: kind, Confidence: conf, FilePath: from.FilePath,
		Range: to.Range,
	})
	if err != nil {
		h.t.Fatalf("InsertEdge: %v", err)
	}
}

// ref inserts an unresolved reference edge and returns it after a
// store round-trip so its ID is set.
func (h *harness) ref(from *graph.Node, symbol string, kind graph.EdgeKind, line int) *graph.Edge {
	h.t.Helper()
	err := h.st.InsertEdge(&graph.Edge{
		SourceID: from.ID, TargetSymbol: symbol, Kind: kind,
		FilePath: from.FilePath, Range: graph.Range{StartLine: line, StartColumn: 1},
	})
	if err != nil {
		h.t.Fatalf("InsertEdge: %v", err)
	}
	edges, err := h.st.UnresolvedEdgesByFile(from.FilePath)
	if err != nil {
		h.t.Fatalf("UnresolvedEdgesByFile: %v", err)
	}
	for _, e := range edges {
		if e.SourceID == from.ID && e.TargetSymbol == symbol && e.Range.StartLine == line {
			return e
		}
	}
	h.t.Fatal("inserted ref not found")
	return nil
}

func (h *harness) resolveAll() {
	h.t.Helper()
	r := New(h.st, nil, nil)
	if _, err := r.ResolveAll(context.Background()); err != nil {
		h.t.Fatalf("ResolveAll: %v", err)
	}
}

func (h *harness) resolvedTarget(e *graph.Edge) (string, float64) {
	h.t.Helper()
	edges, err := h.st.GetOutgoingEdges(e.SourceID, e.Kind)
	if err != nil {
		h.t.Fatalf("GetOutgoingEdges: %v", err)
	}
	for _, got := range edges {
		if got.ID == e.ID {
			return got.TargetID, got.Confidence
		}
	}
	return "", 0
}

func TestLocalPass(t *testing.T) {
	h := newHarness(t)
	f := h.file("a.py", lang.Python)
	outer := h.node(graph.KindFunction, "a.py", "outer", "outer", 2, true, f)
	helper := h.node(graph.KindFunction, "a.py", "outer.helper", "helper", 3, false, outer)

	e := h.ref(outer, "helper", graph.EdgeCalls, 5)
	h.resolveAll()

	target, conf := h.resolvedTarget(e)
	if target != helper.ID || conf != ConfidenceLocal {
		t.Errorf("local pass: target=%s conf=%v", target, conf)
	}
}

func TestClassPass(t *testing.T) {
	h := newHarness(t)
	f := h.file("auth.py", lang.Python)
	svc := h.node(graph.KindClass, "auth.py", "AuthService", "AuthService", 2, true, f)
	validate := h.node(graph.KindMethod, "auth.py", "AuthService.validate", "validate", 5, true, svc)
	login := h.node(graph.KindMethod, "auth.py", "AuthService.login", "login", 10, true, svc)

	e := h.ref(login, "self.validate", graph.EdgeCalls, 11)
	h.resolveAll()

	target, conf := h.resolvedTarget(e)
	if target != validate.ID {
		t.Fatalf("class pass target = %s, want validate", target)
	}
	if conf != ConfidenceClass {
		t.Errorf("class pass confidence = %v, want %v", conf, ConfidenceClass)
	}
}

func TestClassHierarchyPass(t *testing.T) {
	h := newHarness(t)
	f := h.file("m.py", lang.Python)
	base := h.node(graph.KindClass, "m.py", "Base", "Base", 2, true, f)
	baseRun := h.node(graph.KindMethod, "m.py", "Base.run", "run", 3, true, base)
	child := h.node(graph.KindClass, "m.py", "Child", "Child", 10, true, f)
	caller := h.node(graph.KindMethod, "m.py", "Child.go", "go", 11, true, child)
	h.edge(child, base, graph.EdgeExtends, 1.0)

	e := h.ref(caller, "run", graph.EdgeCalls, 12)
	h.resolveAll()

	target, conf := h.resolvedTarget(e)
	if target != baseRun.ID || conf != ConfidenceClass {
		t.Errorf("hierarchy pass: target=%s conf=%v", target, conf)
	}
}

func TestImportPass(t *testing.T) {
	h := newHarness(t)
	fa := h.file("a.py", lang.Python)
	fb := h.file("b.py", lang.Python)
	caller := h.node(graph.KindFunction, "a.py", "main", "main", 2, true, fa)
	exported := h.node(graph.KindFunction, "b.py", "exported", "exported", 2, true, fb)
	h.node(graph.KindFunction, "b.py", "_hidden", "_hidden", 9, false, fb)
	h.edge(fa, fb, graph.EdgeImports, 1.0)

	e := h.ref(caller, "exported", graph.EdgeCalls, 3)
	hidden := h.ref(caller, "_hidden", graph.EdgeCalls, 4)
	h.resolveAll()

	target, conf := h.resolvedTarget(e)
	if target != exported.ID || conf != ConfidenceImport {
		t.Errorf("import pass: target=%s conf=%v", target, conf)
	}

	// Unexported symbols are not importable; the global fallback still
	// finds the node, at its lower confidence.
	htarget, hconf := h.resolvedTarget(hidden)
	if htarget == "" {
		t.Fatal("global fallback should still resolve _hidden")
	}
	if hconf != ConfidenceGlobal {
		t.Errorf("_hidden confidence = %v, want %v", hconf, ConfidenceGlobal)
	}
}

func TestGlobalFallbackLexOrder(t *testing.T) {
	h := newHarness(t)
	fa := h.file("a.py", lang.Python)
	f1 := h.file("z1.py", lang.Python)
	f2 := h.file("z2.py", lang.Python)
	caller := h.node(graph.KindFunction, "a.py", "main", "main", 2, true, fa)
	first := h.node(graph.KindFunction, "z1.py", "dup", "dup", 2, true, f1)
	h.node(graph.KindFunction, "z2.py", "dup", "dup", 2, true, f2)

	e := h.ref(caller, "dup", graph.EdgeCalls, 3)
	h.resolveAll()

	target, conf := h.resolvedTarget(e)
	if target != first.ID {
		t.Errorf("ambiguity should resolve first by file path lex order")
	}
	if conf != ConfidenceGlobal {
		t.Errorf("global confidence = %v, want %v", conf, ConfidenceGlobal)
	}
}

func TestUnresolvedRetainsSymbol(t *testing.T) {
	h := newHarness(t)
	f := h.file("a.py", lang.Python)
	caller := h.node(graph.KindFunction, "a.py", "main", "main", 2, true, f)

	h.ref(caller, "TInterfacedObject", graph.EdgeExtends, 3)
	h.resolveAll()

	unresolved, err := h.st.UnresolvedEdgesByFile("a.py")
	if err != nil {
		t.Fatalf("UnresolvedEdgesByFile: %v", err)
	}
	if len(unresolved) != 1 || unresolved[0].TargetSymbol != "TInterfacedObject" {
		t.Fatalf("symbol must be retained on the unresolved edge: %+v", unresolved)
	}
}

func TestImportEdgeResolution(t *testing.T) {
	h := newHarness(t)
	fa := h.file("src/a.ts", lang.TypeScript)
	fb := h.file("src/b.ts", lang.TypeScript)

	// Relative import ./b from src/a.ts.
	e := h.ref(fa, "./b", graph.EdgeImports, 1)
	h.resolveAll()

	target, conf := h.resolvedTarget(e)
	if target != fb.ID || conf != 1.0 {
		t.Errorf("import resolution: target=%s conf=%v", target, conf)
	}
}

func TestImportNamespaceNormalized(t *testing.T) {
	h := newHarness(t)
	fa := h.file("app.py", lang.Python)
	fc := h.file("pkg/deep/c.py", lang.Python)

	// A.B.C style spec maps onto the file base name c.py.
	e := h.ref(fa, "A.B.C", graph.EdgeImports, 1)
	h.resolveAll()

	target, _ := h.resolvedTarget(e)
	if target != fc.ID {
		t.Errorf("namespace-normalized import should hit pkg/deep/c.py, got %s", target)
	}
}

func TestImportCaseInsensitive(t *testing.T) {
	h := newHarness(t)
	fa := h.file("main.cs", lang.CSharp)
	fb := h.file("Util.cs", lang.CSharp)

	e := h.ref(fa, "util.cs", graph.EdgeImports, 1)
	h.resolveAll()

	target, _ := h.resolvedTarget(e)
	if target != fb.ID {
		t.Errorf("case-insensitive import should hit Util.cs, got %s", target)
	}
}

func TestSplitSymbol(t *testing.T) {
	cases := []struct {
		in, qualifier, name string
	}{
		{"Foo", "", "Foo"},
		{"Obj.Bar", "Obj", "Bar"},
		{"self.validate", "self", "validate"},
		{"a::b::c", "b", "c"},
		{"ptr->field", "ptr", "field"},
	}
	for _, c := range cases {
		q, n := splitSymbol(c.in)
		if q != c.qualifier || n != c.name {
			t.Errorf("splitSymbol(%q) = (%q, %q), want (%q, %q)", c.in, q, n, c.qualifier, c.name)
		}
	}
}
