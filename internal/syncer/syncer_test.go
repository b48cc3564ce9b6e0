package syncer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/codeatlas/codeatlas/internal/discover"
	"github.com/codeatlas/codeatlas/internal/errs"
	"github.com/codeatlas/codeatlas/internal/extract"
	"github.com/codeatlas/codeatlas/internal/graph"
	"github.com/codeatlas/codeatlas/internal/query"
	"github.com/codeatlas/codeatlas/internal/store"
)

type fixture struct {
	t    *testing.T
	root string
	st   *store.Store
	sync *Syncer
}

func newFixture(t *testing.T, opts discover.Options) *fixture {
	t.Helper()
	st, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	root := t.TempDir()
	return &fixture{
		t:    t,
		root: root,
		st:   st,
		sync: New(st, root, extract.New(query.NewEngine()), opts, nil, nil),
	}
}

func (f *fixture) write(rel, content string) {
	f.t.Helper()
	path := filepath.Join(f.root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		f.t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		f.t.Fatalf("WriteFile: %v", err)
	}
}

func (f *fixture) run() *Summary {
	f.t.Helper()
	summary, err := f.sync.Sync(context.Background())
	if err != nil {
		f.t.Fatalf("Sync: %v", err)
	}
	return summary
}

func TestInitialIndexAndNoopSync(t *testing.T) {
	f := newFixture(t, discover.Options{})
	f.write("a.py", "def alpha():\n    return beta()\n\ndef beta():\n    return 1\n")

	s1 := f.run()
	if s1.FilesAdded != 1 || s1.FilesModified != 0 || s1.FilesRemoved != 0 {
		t.Fatalf("initial sync: %+v", s1)
	}

	nodes, _ := f.st.GetNodesByFile("a.py")
	if len(nodes) != 3 { // file + alpha + beta
		t.Fatalf("nodes in a.py = %d, want 3", len(nodes))
	}

	// The intra-file call resolves via the pipeline's resolver run.
	alpha, _ := f.st.GetNodesByName("alpha")
	beta, _ := f.st.GetNodesByName("beta")
	if len(alpha) != 1 || len(beta) != 1 {
		t.Fatalf("alpha=%d beta=%d", len(alpha), len(beta))
	}
	callers, _ := f.st.GetCallers(beta[0].ID)
	if len(callers) != 1 || callers[0].ID != alpha[0].ID {
		t.Fatalf("callers of beta: %+v", callers)
	}

	// Round-trip: a no-change sync leaves everything untouched.
	nodesBefore, _ := f.st.CountNodes()
	edgesBefore, _ := f.st.CountEdges()
	rec, _ := f.st.GetFile("a.py")

	s2 := f.run()
	if s2.FilesAdded != 0 || s2.FilesModified != 0 || s2.FilesRemoved != 0 {
		t.Fatalf("noop sync: %+v", s2)
	}
	nodesAfter, _ := f.st.CountNodes()
	edgesAfter, _ := f.st.CountEdges()
	if nodesAfter != nodesBefore || edgesAfter != edgesBefore {
		t.Errorf("counts changed on noop sync: nodes %d→%d edges %d→%d",
			nodesBefore, nodesAfter, edgesBefore, edgesAfter)
	}
	rec2, _ := f.st.GetFile("a.py")
	if !rec2.UpdatedAt.Equal(rec.UpdatedAt) {
		t.Error("updatedAt must not move for unchanged files")
	}
}

func TestSyncAfterRename(t *testing.T) {
	f := newFixture(t, discover.Options{})
	f.write("old.py", "def f():\n    return 1\n")
	f.run()

	oldNodes, _ := f.st.GetNodesByName("f")
	if len(oldNodes) != 1 {
		t.Fatalf("expected f at old.py, got %+v", oldNodes)
	}
	oldID := oldNodes[0].ID

	if err := os.Rename(filepath.Join(f.root, "old.py"), filepath.Join(f.root, "new.py")); err != nil {
		t.Fatalf("rename: %v", err)
	}

	s := f.run()
	if s.FilesAdded != 1 || s.FilesModified != 0 || s.FilesRemoved != 1 {
		t.Fatalf("rename sync: %+v", s)
	}

	nodes, _ := f.st.GetNodesByName("f")
	if len(nodes) != 1 {
		t.Fatalf("queries by name f must return exactly one result, got %d", len(nodes))
	}
	if nodes[0].FilePath != "new.py" {
		t.Errorf("f lives at %s, want new.py", nodes[0].FilePath)
	}
	if nodes[0].ID == oldID {
		t.Error("the renamed node must have a different ID")
	}
	if n, _ := f.st.GetNodeByID(oldID); n != nil {
		t.Error("the old node must be absent")
	}
}

func TestSyncModifiedFile(t *testing.T) {
	f := newFixture(t, discover.Options{})
	f.write("m.py", "def one():\n    pass\n")
	f.run()

	f.write("m.py", "def one():\n    pass\n\ndef two():\n    pass\n")
	s := f.run()
	if s.FilesModified != 1 || s.FilesAdded != 0 {
		t.Fatalf("modified sync: %+v", s)
	}

	// No stragglers: the file's node set is exactly the re-extraction.
	nodes, _ := f.st.GetNodesByFile("m.py")
	names := map[string]bool{}
	for _, n := range nodes {
		names[n.Name] = true
	}
	if len(nodes) != 3 || !names["one"] || !names["two"] {
		t.Fatalf("nodes after modify: %+v", names)
	}
}

func TestOversizedFileSkipped(t *testing.T) {
	f := newFixture(t, discover.Options{MaxFileSize: 64})
	f.write("big.py", "def pad():\n    pass\n"+strings.Repeat("# filler\n", 50))
	f.write("ok.py", "def ok():\n    pass\n")

	s := f.run()
	if s.FilesAdded != 1 {
		t.Fatalf("only ok.py should index: %+v", s)
	}
	var warned bool
	for _, w := range s.Errors {
		if w.Kind == errs.OversizedFile && w.Path == "big.py" {
			warned = true
		}
	}
	if !warned {
		t.Error("expected an OversizedFile warning for big.py")
	}
	if nodes, _ := f.st.GetNodesByFile("big.py"); len(nodes) != 0 {
		t.Error("oversized file must yield no nodes")
	}

	// A later sync does not re-attempt it while still oversized.
	s2 := f.run()
	if s2.FilesAdded != 0 || s2.FilesModified != 0 {
		t.Fatalf("oversized file re-attempted: %+v", s2)
	}
}

func TestParseErrorWarned(t *testing.T) {
	f := newFixture(t, discover.Options{})
	f.write("broken.py", "def ok():\n    return 1\n\ndef broken(:\n")

	s := f.run()
	var warned bool
	for _, w := range s.Errors {
		if w.Kind == errs.ParseFailure && w.Path == "broken.py" {
			warned = true
		}
	}
	if !warned {
		t.Error("expected a ParseFailure warning")
	}

	nodes, _ := f.st.GetNodesByFile("broken.py")
	var hasFile, hasOK bool
	for _, n := range nodes {
		if n.Kind == graph.KindFile {
			hasFile = true
		}
		if n.Name == "ok" {
			hasOK = true
		}
	}
	if !hasFile || !hasOK {
		t.Errorf("partial extraction expected, got %+v", nodes)
	}
}

func TestImportCycleAcrossSync(t *testing.T) {
	f := newFixture(t, discover.Options{})
	f.write("a.ts", "import { b } from \"./b\";\nexport function a() { return b(); }\n")
	f.write("b.ts", "import { a } from \"./a\";\nexport function b() { return a(); }\n")

	f.run()

	cycles, err := f.st.FindCircularDependencies()
	if err != nil {
		t.Fatalf("FindCircularDependencies: %v", err)
	}
	if len(cycles) != 1 {
		t.Fatalf("expected exactly one cycle, got %d: %+v", len(cycles), cycles)
	}
	if len(cycles[0].Files) != 2 {
		t.Fatalf("cycle length = %d, want 2", len(cycles[0].Files))
	}
	members := map[string]bool{}
	for _, p := range cycles[0].Files {
		members[p] = true
	}
	if !members["a.ts"] || !members["b.ts"] {
		t.Errorf("cycle members: %v", cycles[0].Files)
	}
}

func TestForwardDiscovery(t *testing.T) {
	f := newFixture(t, discover.Options{})
	f.write("caller.py", "def main():\n    return late()\n")
	f.run()

	unresolved, _ := f.st.UnresolvedEdgesByFile("caller.py")
	if len(unresolved) == 0 {
		t.Fatal("call to late() should be unresolved initially")
	}

	// The definition appears in a later sync; the old reference
	// resolves without touching caller.py.
	f.write("late.py", "def late():\n    return 1\n")
	f.run()

	still, _ := f.st.UnresolvedEdgesByFile("caller.py")
	if len(still) != 0 {
		t.Errorf("forward discovery should resolve the stale ref: %+v", still)
	}
}

func TestCancellationAtFileBoundary(t *testing.T) {
	f := newFixture(t, discover.Options{})
	f.write("x.py", "def x():\n    pass\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.sync.Sync(ctx); err == nil {
		t.Error("cancelled sync must return an error")
	}
}
