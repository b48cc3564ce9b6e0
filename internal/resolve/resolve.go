// Package resolve turns name-based references into edges with concrete
// target node IDs via ordered best-effort passes.
package resolve

import (
	"context"
	"log/slog"
	"path"
	"strings"

	"github.com/codeatlas/codeatlas/internal/framework"
	"github.com/codeatlas/codeatlas/internal/graph"
	"github.com/codeatlas/codeatlas/internal/lang"
	"github.com/codeatlas/codeatlas/internal/store"
)

// Pass confidences. Framework resolvers report their own.
const (
	ConfidenceLocal  = 1.0
	ConfidenceClass  = 0.95
	ConfidenceImport = 0.9
	ConfidenceGlobal = 0.5
)

// Resolver executes the ordered resolution passes over unresolved edges.
type Resolver struct {
	st     *store.Store
	active []framework.Resolver
	fwctx  framework.Context

	// per-run caches
	nodeCache   map[string]*graph.Node
	parentCache map[string]string
}

// New creates a Resolver. active is the detected framework resolver
// subset in registry order; fwctx is the read-only project view handed
// to them.
func New(st *store.Store, active []framework.Resolver, fwctx framework.Context) *Resolver {
	return &Resolver{
		st:          st,
		active:      active,
		fwctx:       fwctx,
		nodeCache:   make(map[string]*graph.Node),
		parentCache: make(map[string]string),
	}
}

// ResolveAll resolves every unresolved edge in the store.
func (r *Resolver) ResolveAll(ctx context.Context) (int, error) {
	edges, err := r.st.UnresolvedEdgesByFile()
	if err != nil {
		return 0, err
	}
	return r.resolveEdges(ctx, edges)
}

// ResolveFiles resolves references sourced from the given files, plus
// previously-unresolved references anywhere whose symbol matches one of
// newNames (forward discovery after new nodes appear).
func (r *Resolver) ResolveFiles(ctx context.Context, paths []string, newNames []string) (int, error) {
	edges, err := r.st.UnresolvedEdgesByFile(paths...)
	if err != nil {
		return 0, err
	}
	if len(newNames) > 0 {
		extra, err := r.st.UnresolvedEdgesBySymbols(newNames)
		if err != nil {
			return 0, err
		}
		seen := make(map[int64]bool, len(edges))
		for _, e := range edges {
			seen[e.ID] = true
		}
		for _, e := range extra {
			if !seen[e.ID] {
				edges = append(edges, e)
			}
		}
	}
	return r.resolveEdges(ctx, edges)
}

// resolveEdges runs imports first so the import pass sees a complete
// file-level import graph, then everything else. Each successful
// resolution is a single atomic update.
func (r *Resolver) resolveEdges(ctx context.Context, edges []*graph.Edge) (int, error) {
	resolved := 0
	for _, e := range edges {
		if e.Kind != graph.EdgeImports {
			continue
		}
		if err := ctx.Err(); err != nil {
			return resolved, err
		}
		if r.resolveImport(e) {
			resolved++
		}
	}
	for _, e := range edges {
		if e.Kind == graph.EdgeImports {
			continue
		}
		if err := ctx.Err(); err != nil {
			return resolved, err
		}
		if r.resolveRef(e) {
			resolved++
		}
	}
	slog.Info("resolve.done", "considered", len(edges), "resolved", resolved)
	return resolved, nil
}

// resolveRef runs the ordered passes for one non-import reference.
// The first pass that yields a target wins.
func (r *Resolver) resolveRef(e *graph.Edge) bool {
	qualifier, name := splitSymbol(e.TargetSymbol)

	if id := r.passLocal(e, name); id != "" {
		return r.apply(e, id, ConfidenceLocal)
	}
	if id := r.passClass(e, qualifier, name); id != "" {
		return r.apply(e, id, ConfidenceClass)
	}
	if id := r.passImport(e, qualifier, name); id != "" {
		return r.apply(e, id, ConfidenceImport)
	}
	if rr := r.passFramework(e); rr != nil {
		return r.apply(e, rr.TargetNodeID, rr.Confidence)
	}
	if id, ambiguous := r.passGlobal(e, qualifier, name); id != "" {
		if ambiguous {
			slog.Debug("resolve.ambiguous", "symbol", e.TargetSymbol, "file", e.FilePath)
		}
		return r.apply(e, id, ConfidenceGlobal)
	}
	return false
}

func (r *Resolver) apply(e *graph.Edge, targetID string, confidence float64) bool {
	if targetID == e.SourceID {
		return false
	}
	if err := r.st.ResolveEdge(e.ID, targetID, confidence); err != nil {
		slog.Warn("resolve.apply.err", "edge", e.ID, "err", err)
		return false
	}
	e.TargetID = targetID
	e.Confidence = confidence
	return true
}

// passLocal searches the source's own scope: nodes contained in the
// source node or in its nearest enclosing function.
func (r *Resolver) passLocal(e *graph.Edge, name string) string {
	scopes := []string{e.SourceID}
	if fn := r.enclosingOfKind(e.SourceID, graph.KindFunction, graph.KindMethod, graph.KindConstructor); fn != "" && fn != e.SourceID {
		scopes = append(scopes, fn)
	}
	for _, scope := range scopes {
		for _, child := range r.children(scope) {
			if child.Name == name {
				return child.ID
			}
		}
	}
	return ""
}

// passClass searches the source's class and its hierarchy reachable
// through extends/implements edges within the index.
func (r *Resolver) passClass(e *graph.Edge, qualifier, name string) string {
	class := r.enclosingContainer(e.SourceID)
	if class == "" {
		return ""
	}

	visited := map[string]bool{}
	queue := []string{class}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true

		for _, member := range r.children(id) {
			if member.Name != name {
				continue
			}
			if qualifier != "" {
				if cls := r.node(id); cls != nil && cls.Name != qualifier && qualifier != "self" && qualifier != "this" {
					continue
				}
			}
			return member.ID
		}

		ancestors, err := r.st.GetOutgoingEdges(id, graph.EdgeExtends, graph.EdgeImplements)
		if err != nil {
			continue
		}
		for _, a := range ancestors {
			if a.Resolved() {
				queue = append(queue, a.TargetID)
			}
		}
	}
	return ""
}

// passImport searches exported symbols of files reached through the
// source file's resolved import edges.
func (r *Resolver) passImport(e *graph.Edge, qualifier, name string) string {
	fileNode := r.fileNode(e.FilePath)
	if fileNode == nil {
		return ""
	}
	imports, err := r.st.GetOutgoingEdges(fileNode.ID, graph.EdgeImports)
	if err != nil {
		return ""
	}
	for _, imp := range imports {
		if !imp.Resolved() {
			continue
		}
		target := r.node(imp.TargetID)
		if target == nil {
			continue
		}
		nodes, err := r.st.GetNodesByFile(target.FilePath)
		if err != nil {
			continue
		}
		for _, n := range nodes {
			if n.Kind == graph.KindFile || !n.IsExported {
				continue
			}
			if n.Name != name {
				continue
			}
			if qualifier != "" && !qualifierMatchesFile(qualifier, target.FilePath) && !strings.Contains(n.QualifiedName, qualifier) {
				continue
			}
			return n.ID
		}
	}
	return ""
}

// passFramework tries each active framework resolver in registry order.
func (r *Resolver) passFramework(e *graph.Edge) *framework.ResolvedRef {
	for _, fr := range r.active {
		if fr.Resolve == nil {
			continue
		}
		if rr := fr.Resolve(e, r.fwctx); rr != nil && rr.TargetNodeID != "" {
			return rr
		}
	}
	return nil
}

// passGlobal falls back to any node with a matching simple name across
// the index. Ambiguity resolves to the first by file path lex order —
// a documented policy, not an accident.
func (r *Resolver) passGlobal(e *graph.Edge, qualifier, name string) (string, bool) {
	candidates, err := r.st.GetNodesByName(name)
	if err != nil || len(candidates) == 0 {
		return "", false
	}

	filtered := candidates[:0:0]
	for _, c := range candidates {
		if c.Kind == graph.KindFile || c.ID == e.SourceID {
			continue
		}
		filtered = append(filtered, c)
	}
	if len(filtered) == 0 {
		return "", false
	}

	if qualifier != "" {
		for _, c := range filtered {
			if strings.HasSuffix(c.QualifiedName, qualifier+qualifierSep(c.Language)+name) {
				return c.ID, len(filtered) > 1
			}
		}
	}
	// Store order is (file_path, start_line); the head is the policy winner.
	return filtered[0].ID, len(filtered) > 1
}

// --- import edge resolution -------------------------------------------------

// resolveImport maps an import path to a file node: exact match, then
// case-insensitive, then namespace-normalized (A.B.C → C).
func (r *Resolver) resolveImport(e *graph.Edge) bool {
	target := r.findImportTarget(e.TargetSymbol, e.FilePath)
	if target == nil {
		return false
	}
	return r.apply(e, target.ID, 1.0)
}

func (r *Resolver) findImportTarget(spec, fromFile string) *graph.Node {
	files, err := r.st.AllFiles()
	if err != nil {
		return nil
	}

	candidates := importCandidates(spec, fromFile)

	// Exact path match.
	for _, f := range files {
		for _, c := range candidates {
			if f.Path == c {
				return r.fileNode(f.Path)
			}
		}
	}
	// Case-insensitive match.
	for _, f := range files {
		lower := strings.ToLower(f.Path)
		for _, c := range candidates {
			if lower == strings.ToLower(c) {
				return r.fileNode(f.Path)
			}
		}
	}
	// Namespace-normalized: the last segment against the file base name.
	last := lastSegment(spec)
	if last == "" {
		return nil
	}
	for _, f := range files {
		base := strings.TrimSuffix(path.Base(f.Path), path.Ext(f.Path))
		if strings.EqualFold(base, last) {
			return r.fileNode(f.Path)
		}
	}
	return nil
}

// importCandidates expands an import spec into plausible repo-relative
// paths, resolving leading ./ and ../ against the importing file.
func importCandidates(spec, fromFile string) []string {
	exts := []string{"", ".ts", ".tsx", ".js", ".jsx", ".mjs", ".py", ".go", ".rs", ".java", ".rb", ".php", ".cs", ".swift", ".kt", ".c", ".h", ".cpp", ".hpp"}

	normalized := strings.ReplaceAll(spec, ".", "/")
	raw := []string{spec, normalized}
	if strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") {
		joined := path.Join(path.Dir(fromFile), spec)
		raw = append(raw, joined)
	}

	var out []string
	for _, base := range raw {
		base = strings.TrimPrefix(base, "./")
		for _, ext := range exts {
			out = append(out, base+ext)
		}
	}
	return out
}

// --- helpers ----------------------------------------------------------------

func (r *Resolver) node(id string) *graph.Node {
	if n, ok := r.nodeCache[id]; ok {
		return n
	}
	n, err := r.st.GetNodeByID(id)
	if err != nil {
		return nil
	}
	r.nodeCache[id] = n
	return n
}

func (r *Resolver) fileNode(filePath string) *graph.Node {
	return r.node(graph.NodeID(graph.KindFile, filePath, filePath, 1))
}

// parent returns the contains-parent ID of a node, or "".
func (r *Resolver) parent(id string) string {
	if p, ok := r.parentCache[id]; ok {
		return p
	}
	incoming, err := r.st.GetIncomingEdges(id, graph.EdgeContains)
	p := ""
	if err == nil && len(incoming) > 0 {
		p = incoming[0].SourceID
	}
	r.parentCache[id] = p
	return p
}

func (r *Resolver) children(id string) []*graph.Node {
	out, err := r.st.GetOutgoingEdges(id, graph.EdgeContains)
	if err != nil {
		return nil
	}
	nodes := make([]*graph.Node, 0, len(out))
	for _, e := range out {
		if n := r.node(e.TargetID); n != nil {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// enclosingOfKind walks contains-parents up from id (inclusive) and
// returns the first node of one of the given kinds.
func (r *Resolver) enclosingOfKind(id string, kinds ...graph.NodeKind) string {
	cur := id
	for cur != "" {
		n := r.node(cur)
		if n == nil {
			return ""
		}
		for _, k := range kinds {
			if n.Kind == k {
				return cur
			}
		}
		if n.Kind == graph.KindFile {
			return ""
		}
		cur = r.parent(cur)
	}
	return ""
}

// enclosingContainer returns the nearest class-like ancestor of id.
func (r *Resolver) enclosingContainer(id string) string {
	return r.enclosingOfKind(id,
		graph.KindClass, graph.KindStruct, graph.KindInterface,
		graph.KindTrait, graph.KindEnum, graph.KindModule)
}

// splitSymbol separates a reference like "Obj.Bar" or "a::b::c" into
// qualifier and simple name.
func splitSymbol(sym string) (qualifier, name string) {
	name = sym
	for _, sep := range []string{"::", "->", "."} {
		if i := strings.LastIndex(name, sep); i >= 0 {
			qualifier = name[:i]
			name = name[i+len(sep):]
		}
	}
	// Keep only the qualifier's own last segment for matching.
	if qualifier != "" {
		qualifier = lastSegment(qualifier)
	}
	return qualifier, name
}

func lastSegment(s string) string {
	for _, sep := range []string{"::", "->", ".", "/"} {
		if i := strings.LastIndex(s, sep); i >= 0 {
			s = s[i+len(sep):]
		}
	}
	return s
}

func qualifierSep(l lang.Language) string {
	if spec := lang.ForLanguage(l); spec != nil {
		return spec.ScopeSeparator
	}
	return "."
}

func qualifierMatchesFile(qualifier, filePath string) bool {
	base := strings.TrimSuffix(path.Base(filePath), path.Ext(filePath))
	return strings.EqualFold(base, qualifier)
}
