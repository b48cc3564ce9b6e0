package framework

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/codeatlas/codeatlas/internal/graph"
	"github.com/codeatlas/codeatlas/internal/lang"
)

// flaskRoutePattern matches @app.route("/path") and blueprint variants.
var flaskRoutePattern = regexp.MustCompile(`@(\w+)\.(?:route|get|post|put|delete|patch)\(\s*['"]([^'"]+)['"]`)

// flaskViewPattern matches the decorated view function header.
var flaskViewPattern = regexp.MustCompile(`^\s*(?:async\s+)?def\s+(\w+)\s*\(`)

// Flask detects Flask projects and extracts route nodes from decorator
// forms that generic extraction cannot see.
func Flask() Resolver {
	return Resolver{
		Name:   "flask",
		Detect: detectFlask,
		ExtractNodes: func(relPath string, content []byte) []*graph.Node {
			if !strings.HasSuffix(relPath, ".py") {
				return nil
			}
			return flaskRoutes(relPath, content)
		},
		Resolve: resolveFlaskRef,
	}
}

func detectFlask(ctx Context) bool {
	for _, manifest := range []string{"requirements.txt", "pyproject.toml", "Pipfile"} {
		if !ctx.FileExists(manifest) {
			continue
		}
		data, err := ctx.ReadFile(manifest)
		if err == nil && bytes.Contains(bytes.ToLower(data), []byte("flask")) {
			return true
		}
	}
	return false
}

// flaskRoutes scans a Python file for route decorators. Each route node
// is named by its URL path; the qualified name appends the view
// function so two views can share a path with different methods.
func flaskRoutes(relPath string, content []byte) []*graph.Node {
	lines := strings.Split(string(content), "\n")
	var nodes []*graph.Node

	for i, line := range lines {
		m := flaskRoutePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		urlPath := m[2]
		view := ""
		// The decorated def follows within a few lines (more decorators
		// may sit in between).
		for j := i + 1; j < len(lines) && j <= i+5; j++ {
			if vm := flaskViewPattern.FindStringSubmatch(lines[j]); vm != nil {
				view = vm[1]
				break
			}
		}

		qn := urlPath
		if view != "" {
			qn = urlPath + "#" + view
		}
		startLine := i + 1
		nodes = append(nodes, &graph.Node{
			ID:            graph.NodeID(graph.KindRoute, relPath, qn, startLine),
			Kind:          graph.KindRoute,
			Name:          urlPath,
			QualifiedName: qn,
			FilePath:      relPath,
			Language:      lang.Python,
			Range:         graph.Range{StartLine: startLine, StartColumn: 1, EndLine: startLine, EndColumn: len(line) + 1},
			Signature:     strings.TrimSpace(line),
			IsExported:    true,
		})
	}
	return nodes
}

// resolveFlaskRef answers references that name a decorated view
// function or a route path.
func resolveFlaskRef(ref *graph.Edge, ctx Context) *ResolvedRef {
	name := simpleRefName(ref.TargetSymbol)
	for _, path := range ctx.AllFiles() {
		if !strings.HasSuffix(path, ".py") {
			continue
		}
		nodes, err := ctx.NodesInFile(path)
		if err != nil {
			continue
		}
		for _, n := range nodes {
			if n.Kind != graph.KindRoute {
				continue
			}
			if n.Name == ref.TargetSymbol || strings.HasSuffix(n.QualifiedName, "#"+name) {
				return &ResolvedRef{TargetNodeID: n.ID, Confidence: 0.8, ResolvedBy: "flask"}
			}
		}
	}
	return nil
}

// simpleRefName extracts the last identifier segment of a reference.
func simpleRefName(sym string) string {
	for _, sep := range []string{"::", "->", "."} {
		if i := strings.LastIndex(sym, sep); i >= 0 {
			sym = sym[i+len(sep):]
		}
	}
	return sym
}
