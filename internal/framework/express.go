package framework

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/codeatlas/codeatlas/internal/graph"
	"github.com/codeatlas/codeatlas/internal/lang"
)

// expressRoutePattern matches app.get('/path', handler) and router
// variants across the HTTP verbs.
var expressRoutePattern = regexp.MustCompile(`\b(\w+)\.(get|post|put|delete|patch|all|use)\(\s*['"` + "`" + `]([^'"` + "`" + `]+)['"` + "`" + `]\s*,\s*(\w+)?`)

// Express detects Express projects and extracts route registrations.
func Express() Resolver {
	return Resolver{
		Name:   "express",
		Detect: detectExpress,
		ExtractNodes: func(relPath string, content []byte) []*graph.Node {
			if !isJSFile(relPath) {
				return nil
			}
			return expressRoutes(relPath, content)
		},
		Resolve: resolveExpressRef,
	}
}

func detectExpress(ctx Context) bool {
	if !ctx.FileExists("package.json") {
		return false
	}
	data, err := ctx.ReadFile("package.json")
	return err == nil && bytes.Contains(data, []byte(`"express"`))
}

func isJSFile(path string) bool {
	for _, ext := range []string{".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx"} {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func expressRoutes(relPath string, content []byte) []*graph.Node {
	lines := strings.Split(string(content), "\n")
	var nodes []*graph.Node

	for i, line := range lines {
		m := expressRoutePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		verb, urlPath, handler := strings.ToUpper(m[2]), m[3], m[4]
		if verb == "USE" && !strings.HasPrefix(urlPath, "/") {
			continue // app.use('middleware') without a mount path
		}

		name := verb + " " + urlPath
		qn := name
		if handler != "" {
			qn = name + "#" + handler
		}
		startLine := i + 1
		nodes = append(nodes, &graph.Node{
			ID:            graph.NodeID(graph.KindRoute, relPath, qn, startLine),
			Kind:          graph.KindRoute,
			Name:          name,
			QualifiedName: qn,
			FilePath:      relPath,
			Language:      lang.JavaScript,
			Range:         graph.Range{StartLine: startLine, StartColumn: 1, EndLine: startLine, EndColumn: len(line) + 1},
			Signature:     strings.TrimSpace(line),
			IsExported:    true,
		})
	}
	return nodes
}

// resolveExpressRef answers references that name a registered route
// handler.
func resolveExpressRef(ref *graph.Edge, ctx Context) *ResolvedRef {
	name := simpleRefName(ref.TargetSymbol)
	for _, path := range ctx.AllFiles() {
		if !isJSFile(path) {
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
				return &ResolvedRef{TargetNodeID: n.ID, Confidence: 0.75, ResolvedBy: "express"}
			}
		}
	}
	return nil
}
