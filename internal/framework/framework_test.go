package framework

import (
	"fmt"
	"testing"

	"github.com/codeatlas/codeatlas/internal/graph"
)

// fakeContext is an in-memory framework.Context.
type fakeContext struct {
	files map[string][]byte
	nodes map[string][]*graph.Node
}

func (c *fakeContext) ReadFile(relPath string) ([]byte, error) {
	data, ok := c.files[relPath]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", relPath)
	}
	return data, nil
}

func (c *fakeContext) FileExists(relPath string) bool {
	_, ok := c.files[relPath]
	return ok
}

func (c *fakeContext) AllFiles() []string {
	var out []string
	for p := range c.files {
		out = append(out, p)
	}
	return out
}

func (c *fakeContext) NodesInFile(relPath string) ([]*graph.Node, error) {
	return c.nodes[relPath], nil
}

func TestFlaskDetect(t *testing.T) {
	ctx := &fakeContext{files: map[string][]byte{
		"requirements.txt": []byte("Flask==3.0.0\nrequests\n"),
	}}
	if !detectFlask(ctx) {
		t.Error("flask should be detected from requirements.txt")
	}

	ctx = &fakeContext{files: map[string][]byte{
		"requirements.txt": []byte("django\n"),
	}}
	if detectFlask(ctx) {
		t.Error("flask should not be detected")
	}
}

func TestFlaskRouteExtraction(t *testing.T) {
	source := `from flask import Flask

app = Flask(__name__)

@app.route("/users/<id>")
def get_user(id):
    return lookup(id)

@app.post("/users")
def create_user():
    return save()
`
	nodes := flaskRoutes("app.py", []byte(source))
	if len(nodes) != 2 {
		t.Fatalf("routes = %d, want 2", len(nodes))
	}
	first := nodes[0]
	if first.Kind != graph.KindRoute || first.Name != "/users/<id>" {
		t.Errorf("first route: %+v", first)
	}
	if first.QualifiedName != "/users/<id>#get_user" {
		t.Errorf("route qn = %q", first.QualifiedName)
	}
	if first.FilePath != "app.py" || first.Range.StartLine != 5 {
		t.Errorf("route position: %s:%d", first.FilePath, first.Range.StartLine)
	}
}

func TestFlaskResolve(t *testing.T) {
	route := &graph.Node{
		ID:            "route-1",
		Kind:          graph.KindRoute,
		Name:          "/users",
		QualifiedName: "/users#create_user",
		FilePath:      "app.py",
	}
	ctx := &fakeContext{
		files: map[string][]byte{"app.py": nil},
		nodes: map[string][]*graph.Node{"app.py": {route}},
	}

	ref := &graph.Edge{TargetSymbol: "create_user", Kind: graph.EdgeCalls}
	rr := resolveFlaskRef(ref, ctx)
	if rr == nil || rr.TargetNodeID != "route-1" {
		t.Fatalf("resolve: %+v", rr)
	}
	if rr.ResolvedBy != "flask" || rr.Confidence <= 0 || rr.Confidence > 1 {
		t.Errorf("resolver metadata: %+v", rr)
	}

	miss := resolveFlaskRef(&graph.Edge{TargetSymbol: "unrelated"}, ctx)
	if miss != nil {
		t.Errorf("unexpected hit: %+v", miss)
	}
}

func TestExpressDetectAndExtract(t *testing.T) {
	ctx := &fakeContext{files: map[string][]byte{
		"package.json": []byte(`{"dependencies": {"express": "^4.18.0"}}`),
	}}
	if !detectExpress(ctx) {
		t.Error("express should be detected from package.json")
	}

	source := `const app = express();

app.get('/health', healthCheck);
app.post('/api/users', createUser);
app.use('/static', serveStatic);
`
	nodes := expressRoutes("server.js", []byte(source))
	if len(nodes) != 3 {
		t.Fatalf("routes = %d, want 3", len(nodes))
	}
	if nodes[0].Name != "GET /health" || nodes[0].QualifiedName != "GET /health#healthCheck" {
		t.Errorf("first route: %+v", nodes[0])
	}
}

func TestRegistryOrderAndHints(t *testing.T) {
	ctx := &fakeContext{files: map[string][]byte{}}

	// Nothing detected, nothing active.
	active := Default().Active(ctx, nil)
	if len(active) != 0 {
		t.Fatalf("no resolver should activate: %v", len(active))
	}

	// Hints force-enable even when detection is ambiguous.
	active = Default().Active(ctx, []string{"express"})
	if len(active) != 1 || active[0].Name != "express" {
		t.Fatalf("hinted activation: %+v", active)
	}

	// Registry order is preserved: flask before express.
	ctx = &fakeContext{files: map[string][]byte{
		"requirements.txt": []byte("flask"),
		"package.json":     []byte(`"express"`),
	}}
	active = Default().Active(ctx, nil)
	if len(active) != 2 || active[0].Name != "flask" || active[1].Name != "express" {
		t.Fatalf("activation order: %+v", active)
	}
}
