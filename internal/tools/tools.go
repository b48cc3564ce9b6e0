// Package tools is the thin RPC adapter: every handler validates its
// input, calls one engine method, and renders plain records. No
// pipeline logic lives here.
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codeatlas/codeatlas/internal/engine"
	"github.com/codeatlas/codeatlas/internal/vector"
)

// Server wraps the MCP server with tool handlers over one open engine.
type Server struct {
	mcp      *mcp.Server
	engine   *engine.Engine
	embedder vector.Embedder // nil when no embedding model is wired
}

// NewServer creates an MCP server with all tools registered.
func NewServer(e *engine.Engine, emb vector.Embedder) *Server {
	srv := &Server{
		engine:   e,
		embedder: emb,
		mcp: mcp.NewServer(
			&mcp.Implementation{
				Name:    "codeatlas",
				Version: "0.1.0",
			},
			nil,
		),
	}
	srv.registerTools()
	return srv
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

func (s *Server) registerTools() {
	s.mcp.AddTool(&mcp.Tool{
		Name:        "index_project",
		Description: "Index or re-index the project. Parses source files, extracts symbols, resolves references, and stores the graph. Incremental: unchanged files are skipped via content hashing.",
		InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
	}, s.handleIndex)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "sync_project",
		Description: "Detect files added, modified, or removed on disk and bring the graph back in sync. Returns a change summary with any per-file warnings.",
		InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
	}, s.handleSync)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "find_symbol",
		Description: "Find symbols by simple name. Returns full node records including qualified name, file, range, and signature.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"name": {"type": "string", "description": "Simple symbol name, e.g. 'login'"}
			},
			"required": ["name"]
		}`),
	}, s.handleFindSymbol)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "get_callers",
		Description: "List the functions calling a symbol (one hop over incoming calls edges).",
		InputSchema: nodeIDSchema,
	}, s.handleCallers)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "get_callees",
		Description: "List the functions a symbol calls (one hop over outgoing calls edges).",
		InputSchema: nodeIDSchema,
	}, s.handleCallees)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "impact_radius",
		Description: "Bounded reverse reachability: every symbol within N hops over incoming calls/imports/extends/implements edges, annotated with its depth. Use before changing a widely-used function.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"node_id": {"type": "string", "description": "Focal node ID"},
				"depth": {"type": "integer", "description": "Maximum hops (default 3)"}
			},
			"required": ["node_id"]
		}`),
	}, s.handleImpact)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "get_context",
		Description: "Assemble a symbol's surroundings: ancestors, children, incoming/outgoing references, type edges, and the enclosing file's imports.",
		InputSchema: nodeIDSchema,
	}, s.handleContext)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "circular_dependencies",
		Description: "Enumerate circular dependencies in the file-level import graph. Each cycle lists its file paths in import order.",
		InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
	}, s.handleCycles)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "semantic_search",
		Description: "Find symbols matching a task description via embedding similarity. Requires embeddings to be enabled; structural tools work without them.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "Natural-language description of the code sought"},
				"limit": {"type": "integer", "description": "Maximum results (default 10)"},
				"min_score": {"type": "number", "description": "Minimum cosine score in [0,1]"}
			},
			"required": ["query"]
		}`),
	}, s.handleSemanticSearch)
}

var nodeIDSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"node_id": {"type": "string", "description": "Node ID from find_symbol"}
	},
	"required": ["node_id"]
}`)

// parseArgs decodes a tool request's arguments into a generic map.
func parseArgs(req *mcp.CallToolRequest) (map[string]any, error) {
	if len(req.Params.Arguments) == 0 {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return args, nil
}

func getStringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func getIntArg(args map[string]any, key string, fallback int) int {
	if v, ok := args[key].(float64); ok {
		return int(v)
	}
	return fallback
}

func getFloatArg(args map[string]any, key string, fallback float64) float64 {
	if v, ok := args[key].(float64); ok {
		return v
	}
	return fallback
}

// jsonResult renders a value as an indented JSON text result.
func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errResult("marshal result: " + err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}
}

// errResult returns a tool result indicating an error.
func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}
