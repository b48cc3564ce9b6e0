package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) handleIndex(ctx context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary, err := s.engine.Index(ctx)
	if err != nil {
		return errResult(fmt.Sprintf("indexing failed: %v", err)), nil
	}
	return jsonResult(summary), nil
}

func (s *Server) handleSync(ctx context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary, err := s.engine.Sync(ctx)
	if err != nil {
		return errResult(fmt.Sprintf("sync failed: %v", err)), nil
	}
	return jsonResult(summary), nil
}

func (s *Server) handleFindSymbol(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	name := getStringArg(args, "name")
	if name == "" {
		return errResult("name is required"), nil
	}
	nodes, err := s.engine.Store().GetNodesByName(name)
	if err != nil {
		return errResult(err.Error()), nil
	}
	return jsonResult(nodes), nil
}

func (s *Server) handleCallers(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nodeID, res := s.requireNodeID(req)
	if res != nil {
		return res, nil
	}
	callers, err := s.engine.Store().GetCallers(nodeID)
	if err != nil {
		return errResult(err.Error()), nil
	}
	return jsonResult(callers), nil
}

func (s *Server) handleCallees(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nodeID, res := s.requireNodeID(req)
	if res != nil {
		return res, nil
	}
	callees, err := s.engine.Store().GetCallees(nodeID)
	if err != nil {
		return errResult(err.Error()), nil
	}
	return jsonResult(callees), nil
}

func (s *Server) handleImpact(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	nodeID := getStringArg(args, "node_id")
	if nodeID == "" {
		return errResult("node_id is required"), nil
	}
	depth := getIntArg(args, "depth", 3)
	if depth < 0 || depth > 10 {
		return errResult("depth must be between 0 and 10"), nil
	}
	impact, err := s.engine.Store().ImpactRadius(nodeID, depth)
	if err != nil {
		return errResult(err.Error()), nil
	}
	return jsonResult(impact), nil
}

func (s *Server) handleContext(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nodeID, res := s.requireNodeID(req)
	if res != nil {
		return res, nil
	}
	nc, err := s.engine.Store().GetContext(nodeID)
	if err != nil {
		return errResult(err.Error()), nil
	}
	if nc == nil {
		return errResult("node not found: " + nodeID), nil
	}
	return jsonResult(nc), nil
}

func (s *Server) handleCycles(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cycles, err := s.engine.Store().FindCircularDependencies()
	if err != nil {
		return errResult(err.Error()), nil
	}
	return jsonResult(cycles), nil
}

func (s *Server) handleSemanticSearch(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	q := getStringArg(args, "query")
	if q == "" {
		return errResult("query is required"), nil
	}
	limit := getIntArg(args, "limit", 10)
	minScore := getFloatArg(args, "min_score", 0)

	hits, err := s.engine.SemanticSearch(ctx, s.embedder, q, limit, minScore)
	if err != nil {
		return errResult(err.Error()), nil
	}

	// Join hits with their node records for a self-contained answer.
	type result struct {
		Score float64 `json:"score"`
		Node  any     `json:"node"`
	}
	results := make([]result, 0, len(hits))
	for _, h := range hits {
		n, err := s.engine.Store().GetNodeByID(h.NodeID)
		if err != nil || n == nil {
			continue
		}
		results = append(results, result{Score: h.Score, Node: n})
	}
	return jsonResult(results), nil
}

func (s *Server) requireNodeID(req *mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	args, err := parseArgs(req)
	if err != nil {
		return "", errResult(err.Error())
	}
	nodeID := getStringArg(args, "node_id")
	if nodeID == "" {
		return "", errResult("node_id is required")
	}
	return nodeID, nil
}
