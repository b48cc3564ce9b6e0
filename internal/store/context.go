package store

import "github.com/codeatlas/codeatlas/internal/graph"

// NodeContext assembles everything surrounding a focal node: its
// ancestors, children, filtered references in both directions, type
// edges, and the imports of the enclosing file.
type NodeContext struct {
	Node        *graph.Node   `json:"node"`
	Ancestors   []*graph.Node `json:"ancestors"`
	Children    []*graph.Node `json:"children"`
	Incoming    []*graph.Edge `json:"incoming"`
	Outgoing    []*graph.Edge `json:"outgoing"`
	TypeEdges   []*graph.Edge `json:"type_edges"`
	FileImports []*graph.Edge `json:"file_imports"`
}

// contextRefKinds are the reference kinds included in a node context;
// contains is excluded since ancestors/children already carry it.
var contextRefKinds = []graph.EdgeKind{
	graph.EdgeCalls, graph.EdgeExtends, graph.EdgeImplements,
	graph.EdgeReads, graph.EdgeWrites,
}

var contextTypeKinds = []graph.EdgeKind{
	graph.EdgeReturns, graph.EdgeTypeOf,
}

// GetContext assembles the context for a node, or returns nil when the
// node does not exist.
func (s *Store) GetContext(nodeID string) (*NodeContext, error) {
	node, err := s.GetNodeByID(nodeID)
	if err != nil || node == nil {
		return nil, err
	}

	nc := &NodeContext{Node: node}
	if nc.Ancestors, err = s.GetAncestors(nodeID); err != nil {
		return nil, err
	}
	if nc.Children, err = s.GetChildren(nodeID); err != nil {
		return nil, err
	}
	if nc.Incoming, err = s.GetIncomingEdges(nodeID, contextRefKinds...); err != nil {
		return nil, err
	}
	if nc.Outgoing, err = s.GetOutgoingEdges(nodeID, contextRefKinds...); err != nil {
		return nil, err
	}
	if nc.TypeEdges, err = s.GetOutgoingEdges(nodeID, contextTypeKinds...); err != nil {
		return nil, err
	}

	fileNodeID := graph.NodeID(graph.KindFile, node.FilePath, node.FilePath, 1)
	if nc.FileImports, err = s.GetOutgoingEdges(fileNodeID, graph.EdgeImports); err != nil {
		return nil, err
	}
	return nc, nil
}
