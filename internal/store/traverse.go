package store

import (
	"sort"

	"github.com/codeatlas/codeatlas/internal/graph"
)

// impactEdgeKinds are the edge kinds followed by impact analysis.
var impactEdgeKinds = []graph.EdgeKind{
	graph.EdgeCalls, graph.EdgeImports, graph.EdgeExtends, graph.EdgeImplements,
}

// GetAncestors walks contains edges upward from a node until the file
// node, nearest first.
func (s *Store) GetAncestors(nodeID string) ([]*graph.Node, error) {
	var ancestors []*graph.Node
	cur := nodeID
	for {
		incoming, err := s.GetIncomingEdges(cur, graph.EdgeContains)
		if err != nil {
			return nil, err
		}
		if len(incoming) == 0 {
			break
		}
		parent, err := s.GetNodeByID(incoming[0].SourceID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			break
		}
		ancestors = append(ancestors, parent)
		if parent.Kind == graph.KindFile {
			break
		}
		cur = parent.ID
	}
	return ancestors, nil
}

// GetChildren returns the immediate contains targets of a node, sorted
// by (filePath, startLine).
func (s *Store) GetChildren(nodeID string) ([]*graph.Node, error) {
	out, err := s.GetOutgoingEdges(nodeID, graph.EdgeContains)
	if err != nil {
		return nil, err
	}
	children := make([]*graph.Node, 0, len(out))
	for _, e := range out {
		n, err := s.GetNodeByID(e.TargetID)
		if err != nil {
			return nil, err
		}
		if n != nil {
			children = append(children, n)
		}
	}
	sortNodes(children)
	return children, nil
}

// NodeDepth is a node annotated with its BFS hop distance.
type NodeDepth struct {
	Node  *graph.Node `json:"node"`
	Depth int         `json:"depth"`
}

// ImpactRadius performs a bounded BFS over incoming calls/imports/
// extends/implements edges. Each node appears once, at its minimum
// depth; depth 0 is the focal node itself.
func (s *Store) ImpactRadius(nodeID string, depth int) ([]NodeDepth, error) {
	focal, err := s.GetNodeByID(nodeID)
	if err != nil {
		return nil, err
	}
	if focal == nil {
		return nil, nil
	}

	visited := map[string]int{nodeID: 0}
	result := []NodeDepth{{Node: focal, Depth: 0}}
	queue := []string{nodeID}

	for hop := 1; hop <= depth && len(queue) > 0; hop++ {
		var next []string
		for _, id := range queue {
			incoming, err := s.GetIncomingEdges(id, impactEdgeKinds...)
			if err != nil {
				return nil, err
			}
			for _, e := range incoming {
				if _, seen := visited[e.SourceID]; seen {
					continue
				}
				visited[e.SourceID] = hop
				n, err := s.GetNodeByID(e.SourceID)
				if err != nil {
					return nil, err
				}
				if n == nil {
					continue
				}
				result = append(result, NodeDepth{Node: n, Depth: hop})
				next = append(next, e.SourceID)
			}
		}
		queue = next
	}

	// Stable output: depth first, then (filePath, startLine).
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Depth != result[j].Depth {
			return result[i].Depth < result[j].Depth
		}
		return nodeLess(result[i].Node, result[j].Node)
	})
	return result, nil
}

// GetCallers returns nodes with a calls edge into nodeID, one hop.
func (s *Store) GetCallers(nodeID string) ([]*graph.Node, error) {
	return s.edgeNeighbors(nodeID, true, graph.EdgeCalls)
}

// GetCallees returns nodes this node calls, one hop. Only resolved
// edges yield nodes; unresolved callees stay name-only.
func (s *Store) GetCallees(nodeID string) ([]*graph.Node, error) {
	return s.edgeNeighbors(nodeID, false, graph.EdgeCalls)
}

func (s *Store) edgeNeighbors(nodeID string, incoming bool, kinds ...graph.EdgeKind) ([]*graph.Node, error) {
	var edges []*graph.Edge
	var err error
	if incoming {
		edges, err = s.GetIncomingEdges(nodeID, kinds...)
	} else {
		edges, err = s.GetOutgoingEdges(nodeID, kinds...)
	}
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var nodes []*graph.Node
	for _, e := range edges {
		other := e.SourceID
		if !incoming {
			other = e.TargetID
		}
		if other == "" || seen[other] {
			continue
		}
		seen[other] = true
		n, err := s.GetNodeByID(other)
		if err != nil {
			return nil, err
		}
		if n != nil {
			nodes = append(nodes, n)
		}
	}
	sortNodes(nodes)
	return nodes, nil
}

func sortNodes(nodes []*graph.Node) {
	sort.SliceStable(nodes, func(i, j int) bool { return nodeLess(nodes[i], nodes[j]) })
}

func nodeLess(a, b *graph.Node) bool {
	if a.FilePath != b.FilePath {
		return a.FilePath < b.FilePath
	}
	return a.Range.StartLine < b.Range.StartLine
}
