package store

import (
	"sort"

	"github.com/codeatlas/codeatlas/internal/graph"
)

// Cycle is one circular dependency: the file paths along the cycle, in
// import order, without repeating the first element.
type Cycle struct {
	Files []string `json:"files"`
}

// FindCircularDependencies enumerates cycles in the file-level import
// graph via DFS with a recursion stack. Cycles sharing nodes are
// reported separately; every reported cycle has length >= 2.
func (s *Store) FindCircularDependencies() ([]Cycle, error) {
	imports, err := s.GetEdgesByKind(graph.EdgeImports)
	if err != nil {
		return nil, err
	}

	// Build the file-path adjacency from resolved import edges.
	adj := map[string][]string{}
	for _, e := range imports {
		if !e.Resolved() {
			continue
		}
		target, err := s.GetNodeByID(e.TargetID)
		if err != nil {
			return nil, err
		}
		if target == nil || target.Kind != graph.KindFile {
			continue
		}
		if e.FilePath == target.FilePath {
			continue // self-import carries no cycle information
		}
		adj[e.FilePath] = append(adj[e.FilePath], target.FilePath)
	}
	for _, targets := range adj {
		sort.Strings(targets)
	}
	roots := make([]string, 0, len(adj))
	for f := range adj {
		roots = append(roots, f)
	}
	sort.Strings(roots)

	var cycles []Cycle
	seen := map[string]bool{} // canonical cycle keys
	state := map[string]int{} // 0 unvisited, 1 on stack, 2 done
	var stack []string

	var dfs func(file string)
	dfs = func(file string) {
		state[file] = 1
		stack = append(stack, file)
		for _, next := range adj[file] {
			switch state[next] {
			case 0:
				dfs(next)
			case 1:
				// Back-edge: slice the stack from next onward.
				for i := len(stack) - 1; i >= 0; i-- {
					if stack[i] == next {
						cycle := append([]string(nil), stack[i:]...)
						key := canonicalCycleKey(cycle)
						if !seen[key] && len(cycle) >= 2 {
							seen[key] = true
							cycles = append(cycles, Cycle{Files: cycle})
						}
						break
					}
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[file] = 2
	}

	for _, f := range roots {
		if state[f] == 0 {
			dfs(f)
		}
	}
	return cycles, nil
}

// canonicalCycleKey rotates the cycle so its lexically smallest member
// leads, making equivalent rotations compare equal.
func canonicalCycleKey(cycle []string) string {
	minIdx := 0
	for i, f := range cycle {
		if f < cycle[minIdx] {
			minIdx = i
		}
	}
	key := ""
	for i := range cycle {
		key += cycle[(minIdx+i)%len(cycle)] + "\x00"
	}
	return key
}
