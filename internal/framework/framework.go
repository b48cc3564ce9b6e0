// Package framework holds the pluggable framework resolvers: detectors
// plus node extractors and reference resolvers for framework idioms the
// grammars cannot see (decorator routes, registration-by-name lookups).
package framework

import (
	"log/slog"

	"github.com/codeatlas/codeatlas/internal/graph"
)

// Context is the read-only view a resolver gets of the indexed project.
// Resolvers must not mutate anything through it.
type Context interface {
	ReadFile(relPath string) ([]byte, error)
	FileExists(relPath string) bool
	AllFiles() []string
	NodesInFile(relPath string) ([]*graph.Node, error)
}

// ResolvedRef is a resolver's answer for one unresolved reference.
type ResolvedRef struct {
	TargetNodeID string
	Confidence   float64
	ResolvedBy   string
}

// Resolver is a framework plug-in. Variants are plain values, not an
// inheritance hierarchy; they are assembled into an ordered registry.
type Resolver struct {
	Name string

	// Detect runs once per indexing session. Pure: no state mutation.
	Detect func(ctx Context) bool

	// ExtractNodes scans one file for framework-specific forms and
	// returns derived nodes (kind route or component).
	ExtractNodes func(relPath string, content []byte) []*graph.Node

	// Resolve answers an unresolved reference, or returns nil.
	Resolve func(ref *graph.Edge, ctx Context) *ResolvedRef
}

// Registry is an ordered set of resolvers. During resolution each
// active resolver is tried in order; the first hit wins.
type Registry struct {
	resolvers []Resolver
}

// NewRegistry builds a registry preserving the given order.
func NewRegistry(resolvers ...Resolver) *Registry {
	return &Registry{resolvers: resolvers}
}

// Default returns the shipped resolvers in their canonical order.
func Default() *Registry {
	return NewRegistry(Flask(), Express())
}

// Active runs each resolver's detector once and returns the active
// subset in registry order. Hints force-enable matching resolvers even
// when detection is ambiguous.
func (r *Registry) Active(ctx Context, hints []string) []Resolver {
	hinted := make(map[string]bool, len(hints))
	for _, h := range hints {
		hinted[h] = true
	}

	var active []Resolver
	for _, res := range r.resolvers {
		if hinted[res.Name] || (res.Detect != nil && res.Detect(ctx)) {
			slog.Info("framework.active", "resolver", res.Name)
			active = append(active, res)
		}
	}
	return active
}
