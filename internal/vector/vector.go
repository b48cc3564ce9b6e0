// Package vector provides the dense-embedding semantic index stored
// beside the structural graph.
package vector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/codeatlas/codeatlas/internal/graph"
	"github.com/codeatlas/codeatlas/internal/store"
)

// ErrDimensionMismatch indicates two vectors of different lengths.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Embedder embeds text into a fixed-length float vector. The model
// itself is external; implementations must be deterministic for the
// same input text and model.
type Embedder interface {
	ModelID() string
	Dim() int
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index wraps the store's vector table with search.
type Index struct {
	st *store.Store
}

// New creates an Index over a store.
func New(st *store.Store) *Index {
	return &Index{st: st}
}

// StoreVector upserts one embedding. A model differing from already
// stored entries is allowed but flagged, since mixed-model scores are
// not comparable.
func (ix *Index) StoreVector(nodeID string, vec []float32, model string) error {
	if len(vec) == 0 {
		return fmt.Errorf("empty vector for node %s", nodeID)
	}
	existing, err := ix.st.AllVectors()
	if err != nil {
		return err
	}
	for _, e := range existing {
		if e.Model != model {
			slog.Warn("vector.model.mismatch", "stored", e.Model, "incoming", model)
			break
		}
	}
	return ix.st.UpsertVector(nodeID, vec, model)
}

// StoreVectorBatch upserts entries in a single transaction.
func (ix *Index) StoreVectorBatch(entries []store.VectorEntry) error {
	return ix.st.UpsertVectorBatch(entries)
}

// DeleteVector removes a node's embedding.
func (ix *Index) DeleteVector(nodeID string) error {
	return ix.st.DeleteVector(nodeID)
}

// Hit is one search result.
type Hit struct {
	NodeID string  `json:"node_id"`
	Score  float64 `json:"score"`
}

// SearchOptions bound a search.
type SearchOptions struct {
	Limit    int
	MinScore float64
}

// Search runs a brute-force cosine scan over all stored vectors and
// returns hits sorted by descending score, filtered by MinScore.
func (ix *Index) Search(query []float32, opts SearchOptions) ([]Hit, error) {
	if opts.Limit <= 0 {
		opts.Limit = 10
	}
	entries, err := ix.st.AllVectors()
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(entries))
	for _, e := range entries {
		score, err := Cosine(query, e.Embedding)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", e.NodeID, err)
		}
		if score < opts.MinScore {
			continue
		}
		hits = append(hits, Hit{NodeID: e.NodeID, Score: score})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].NodeID < hits[j].NodeID
	})
	if len(hits) > opts.Limit {
		hits = hits[:opts.Limit]
	}
	return hits, nil
}

// Cosine computes cosine similarity between two vectors of equal
// length, returning 0 when either is the zero vector.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	var dot, na, nb float64
	for i := 0; i < len(a); i++ {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	den := math.Sqrt(na) * math.Sqrt(nb)
	if den == 0 {
		return 0, nil
	}
	return dot / den, nil
}

// SemanticText builds the embedding input for a node from its salient
// attributes, labeled so the model sees the structure.
func SemanticText(n *graph.Node) string {
	var sb strings.Builder
	write := func(label, value string) {
		if value == "" {
			return
		}
		sb.WriteString(label)
		sb.WriteString(": ")
		sb.WriteString(value)
		sb.WriteByte('\n')
	}
	write("kind", string(n.Kind))
	write("name", n.Name)
	write("qualified name", n.QualifiedName)
	write("file", n.FilePath)
	write("signature", n.Signature)
	write("doc", n.Docstring)
	return strings.TrimSuffix(sb.String(), "\n")
}

// EmbedNodes embeds the given nodes and stores the result in one batch.
// Cancellation is observed between embedding calls.
func (ix *Index) EmbedNodes(ctx context.Context, emb Embedder, nodes []*graph.Node) (int, error) {
	entries := make([]store.VectorEntry, 0, len(nodes))
	for _, n := range nodes {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		vec, err := emb.Embed(ctx, SemanticText(n))
		if err != nil {
			return 0, fmt.Errorf("embed %s: %w", n.QualifiedName, err)
		}
		entries = append(entries, store.VectorEntry{
			NodeID: n.ID, Embedding: vec, Model: emb.ModelID(),
		})
	}
	if err := ix.StoreVectorBatch(entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}
