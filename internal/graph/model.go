// Package graph defines the knowledge-graph data model and the
// deterministic node ID. The traversal queries live in package store.
package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/codeatlas/codeatlas/internal/lang"
)

// NodeKind classifies an extracted entity.
type NodeKind string

const (
	KindFile        NodeKind = "file"
	KindModule      NodeKind = "module"
	KindClass       NodeKind = "class"
	KindStruct      NodeKind = "struct"
	KindInterface   NodeKind = "interface"
	KindTrait       NodeKind = "trait"
	KindEnum        NodeKind = "enum"
	KindFunction    NodeKind = "function"
	KindMethod      NodeKind = "method"
	KindConstructor NodeKind = "constructor"
	KindDestructor  NodeKind = "destructor"
	KindProperty    NodeKind = "property"
	KindField       NodeKind = "field"
	KindVariable    NodeKind = "variable"
	KindConstant    NodeKind = "constant"
	KindTypeAlias   NodeKind = "type_alias"
	KindRoute       NodeKind = "route"
	KindComponent   NodeKind = "component"
	KindParameter   NodeKind = "parameter"
	KindImport      NodeKind = "import"
	KindUnknown     NodeKind = "unknown"
)

// EdgeKind classifies a directed relation between nodes.
type EdgeKind string

const (
	EdgeContains   EdgeKind = "contains"
	EdgeCalls      EdgeKind = "calls"
	EdgeImports    EdgeKind = "imports"
	EdgeExtends    EdgeKind = "extends"
	EdgeImplements EdgeKind = "implements"
	EdgeReturns    EdgeKind = "returns"
	EdgeTypeOf     EdgeKind = "type_of"
	EdgeReads      EdgeKind = "reads"
	EdgeWrites     EdgeKind = "writes"
)

// Range is a source span. Lines and columns are 1-based.
type Range struct {
	StartLine   int `json:"start_line"`
	StartColumn int `json:"start_column"`
	EndLine     int `json:"end_line"`
	EndColumn   int `json:"end_column"`
}

// Node is an extracted code entity.
type Node struct {
	ID            string        `json:"id"`
	Kind          NodeKind      `json:"kind"`
	Name          string        `json:"name"`
	QualifiedName string        `json:"qualified_name"`
	FilePath      string        `json:"file_path"`
	Language      lang.Language `json:"language"`
	Range         Range         `json:"range"`
	Signature     string        `json:"signature,omitempty"`
	Docstring     string        `json:"docstring,omitempty"`
	IsExported    bool          `json:"is_exported"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Edge is a directed typed relation. TargetID is empty while the edge
// is unresolved; TargetSymbol retains the referenced name either way.
type Edge struct {
	ID           int64    `json:"id"`
	SourceID     string   `json:"source_id"`
	TargetID     string   `json:"target_id,omitempty"`
	TargetSymbol string   `json:"target_symbol,omitempty"`
	Kind         EdgeKind `json:"kind"`
	Confidence   float64  `json:"confidence"`
	// FilePath is the source node's file; edges are indexed by it so a
	// file's edges can be dropped together on re-extraction.
	FilePath string `json:"file_path"`
	Range    Range  `json:"range"`
}

// Resolved reports whether the edge has a concrete target node.
// An edge with an empty TargetID is an unresolved reference: the
// extractor's intermediate form, awaiting the resolver. TargetSymbol
// keeps the referenced name (with any qualifier) either way.
func (e *Edge) Resolved() bool { return e.TargetID != "" }

// NodeID derives the deterministic node identity from the fields that
// define it. Stable across reruns iff the entity's kind, file, qualified
// name and start line are stable.
func NodeID(kind NodeKind, filePath, qualifiedName string, startLine int) string {
	input := fmt.Sprintf("%s|%s|%s|%d", kind, filePath, qualifiedName, startLine)
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// FileRecord describes an indexed file.
type FileRecord struct {
	Path      string        `json:"path"`
	Language  lang.Language `json:"language"`
	Hash      string        `json:"hash"`
	Size      int64         `json:"size"`
	ModTime   time.Time     `json:"mod_time"`
	UpdatedAt time.Time     `json:"updated_at"`
}
