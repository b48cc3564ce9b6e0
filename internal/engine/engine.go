// Package engine ties the pipeline together: project lifecycle, path
// validation, indexing, and the query facade consumed by adapters.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/codeatlas/codeatlas/internal/config"
	"github.com/codeatlas/codeatlas/internal/discover"
	"github.com/codeatlas/codeatlas/internal/errs"
	"github.com/codeatlas/codeatlas/internal/extract"
	"github.com/codeatlas/codeatlas/internal/framework"
	"github.com/codeatlas/codeatlas/internal/lang"
	"github.com/codeatlas/codeatlas/internal/query"
	"github.com/codeatlas/codeatlas/internal/store"
	"github.com/codeatlas/codeatlas/internal/syncer"
	"github.com/codeatlas/codeatlas/internal/vector"
)

// DirName is the engine-owned directory under the project root.
const DirName = ".codeatlas"

// dbName is the store file inside DirName.
const dbName = "atlas.db"

// Engine is one opened project.
type Engine struct {
	Root   string
	Config *config.Config

	st       *store.Store
	registry *framework.Registry
	active   []framework.Resolver
	fwctx    framework.Context
	vectors  *vector.Index
}

// Init creates the project directory, config, and empty store. A
// second initialization attempt is rejected.
func Init(root string) (*Engine, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(root, DirName)
	if _, err := os.Stat(filepath.Join(dir, config.FileName)); err == nil {
		return nil, errs.NewPath(errs.AlreadyInitialized, root, "project already initialized")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create project dir: %w", err)
	}

	cfg := config.Default(filepath.Base(root))
	if err := config.Save(dir, cfg); err != nil {
		return nil, err
	}
	slog.Info("engine.init", "root", root, "project", cfg.ProjectName)
	return open(root, cfg)
}

// Open opens an initialized project. Accessing a directory without a
// store is rejected with NotInitialized.
func Open(root string) (*Engine, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(root, DirName)
	if _, err := os.Stat(filepath.Join(dir, config.FileName)); err != nil {
		return nil, errs.NewPath(errs.NotInitialized, root, "run init first")
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, errs.Wrap(errs.StoreIntegrity, "load config", err)
	}
	return open(root, cfg)
}

func open(root string, cfg *config.Config) (*Engine, error) {
	st, err := store.Open(filepath.Join(root, DirName, dbName))
	if err != nil {
		return nil, err
	}

	e := &Engine{
		Root:     root,
		Config:   cfg,
		st:       st,
		registry: framework.Default(),
		vectors:  vector.New(st),
	}
	e.fwctx = &projectContext{root: root, st: st}
	// detect runs once per session; hints force-enable.
	e.active = e.registry.Active(e.fwctx, cfg.Frameworks)
	return e, nil
}

// Close releases the store and its writer lock.
func (e *Engine) Close() error {
	return e.st.Close()
}

// Store exposes the underlying store for queries.
func (e *Engine) Store() *store.Store { return e.st }

// Vectors exposes the semantic index.
func (e *Engine) Vectors() *vector.Index { return e.vectors }

// ValidatePath normalizes an externally supplied path and rejects
// anything escaping the project root. Returns the root-relative path.
func (e *Engine) ValidatePath(p string) (string, error) {
	abs := p
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(e.Root, p)
	}
	abs = filepath.Clean(abs)
	rel, err := filepath.Rel(e.Root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errs.NewPath(errs.PathEscape, p, "path escapes the project root")
	}
	return filepath.ToSlash(rel), nil
}

// Index runs a full pipeline pass. On an already-indexed project this
// degrades to an incremental sync — unchanged files are untouched.
func (e *Engine) Index(ctx context.Context) (*syncer.Summary, error) {
	return e.Sync(ctx)
}

// Sync detects disk changes and reindexes the touched slice.
func (e *Engine) Sync(ctx context.Context) (*syncer.Summary, error) {
	s := syncer.New(e.st, e.Root, extract.New(query.NewEngine()), e.discoverOptions(), e.active, e.fwctx)
	summary, err := s.Sync(ctx)
	if err != nil {
		return summary, err
	}
	slog.Info("engine.sync.done",
		"added", summary.FilesAdded, "modified", summary.FilesModified,
		"removed", summary.FilesRemoved, "checked", summary.FilesChecked,
		"warnings", len(summary.Errors))
	return summary, nil
}

func (e *Engine) discoverOptions() discover.Options {
	return discover.Options{
		Include:     e.Config.Include,
		Exclude:     e.Config.Exclude,
		MaxFileSize: e.Config.MaxFileSize,
		Languages:   e.Config.Languages,
	}
}

// SemanticSearch embeds the query text and searches the vector index.
// Fails with EmbeddingUnavailable when embeddings are disabled or no
// embedder is configured; structural queries are unaffected.
func (e *Engine) SemanticSearch(ctx context.Context, emb vector.Embedder, text string, limit int, minScore float64) ([]vector.Hit, error) {
	if !e.Config.EnableEmbeddings || emb == nil {
		return nil, errs.New(errs.EmbeddingUnavailable, "embeddings are not enabled for this project")
	}
	qv, err := emb.Embed(ctx, text)
	if err != nil {
		return nil, errs.Wrap(errs.EmbeddingUnavailable, "embed query", err)
	}
	return e.vectors.Search(qv, vector.SearchOptions{Limit: limit, MinScore: minScore})
}

// Languages returns the enabled language set, defaulting to all.
func (e *Engine) Languages() []lang.Language {
	if len(e.Config.Languages) > 0 {
		return e.Config.Languages
	}
	return lang.AllLanguages()
}
