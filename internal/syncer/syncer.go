// Package syncer keeps the graph in sync with the working tree:
// content-hash change detection, minimal re-extraction, and restricted
// re-resolution.
package syncer

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/codeatlas/codeatlas/internal/discover"
	"github.com/codeatlas/codeatlas/internal/errs"
	"github.com/codeatlas/codeatlas/internal/extract"
	"github.com/codeatlas/codeatlas/internal/framework"
	"github.com/codeatlas/codeatlas/internal/graph"
	"github.com/codeatlas/codeatlas/internal/resolve"
	"github.com/codeatlas/codeatlas/internal/store"
)

// Summary reports one sync run.
type Summary struct {
	FilesAdded    int               `json:"files_added"`
	FilesModified int               `json:"files_modified"`
	FilesRemoved  int               `json:"files_removed"`
	FilesChecked  int               `json:"files_checked"`
	EdgesResolved int               `json:"edges_resolved"`
	Errors        []extract.Warning `json:"errors,omitempty"`
}

// Syncer drives the pipeline for one project root.
type Syncer struct {
	st        *store.Store
	root      string
	extractor *extract.Extractor
	opts      discover.Options
	active    []framework.Resolver
	fwctx     framework.Context
}

// New creates a Syncer. active is the detected framework resolver set;
// fwctx the read-only project view handed to resolvers.
func New(st *store.Store, root string, extractor *extract.Extractor, opts discover.Options, active []framework.Resolver, fwctx framework.Context) *Syncer {
	return &Syncer{
		st: st, root: root, extractor: extractor,
		opts: opts, active: active, fwctx: fwctx,
	}
}

// Sync enumerates candidates, partitions them against the store, and
// re-enters the pipeline for the touched slice. Cancellation is
// observed at file boundaries; an aborted file writes nothing.
func (s *Syncer) Sync(ctx context.Context) (*Summary, error) {
	files, warnings, err := discover.Discover(ctx, s.root, s.opts)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}

	summary := &Summary{FilesChecked: len(files)}
	for _, w := range warnings {
		summary.Errors = append(summary.Errors, extract.Warning{
			Path: w.Path, Kind: w.Kind, Message: w.Message,
		})
	}

	hashes, err := hashFiles(ctx, files)
	if err != nil {
		return summary, err
	}

	stored, err := s.st.AllFiles()
	if err != nil {
		return summary, err
	}
	storedByPath := make(map[string]*graph.FileRecord, len(stored))
	for _, f := range stored {
		storedByPath[f.Path] = f
	}

	var added, modified []discover.FileInfo
	onDisk := make(map[string]bool, len(files))
	for i, f := range files {
		onDisk[f.RelPath] = true
		rec, ok := storedByPath[f.RelPath]
		switch {
		case !ok:
			added = append(added, f)
		case rec.Hash != hashes[i] || rec.Size != f.Size:
			modified = append(modified, f)
		}
	}
	var removed []string
	for _, f := range stored {
		if !onDisk[f.Path] {
			removed = append(removed, f.Path)
		}
	}

	slog.Info("sync.partition",
		"added", len(added), "modified", len(modified),
		"removed", len(removed), "checked", len(files))

	// Remove-phase completes for a file before any re-extraction begins.
	for _, path := range removed {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := s.st.WithTransaction(func(tx *store.Store) error {
			return tx.DeleteFile(path)
		}); err != nil {
			return summary, fmt.Errorf("remove %s: %w", path, err)
		}
		summary.FilesRemoved++
	}

	touched := append(append([]discover.FileInfo(nil), added...), modified...)
	newNames, indexed, err := s.reindexFiles(ctx, touched, summary)
	if err != nil {
		return summary, err
	}
	for _, f := range added {
		if indexed[f.RelPath] {
			summary.FilesAdded++
		}
	}
	for _, f := range modified {
		if indexed[f.RelPath] {
			summary.FilesModified++
		}
	}

	if len(touched) > 0 || len(removed) > 0 {
		paths := make([]string, len(touched))
		for i, f := range touched {
			paths[i] = f.RelPath
		}
		r := resolve.New(s.st, s.active, s.fwctx)
		resolved, err := r.ResolveFiles(ctx, paths, newNames)
		summary.EdgesResolved = resolved
		if err != nil {
			return summary, err
		}
	}

	return summary, nil
}

// fileResult is one file's parallel extraction output.
type fileResult struct {
	file   discover.FileInfo
	hash   string
	result *extract.Result
	err    error
}

// reindexFiles extracts the touched files in parallel and commits the
// results serially, one transaction per file. Returns the simple names
// of newly created nodes (for forward discovery) and the set of file
// paths that were actually committed.
func (s *Syncer) reindexFiles(ctx context.Context, files []discover.FileInfo, summary *Summary) ([]string, map[string]bool, error) {
	if len(files) == 0 {
		return nil, nil, nil
	}

	results := make([]*fileResult, len(files))
	numWorkers := min(runtime.NumCPU(), len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)
	for i, f := range files {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			results[i] = s.extractFile(f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var newNames []string
	seenNames := map[string]bool{}
	indexed := make(map[string]bool, len(files))
	for _, r := range results {
		if r == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return newNames, indexed, err
		}
		if r.err != nil {
			slog.Warn("sync.extract.err", "path", r.file.RelPath, "err", r.err)
			summary.Errors = append(summary.Errors, extract.Warning{
				Path: r.file.RelPath, Kind: errs.ParseFailure, Message: r.err.Error(),
			})
			continue
		}
		summary.Errors = append(summary.Errors, r.result.Warnings...)

		if err := s.commitFile(r); err != nil {
			return newNames, indexed, fmt.Errorf("commit %s: %w", r.file.RelPath, err)
		}
		indexed[r.file.RelPath] = true
		for _, n := range r.result.Nodes {
			if n.Kind != graph.KindFile && !seenNames[n.Name] {
				seenNames[n.Name] = true
				newNames = append(newNames, n.Name)
			}
		}
	}
	return newNames, indexed, nil
}

// extractFile is the parallel stage: read, parse, extract, framework
// node hooks. No store access.
func (s *Syncer) extractFile(f discover.FileInfo) *fileResult {
	r := &fileResult{file: f}

	source, err := os.ReadFile(f.Path)
	if err != nil {
		r.err = err
		return r
	}
	r.hash = hashBytes(source)

	res, err := s.extractor.File(f.RelPath, source, f.Language)
	if err != nil {
		r.err = err
		return r
	}

	// Framework node hooks run after generic extraction to add derived
	// nodes invisible to the grammars.
	for _, fr := range s.active {
		if fr.ExtractNodes == nil {
			continue
		}
		for _, n := range fr.ExtractNodes(f.RelPath, source) {
			res.Nodes = append(res.Nodes, n)
			res.Edges = append(res.Edges, &graph.Edge{
				SourceID: res.FileNode.ID, TargetID: n.ID, TargetSymbol: n.Name,
				Kind: graph.EdgeContains, Confidence: 1.0,
				FilePath: f.RelPath, Range: n.Range,
			})
		}
	}

	r.result = res
	return r
}

// commitFile replaces a file's slice of the graph in one transaction:
// old nodes and edges go, the fresh extraction lands.
func (s *Syncer) commitFile(r *fileResult) error {
	return s.st.WithTransaction(func(tx *store.Store) error {
		if err := tx.DeleteEdgesByFile(r.file.RelPath); err != nil {
			return err
		}
		if err := tx.DeleteNodesByFile(r.file.RelPath); err != nil {
			return err
		}
		if err := tx.UpsertFile(&graph.FileRecord{
			Path:     r.file.RelPath,
			Language: r.file.Language,
			Hash:     r.hash,
			Size:     r.file.Size,
			ModTime:  r.file.ModTime,
		}); err != nil {
			return err
		}
		if err := tx.UpsertNodeBatch(r.result.Nodes); err != nil {
			return err
		}
		if err := tx.InsertEdgeBatch(r.result.Edges); err != nil {
			return err
		}
		return tx.InsertEdgeBatch(r.result.Refs)
	})
}

// hashFiles hashes candidates in parallel across CPU cores.
func hashFiles(ctx context.Context, files []discover.FileInfo) ([]string, error) {
	hashes := make([]string, len(files))
	if len(files) == 0 {
		return hashes, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(runtime.NumCPU(), len(files)))
	for i, f := range files {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			h, err := hashFile(f.Path)
			if err != nil {
				return fmt.Errorf("hash %s: %w", f.RelPath, err)
			}
			hashes[i] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return hashes, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := xxh3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashBytes(data []byte) string {
	h := xxh3.New()
	_, _ = h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
