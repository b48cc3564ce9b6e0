// Package watcher polls the project tree for changes and triggers a
// sync, backing off adaptively while the tree is quiet.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const (
	baseInterval = 1 * time.Second
	maxInterval  = 60 * time.Second
)

type fileSnapshot struct {
	modTime time.Time
	size    int64
}

// SyncFunc is the callback invoked when a change is detected.
type SyncFunc func(ctx context.Context) error

// Watcher polls a project root via mtime+size snapshots. The cheap
// snapshot pass only decides *whether* to sync; the sync itself still
// runs content-hash change detection.
type Watcher struct {
	root     string
	syncFn   SyncFunc
	snapshot map[string]fileSnapshot
	interval time.Duration
	nextPoll time.Time
}

// New creates a Watcher over root.
func New(root string, syncFn SyncFunc) *Watcher {
	return &Watcher{
		root:     root,
		syncFn:   syncFn,
		interval: baseInterval,
	}
}

// Run blocks until ctx is cancelled, polling on an adaptive interval:
// it resets to the base interval on change and doubles up to the
// ceiling while idle.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(baseInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if time.Now().Before(w.nextPoll) {
				continue
			}
			w.poll(ctx)
		}
	}
}

func (w *Watcher) poll(ctx context.Context) {
	snap := w.takeSnapshot(ctx)
	if snap == nil {
		return
	}

	changed := w.snapshot == nil || !snapshotsEqual(w.snapshot, snap)
	w.snapshot = snap

	if changed {
		w.interval = baseInterval
		slog.Info("watcher.change", "root", w.root)
		if err := w.syncFn(ctx); err != nil {
			slog.Warn("watcher.sync.err", "err", err)
		}
	} else {
		w.interval = min(w.interval*2, maxInterval)
	}
	w.nextPoll = time.Now().Add(w.interval)
}

func (w *Watcher) takeSnapshot(ctx context.Context) map[string]fileSnapshot {
	snap := make(map[string]fileSnapshot)
	err := filepath.Walk(w.root, func(path string, info os.FileInfo, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			return nil
		}
		if info.IsDir() {
			name := info.Name()
			if name == ".git" || name == "node_modules" || name == ".codeatlas" || name == "vendor" {
				return filepath.SkipDir
			}
			return nil
		}
		snap[path] = fileSnapshot{modTime: info.ModTime(), size: info.Size()}
		return nil
	})
	if err != nil {
		return nil
	}
	return snap
}

func snapshotsEqual(a, b map[string]fileSnapshot) bool {
	if len(a) != len(b) {
		return false
	}
	for path, sa := range a {
		sb, ok := b[path]
		if !ok || sa != sb {
			return false
		}
	}
	return true
}
