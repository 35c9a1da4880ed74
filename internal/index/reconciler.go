// Package index reconciles an on-disk directory tree with the store: walk,
// chunk, embed, persist, and optionally drop records for files that no longer
// exist.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"semdex/internal/chunker"
	"semdex/internal/store"
	"semdex/internal/walker"
)

// ProgressFunc receives reconcile progress. total grows while the walk is
// still streaming files.
type ProgressFunc func(stage string, done, total int)

// Options configures a reconcile run.
type Options struct {
	// Extensions are the file extensions to index, keys without the leading
	// dot. Nil means DefaultExtensions.
	Extensions map[string]bool

	// RemoveDeleted drops records for indexed files that no longer exist
	// under the root.
	RemoveDeleted bool

	// Workers is the read-and-chunk fan-out width. Zero means NumCPU.
	Workers int

	Logger     *slog.Logger
	OnProgress ProgressFunc
}

// Stats reports what a reconcile run did.
type Stats struct {
	FilesTotal     int // files the walk produced
	FilesChunked   int // files that contributed at least one chunk
	FilesSkipped   int // unreadable, empty, or nothing above the chunk floor
	FilesRemoved   int // indexed files no longer on disk
	ChunksInserted int // net-new records persisted
}

// DefaultExtensions is the indexable set when none is configured: common
// code extensions plus prose.
func DefaultExtensions() map[string]bool {
	return map[string]bool{
		"cs": true, "go": true, "js": true, "ts": true,
		"java": true, "c": true, "h": true, "cpp": true,
		"md": true, "txt": true,
	}
}

// Reconcile walks root, chunks every indexable file, and hands the whole
// batch to the store with per-file replacement semantics. Unchanged files
// cost a fingerprint comparison and nothing else, so re-running over an
// unmodified tree inserts zero records.
func Reconcile(ctx context.Context, st *store.Store, root string, opts Options) (*Stats, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	exts := opts.Extensions
	if exts == nil {
		exts = DefaultExtensions()
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	if info, err := os.Stat(absRoot); err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", absRoot)
	}

	var (
		mu        sync.Mutex
		allChunks []chunker.Chunk
		onDisk    = make(map[string]bool)
		stats     Stats
	)
	var seen, done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)

	// The walk shares the group context, so a cancelled run stops the walker
	// goroutine too instead of leaving it blocked on the file channel.
	fileCh, walkErrCh := walker.Walk(gctx, absRoot, exts)
	for range workers {
		g.Go(func() error {
			for fi := range fileCh {
				if err := gctx.Err(); err != nil {
					return err
				}
				seen.Add(1)

				mu.Lock()
				onDisk[fi.Path] = true
				mu.Unlock()

				src, err := os.ReadFile(fi.Path)
				if err != nil {
					logger.Warn("skipping unreadable file", "path", fi.RelPath, "error", err)
					mu.Lock()
					stats.FilesSkipped++
					mu.Unlock()
					continue
				}

				chunks := chunker.Split(string(src), fi.Path)

				mu.Lock()
				if len(chunks) == 0 {
					stats.FilesSkipped++
				} else {
					stats.FilesChunked++
					allChunks = append(allChunks, chunks...)
				}
				mu.Unlock()

				if opts.OnProgress != nil {
					opts.OnProgress("Scanning files", int(done.Add(1)), int(seen.Load()))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := <-walkErrCh; err != nil {
		return nil, fmt.Errorf("walk %s: %w", absRoot, err)
	}
	stats.FilesTotal = int(seen.Load())

	if opts.OnProgress != nil {
		opts.OnProgress("Embedding and storing", 0, len(allChunks))
	}
	inserted, err := st.AddChunks(ctx, allChunks, true)
	if err != nil {
		return nil, fmt.Errorf("persist chunks: %w", err)
	}
	stats.ChunksInserted = inserted
	if opts.OnProgress != nil {
		opts.OnProgress("Embedding and storing", len(allChunks), len(allChunks))
	}

	if opts.RemoveDeleted {
		removed, err := removeDeleted(ctx, st, absRoot, onDisk, logger)
		if err != nil {
			return nil, err
		}
		stats.FilesRemoved = removed
	}

	logger.Info("reconcile complete",
		"root", absRoot,
		"files", stats.FilesTotal,
		"chunked", stats.FilesChunked,
		"skipped", stats.FilesSkipped,
		"removed", stats.FilesRemoved,
		"inserted", stats.ChunksInserted)
	return &stats, nil
}

// removeDeleted diffs the store's indexed paths under root against what the
// walk found on disk, and purges the leftovers.
func removeDeleted(ctx context.Context, st *store.Store, absRoot string, onDisk map[string]bool, logger *slog.Logger) (int, error) {
	prefix := absRoot + string(os.PathSeparator)
	indexed, err := st.IndexedFiles(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("list indexed files: %w", err)
	}

	var stale []string
	for path := range indexed {
		if !onDisk[path] {
			stale = append(stale, path)
		}
	}
	sort.Strings(stale)

	for _, path := range stale {
		n, err := st.RemoveByFile(ctx, path)
		if err != nil {
			return 0, fmt.Errorf("remove deleted file %s: %w", path, err)
		}
		logger.Debug("removed deleted file", "path", path, "chunks", n)
	}
	return len(stale), nil
}
