// Package store owns the persisted collection of chunk records and vectors:
// deduplicated adds, per-file replacement, similarity search, and stats.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"semdex/internal/chunker"
	"semdex/internal/embedder"
	"semdex/internal/vecdb"
)

// embedBatchSize is the number of chunk texts per provider call.
const embedBatchSize = 32

const modelMetaKey = "embedding_model"

// Result is a transient search hit. Score is a distance: lower means more
// relevant.
type Result struct {
	Content   string
	Source    string
	FilePath  string
	Score     float64
	StartLine int
	EndLine   int
}

// Stats describes the collection's current contents.
type Stats struct {
	TotalChunks int
	UniqueFiles int
	Dimension   int
	Location    string
}

// Store is the index store. Mutating operations serialize behind one lock;
// searches run concurrently with each other but never with a rebuild.
type Store struct {
	mu      sync.RWMutex
	coll    vecdb.Collection
	emb     *embedder.Adapter
	logger  *slog.Logger
	workers int
}

// Option configures a Store.
type Option func(*Store)

// WithWorkers sets the embedding fan-out width.
func WithWorkers(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates a store over the given collection and embedding adapter.
func New(coll vecdb.Collection, emb *embedder.Adapter, opts ...Option) *Store {
	s := &Store{
		coll:    coll,
		emb:     emb,
		logger:  slog.Default(),
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type pendingChunk struct {
	chunk chunker.Chunk
	hash  string
}

// AddChunks embeds and persists the batch, deduplicating by fingerprint
// against the whole store. With updateExisting, a file whose chunk set
// changed has all its prior records purged before its new chunks are
// inserted, so stale chunks from a shrunk file never linger; files whose
// chunk set is unchanged are left alone (and not re-embedded). Malformed
// chunks (empty content or path) are dropped, not an error. Returns the
// number of records actually inserted; zero net-new input is not a failure.
func (s *Store) AddChunks(ctx context.Context, chunks []chunker.Chunk, updateExisting bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	valid := chunks[:0:0]
	for _, c := range chunks {
		if c.Content == "" || c.FilePath == "" {
			continue
		}
		valid = append(valid, c)
	}
	if len(valid) == 0 {
		return 0, nil
	}

	exists, err := s.coll.Exists(ctx)
	if err != nil {
		return 0, fmt.Errorf("check collection: %w", err)
	}

	if exists {
		model, err := s.coll.GetMeta(ctx, modelMetaKey)
		if err != nil {
			return 0, fmt.Errorf("read model metadata: %w", err)
		}
		if model != "" && model != s.emb.ModelName() {
			return 0, fmt.Errorf("%w: collection built with %q, configured %q",
				ErrModelChanged, model, s.emb.ModelName())
		}
	}

	// Fingerprint the batch and group incoming hashes per file.
	incoming := make([]pendingChunk, 0, len(valid))
	incomingByFile := make(map[string]map[string]bool)
	for _, c := range valid {
		h := Fingerprint(c.FilePath, c.Content)
		incoming = append(incoming, pendingChunk{chunk: c, hash: h})
		if incomingByFile[c.FilePath] == nil {
			incomingByFile[c.FilePath] = make(map[string]bool)
		}
		incomingByFile[c.FilePath][h] = true
	}

	// Snapshot what the store already holds.
	storedHashes := make(map[string]bool)
	storedByFile := make(map[string]map[string]bool)
	if exists {
		records, err := s.coll.Scan(ctx)
		if err != nil {
			return 0, fmt.Errorf("scan collection: %w", err)
		}
		for _, r := range records {
			storedHashes[r.ChunkHash] = true
			if storedByFile[r.FilePath] == nil {
				storedByFile[r.FilePath] = make(map[string]bool)
			}
			storedByFile[r.FilePath][r.ChunkHash] = true
		}
	}

	// Full-file replace: purge files whose chunk set changed. Unchanged
	// files keep their records verbatim, which is what makes re-indexing an
	// unmodified tree a no-op.
	if exists && updateExisting {
		for path, hashes := range incomingByFile {
			stored, ok := storedByFile[path]
			if !ok || sameHashSet(stored, hashes) {
				continue
			}
			removed, err := s.removeByFileLocked(ctx, path)
			if err != nil {
				return 0, fmt.Errorf("purge %s: %w", path, err)
			}
			for h := range stored {
				delete(storedHashes, h)
			}
			s.logger.Debug("purged stale chunks", "file", path, "removed", removed)
		}
		exists, err = s.coll.Exists(ctx)
		if err != nil {
			return 0, fmt.Errorf("check collection: %w", err)
		}
	}

	// Dedup across the whole store and within the batch; only genuinely new
	// fingerprints get embedded.
	var fresh []pendingChunk
	batchSeen := make(map[string]bool)
	for _, p := range incoming {
		if storedHashes[p.hash] || batchSeen[p.hash] {
			continue
		}
		batchSeen[p.hash] = true
		fresh = append(fresh, p)
	}
	skipped := len(incoming) - len(fresh)
	if len(fresh) == 0 {
		s.logger.Info("all chunks already indexed", "skipped", skipped)
		return 0, nil
	}

	vectors, err := s.embedChunks(ctx, fresh)
	if err != nil {
		return 0, err
	}

	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return 0, fmt.Errorf("%w: chunk %d has %d, batch has %d",
				vecdb.ErrDimensionMismatch, i, len(v), dim)
		}
	}
	if exists {
		collDim, err := s.coll.Dimension(ctx)
		if err != nil {
			return 0, fmt.Errorf("read collection dimension: %w", err)
		}
		if collDim != 0 && collDim != dim {
			return 0, fmt.Errorf("%w: provider produces %d, collection has %d",
				vecdb.ErrDimensionMismatch, dim, collDim)
		}
	}

	now := time.Now().Format(time.RFC3339)
	records := make([]vecdb.Record, len(fresh))
	for i, p := range fresh {
		records[i] = vecdb.Record{
			Vector:    vectors[i],
			Content:   p.chunk.Content,
			Source:    p.chunk.Source,
			FilePath:  p.chunk.FilePath,
			ChunkHash: p.hash,
			Timestamp: now,
			StartLine: p.chunk.StartLine,
			EndLine:   p.chunk.EndLine,
		}
	}

	if exists {
		err = s.coll.Append(ctx, records)
	} else {
		err = s.coll.Create(ctx, records)
	}
	if err != nil {
		return 0, fmt.Errorf("persist chunks: %w", err)
	}
	if err := s.coll.SetMeta(ctx, modelMetaKey, s.emb.ModelName()); err != nil {
		return 0, fmt.Errorf("record model metadata: %w", err)
	}

	s.logger.Info("chunks indexed", "added", len(records), "skipped", skipped)
	return len(records), nil
}

// embedChunks fans chunk embedding out across workers and fans back in. No
// ordering guarantee is needed across chunks, but each vector lands at its
// chunk's index.
func (s *Store) embedChunks(ctx context.Context, fresh []pendingChunk) ([][]float32, error) {
	vectors := make([][]float32, len(fresh))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for start := 0; start < len(fresh); start += embedBatchSize {
		end := min(start+embedBatchSize, len(fresh))
		g.Go(func() error {
			texts := make([]string, end-start)
			for i := range texts {
				texts[i] = fresh[start+i].chunk.Content
			}
			vecs, err := s.emb.Embed(ctx, texts)
			if err != nil {
				return fmt.Errorf("embed chunks: %w", err)
			}
			if len(vecs) != len(texts) {
				return fmt.Errorf("embed chunks: expected %d vectors, got %d", len(texts), len(vecs))
			}
			copy(vectors[start:end], vecs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// Search embeds the query and returns up to topK results ascending by
// distance. The optional path prefix is applied after the limited
// nearest-neighbor scan, so an aggressive filter can return fewer than topK
// results even when more matches exist elsewhere.
func (s *Store) Search(ctx context.Context, query string, topK int, pathPrefix string) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	exists, err := s.coll.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check collection: %w", err)
	}
	if !exists {
		return nil, ErrNotIndexed
	}

	vec, err := s.emb.EmbedSingle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query %q: %w", query, err)
	}

	scored, err := s.coll.NearestNeighbors(ctx, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("search top %d for %q: %w", topK, query, err)
	}

	results := make([]Result, 0, len(scored))
	for _, r := range scored {
		if pathPrefix != "" && !strings.HasPrefix(r.FilePath, pathPrefix) {
			continue
		}
		results = append(results, Result{
			Content:   r.Content,
			Source:    r.Source,
			FilePath:  r.FilePath,
			Score:     r.Distance,
			StartLine: r.StartLine,
			EndLine:   r.EndLine,
		})
	}
	return results, nil
}

// RemoveByFile deletes all records whose FilePath equals path and returns
// how many were removed.
func (s *Store) RemoveByFile(ctx context.Context, path string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeByFileLocked(ctx, path)
}

func (s *Store) removeByFileLocked(ctx context.Context, path string) (int, error) {
	exists, err := s.coll.Exists(ctx)
	if err != nil {
		return 0, fmt.Errorf("check collection: %w", err)
	}
	if !exists {
		return 0, nil
	}

	// Engines with native row delete take the fast path.
	if deleter, ok := s.coll.(vecdb.RecordDeleter); ok {
		n, err := deleter.DeleteByFile(ctx, path)
		if err != nil {
			return 0, fmt.Errorf("delete records for %s: %w", path, err)
		}
		return n, nil
	}

	// Fallback: read everything, drop, recreate without the file. Fine for
	// moderate corpus sizes; not meant for massive high-churn stores.
	records, err := s.coll.Scan(ctx)
	if err != nil {
		return 0, fmt.Errorf("scan collection: %w", err)
	}
	kept := records[:0:0]
	for _, r := range records {
		if r.FilePath != path {
			kept = append(kept, r)
		}
	}
	removed := len(records) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := s.coll.Drop(ctx); err != nil {
		return 0, fmt.Errorf("rebuild collection: %w", err)
	}
	if len(kept) > 0 {
		if err := s.coll.Create(ctx, kept); err != nil {
			return 0, fmt.Errorf("rebuild collection: %w", err)
		}
	}
	return removed, nil
}

// Clear drops the whole collection. Idempotent when already absent.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.coll.Drop(ctx); err != nil {
		return fmt.Errorf("clear collection: %w", err)
	}
	s.logger.Info("collection cleared", "location", s.coll.Location())
	return nil
}

// Stats scans the collection and reports totals. An absent collection yields
// a zeroed result, never an error.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{Location: s.coll.Location()}

	exists, err := s.coll.Exists(ctx)
	if err != nil {
		return stats, fmt.Errorf("check collection: %w", err)
	}
	if !exists {
		return stats, nil
	}

	records, err := s.coll.Scan(ctx)
	if err != nil {
		return stats, fmt.Errorf("scan collection: %w", err)
	}
	files := make(map[string]bool)
	for _, r := range records {
		files[r.FilePath] = true
	}
	stats.TotalChunks = len(records)
	stats.UniqueFiles = len(files)

	dim, err := s.coll.Dimension(ctx)
	if err != nil {
		return stats, fmt.Errorf("read collection dimension: %w", err)
	}
	stats.Dimension = dim
	return stats, nil
}

// IndexedFiles returns the distinct file paths present in the store,
// optionally restricted to those under prefix. Derived by scanning; an
// absent collection yields an empty set.
func (s *Store) IndexedFiles(ctx context.Context, prefix string) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exists, err := s.coll.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check collection: %w", err)
	}
	files := make(map[string]bool)
	if !exists {
		return files, nil
	}

	records, err := s.coll.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan collection: %w", err)
	}
	for _, r := range records {
		if prefix == "" || strings.HasPrefix(r.FilePath, prefix) {
			files[r.FilePath] = true
		}
	}
	return files, nil
}

func sameHashSet(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for h := range a {
		if !b[h] {
			return false
		}
	}
	return true
}
