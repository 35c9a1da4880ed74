package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the default number of embeddings kept in memory.
const DefaultCacheSize = 1000

// Cached wraps an Embedder with LRU caching so repeated texts (typically
// queries) skip the provider round trip.
type Cached struct {
	inner Embedder
	cache *lru.Cache[string, []float32]
}

// NewCached creates a caching wrapper around the given embedder.
func NewCached(inner Embedder, size int) *Cached {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, _ := lru.New[string, []float32](size)
	return &Cached{inner: inner, cache: cache}
}

// ModelName returns the inner embedder's model identifier.
func (c *Cached) ModelName() string { return c.inner.ModelName() }

// cacheKey hashes text together with the model name so switching models never
// serves stale vectors.
func (c *Cached) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text + "\x00" + c.inner.ModelName()))
	return hex.EncodeToString(sum[:])
}

// Embed returns cached vectors where available and embeds only the misses in
// a single provider call.
func (c *Cached) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		if vec, ok := c.cache.Get(c.cacheKey(text)); ok {
			results[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) > 0 {
		vecs, err := c.inner.Embed(ctx, missTexts)
		if err != nil {
			return nil, err
		}
		for j, i := range missIdx {
			results[i] = vecs[j]
			c.cache.Add(c.cacheKey(texts[i]), vecs[j])
		}
	}

	return results, nil
}
