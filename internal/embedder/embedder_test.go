package embedder

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedder wraps the static embedder and counts provider calls.
type countingEmbedder struct {
	inner Embedder
	calls atomic.Int64
	texts atomic.Int64
}

func (c *countingEmbedder) ModelName() string { return c.inner.ModelName() }

func (c *countingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	c.calls.Add(1)
	c.texts.Add(int64(len(texts)))
	return c.inner.Embed(ctx, texts)
}

func TestStaticEmbedderDeterministic(t *testing.T) {
	e := NewStaticEmbedder()
	ctx := context.Background()

	a, err := e.Embed(ctx, []string{"player movement logic"})
	require.NoError(t, err)
	b, err := e.Embed(ctx, []string{"player movement logic"})
	require.NoError(t, err)

	require.Len(t, a, 1)
	assert.Equal(t, a[0], b[0])
	assert.Len(t, a[0], StaticDimensions)
}

func TestAdapterCachesDimension(t *testing.T) {
	counting := &countingEmbedder{inner: NewStaticEmbedder()}
	a := NewAdapter(counting)
	ctx := context.Background()

	dim, err := a.Dimension(ctx)
	require.NoError(t, err)
	assert.Equal(t, StaticDimensions, dim)

	// Second call answers from cache without touching the provider.
	before := counting.calls.Load()
	dim, err = a.Dimension(ctx)
	require.NoError(t, err)
	assert.Equal(t, StaticDimensions, dim)
	assert.Equal(t, before, counting.calls.Load())
}

func TestAdapterRecordsDimensionFromEmbed(t *testing.T) {
	counting := &countingEmbedder{inner: NewStaticEmbedder()}
	a := NewAdapter(counting)
	ctx := context.Background()

	_, err := a.EmbedSingle(ctx, "some chunk content")
	require.NoError(t, err)

	// Dimension is already known; no probe call happens.
	before := counting.calls.Load()
	dim, err := a.Dimension(ctx)
	require.NoError(t, err)
	assert.Equal(t, StaticDimensions, dim)
	assert.Equal(t, before, counting.calls.Load())
}

func TestCachedEmbedderSkipsRepeats(t *testing.T) {
	counting := &countingEmbedder{inner: NewStaticEmbedder()}
	c := NewCached(counting, 10)
	ctx := context.Background()

	first, err := c.Embed(ctx, []string{"query one", "query two"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), counting.texts.Load())

	// One hit, one miss: only the miss reaches the provider.
	second, err := c.Embed(ctx, []string{"query one", "query three"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), counting.texts.Load())
	assert.Equal(t, first[0], second[0])
}
