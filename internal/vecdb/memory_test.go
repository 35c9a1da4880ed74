package vecdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(path, hash string, vec ...float32) Record {
	return Record{Vector: vec, Content: "content of " + hash, FilePath: path, ChunkHash: hash}
}

func TestMemoryLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	exists, err := m.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = m.Scan(ctx)
	assert.ErrorIs(t, err, ErrAbsent)
	_, err = m.NearestNeighbors(ctx, []float32{1, 0}, 5)
	assert.ErrorIs(t, err, ErrAbsent)
	assert.ErrorIs(t, m.Append(ctx, []Record{rec("/a", "h1", 1, 0)}), ErrAbsent)

	require.NoError(t, m.Create(ctx, []Record{rec("/a", "h1", 1, 0)}))
	exists, err = m.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	dim, err := m.Dimension(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, dim)

	require.NoError(t, m.Drop(ctx))
	exists, err = m.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	// Drop is idempotent.
	require.NoError(t, m.Drop(ctx))
}

func TestMemoryRejectsDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Create(ctx, []Record{rec("/a", "h1", 1, 0, 0)}))
	err := m.Append(ctx, []Record{rec("/b", "h2", 1, 0)})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = m.NearestNeighbors(ctx, []float32{1}, 3)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestMemoryNearestNeighborsOrdersAscending(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Create(ctx, []Record{
		rec("/a", "far", 0, 1),
		rec("/b", "near", 1, 0),
		rec("/c", "mid", 0.5, 0.5),
	}))

	got, err := m.NearestNeighbors(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "near", got[0].ChunkHash)
	assert.Equal(t, "mid", got[1].ChunkHash)
	assert.Less(t, got[0].Distance, got[1].Distance)
}

func TestMemoryNearestNeighborsNonPositiveLimit(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Create(ctx, []Record{rec("/a", "h1", 1, 0)}))

	for _, limit := range []int{0, -1} {
		got, err := m.NearestNeighbors(ctx, []float32{1, 0}, limit)
		require.NoError(t, err)
		assert.Empty(t, got)
	}
}

func TestMemoryMetaSurvivesDrop(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.SetMeta(ctx, "embedding_model", "static-hash"))
	require.NoError(t, m.Drop(ctx))
	v, err := m.GetMeta(ctx, "embedding_model")
	require.NoError(t, err)
	assert.Equal(t, "static-hash", v)
}
