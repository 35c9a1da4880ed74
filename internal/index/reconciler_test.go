package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semdex/internal/embedder"
	"semdex/internal/store"
	"semdex/internal/vecdb"
)

const codeSample = `public class GameManager {
    private int score;
    public void AddScore(int points) {
        score += points;
    }
}`

const proseSample = `This design document describes the scoring system and how points accumulate.

Scores persist between sessions and reset only when the player starts a new campaign run.`

func newTestEnv(t *testing.T) (*store.Store, string) {
	t.Helper()
	st := store.New(vecdb.NewMemory(), embedder.NewAdapter(embedder.NewStaticEmbedder()), store.WithWorkers(2))
	return st, t.TempDir()
}

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReconcileIndexesTree(t *testing.T) {
	ctx := context.Background()
	st, root := newTestEnv(t)

	writeFile(t, root, "src/GameManager.cs", codeSample)
	writeFile(t, root, "docs/design.md", proseSample)
	writeFile(t, root, "src/tiny.cs", "int x;")
	writeFile(t, root, "node_modules/dep/index.js", codeSample)
	writeFile(t, root, "assets/logo.png", "not source")

	stats, err := Reconcile(ctx, st, root, Options{Workers: 2})
	require.NoError(t, err)

	// png never walked, node_modules subtree skipped entirely.
	assert.Equal(t, 3, stats.FilesTotal)
	assert.Equal(t, 2, stats.FilesChunked)
	assert.Equal(t, 1, stats.FilesSkipped)
	assert.Equal(t, 3, stats.ChunksInserted) // one code chunk, two paragraphs
	assert.Equal(t, 0, stats.FilesRemoved)

	files, err := st.IndexedFiles(ctx, "")
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestReconcileIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st, root := newTestEnv(t)
	writeFile(t, root, "a.cs", codeSample)
	writeFile(t, root, "notes.md", proseSample)

	first, err := Reconcile(ctx, st, root, Options{})
	require.NoError(t, err)
	require.Positive(t, first.ChunksInserted)

	second, err := Reconcile(ctx, st, root, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, second.ChunksInserted)
	assert.Equal(t, first.FilesChunked, second.FilesChunked)
}

func TestReconcileReplacesModifiedFile(t *testing.T) {
	ctx := context.Background()
	st, root := newTestEnv(t)
	path := writeFile(t, root, "a.cs", codeSample)

	_, err := Reconcile(ctx, st, root, Options{})
	require.NoError(t, err)

	modified := `public class GameManager {
    private int score;
    public void ResetScore() {
        score = 0;
    }
}`
	require.NoError(t, os.WriteFile(path, []byte(modified), 0o644))

	stats, err := Reconcile(ctx, st, root, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ChunksInserted)

	// Old chunk purged, so the total equals the new file's chunk count.
	storeStats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, storeStats.TotalChunks)
}

func TestReconcileRemovesDeletedFiles(t *testing.T) {
	ctx := context.Background()
	st, root := newTestEnv(t)
	keep := writeFile(t, root, "keep.cs", codeSample)
	gone := writeFile(t, root, "gone.cs", `public class AudioManager {
    private float volume;
    public void SetVolume(float v) {
        volume = v;
    }
}`)

	_, err := Reconcile(ctx, st, root, Options{})
	require.NoError(t, err)

	require.NoError(t, os.Remove(gone))

	stats, err := Reconcile(ctx, st, root, Options{RemoveDeleted: true})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesRemoved)

	files, err := st.IndexedFiles(ctx, "")
	require.NoError(t, err)
	assert.True(t, files[keep])
	assert.Len(t, files, 1)
}

func TestReconcileKeepsDeletedWithoutFlag(t *testing.T) {
	ctx := context.Background()
	st, root := newTestEnv(t)
	gone := writeFile(t, root, "gone.cs", codeSample)

	_, err := Reconcile(ctx, st, root, Options{})
	require.NoError(t, err)
	require.NoError(t, os.Remove(gone))

	stats, err := Reconcile(ctx, st, root, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.FilesRemoved)

	files, err := st.IndexedFiles(ctx, "")
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestReconcileRejectsMissingRoot(t *testing.T) {
	st, _ := newTestEnv(t)
	_, err := Reconcile(context.Background(), st, "/nonexistent/path/here", Options{})
	assert.Error(t, err)
}
