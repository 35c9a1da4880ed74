package walker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, root string, exts map[string]bool) []FileInfo {
	t.Helper()
	files, errs := Walk(context.Background(), root, exts)
	var out []FileInfo
	for f := range files {
		out = append(out, f)
	}
	require.NoError(t, <-errs)
	return out
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWalkFiltersByExtensionAndSkipList(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "main.cs"), "class A {}")
	write(t, filepath.Join(root, "README.md"), "# hello")
	write(t, filepath.Join(root, "image.png"), "binary")
	write(t, filepath.Join(root, "bin", "out.cs"), "class B {}")
	write(t, filepath.Join(root, "node_modules", "dep", "x.md"), "dep docs")
	write(t, filepath.Join(root, "src", "game.cs"), "class C {}")

	got := collect(t, root, map[string]bool{"cs": true, "md": true})

	var rels []string
	for _, f := range got {
		rels = append(rels, f.RelPath)
		assert.True(t, filepath.IsAbs(f.Path))
	}
	assert.ElementsMatch(t, []string{"main.cs", "README.md", "src/game.cs"}, rels)
}

func TestWalkEmitsEmptyFiles(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "empty.txt"), "")

	got := collect(t, root, map[string]bool{"txt": true})
	require.Len(t, got, 1)
	assert.Equal(t, int64(0), got[0].Size)
}

func TestWalkHonorsIgnoreFile(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, ".semdexignore"), "# custom\ngenerated\n")
	write(t, filepath.Join(root, "generated", "gen.cs"), "class G {}")
	write(t, filepath.Join(root, "keep.cs"), "class K {}")
	// Custom patterns replace the defaults entirely.
	write(t, filepath.Join(root, "bin", "tool.cs"), "class T {}")

	got := collect(t, root, map[string]bool{"cs": true})
	var rels []string
	for _, f := range got {
		rels = append(rels, f.RelPath)
	}
	assert.ElementsMatch(t, []string{"keep.cs", "bin/tool.cs"}, rels)
}

func TestWalkStopsOnContextCancel(t *testing.T) {
	root := t.TempDir()
	// Enough files to overflow the channel buffer so the walk goroutine is
	// blocked mid-send when the consumer goes away.
	for i := range 200 {
		write(t, filepath.Join(root, fmt.Sprintf("file%03d.cs", i)), "class A {}")
	}

	ctx, cancel := context.WithCancel(context.Background())
	files, errs := Walk(ctx, root, map[string]bool{"cs": true})

	// Take one file, then abandon the channel like a failed consumer does.
	<-files
	cancel()

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("walk goroutine still blocked after cancellation")
	}
}
