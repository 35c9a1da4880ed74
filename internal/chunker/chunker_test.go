package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeTwoTopLevelBlocks(t *testing.T) {
	// 20 lines: two brace-delimited blocks of 10 lines each.
	src := strings.Join([]string{
		"public class GameManager {",
		"    private int score;",
		"    public void AddScore(int points) {",
		"        score += points;",
		"    }",
		"    public int GetScore() {",
		"        return score;",
		"    }",
		"    private bool active;",
		"}",
		"public class AudioManager {",
		"    private float volume;",
		"    public void SetVolume(float v) {",
		"        volume = v;",
		"    }",
		"    public float GetVolume() {",
		"        return volume;",
		"    }",
		"    private bool muted;",
		"}",
	}, "\n")

	chunks := Code(src, "/proj/Managers.cs")
	require.Len(t, chunks, 2)

	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 10, chunks[0].EndLine)
	assert.Equal(t, 11, chunks[1].StartLine)
	assert.Equal(t, 20, chunks[1].EndLine)

	assert.Equal(t, "Managers.cs", chunks[0].Source)
	assert.Equal(t, "/proj/Managers.cs", chunks[0].FilePath)
	assert.Contains(t, chunks[0].Content, "GameManager")
	assert.Contains(t, chunks[1].Content, "AudioManager")
}

func TestCodeDropsUndersizedChunks(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"whitespace only", "   \n\t\n   \n"},
		{"too few lines", "type T struct { A int }"},
		{"too few chars", "x {\ny\n}\nz\na\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, Code(tt.src, "/proj/small.go"))
		})
	}
}

func TestCodeUnbalancedDepthFlushesAtEOF(t *testing.T) {
	// Depth never returns to zero; everything accumulates and flushes once.
	src := strings.Join([]string{
		"namespace Game {",
		"    class Player {",
		"        void Move() {",
		"            position += velocity;",
		"            UpdateAnimation();",
		"        }",
	}, "\n")

	chunks := Code(src, "/proj/Player.cs")
	require.Len(t, chunks, 1)
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 6, chunks[0].EndLine)
}

func TestCodeBracesInLiteralsCountAnyway(t *testing.T) {
	// The heuristic counts delimiters inside string literals too; a stray
	// close brace in a literal ends the block early. Documented behavior.
	src := strings.Join([]string{
		`func render() {`,
		`    a := compute("padding padding padding padding")`,
		`    b := compute("more padding here again and again")`,
		`    c := a + b + len("some once more for the floor")`,
		`    tmpl := "}"`,
		`    use(c, tmpl)`,
		`}`,
	}, "\n")

	chunks := Code(src, "/proj/render.go")
	require.Len(t, chunks, 1)
	// The literal close brace on line 5 ends the block early.
	assert.Equal(t, 5, chunks[0].EndLine)
}

func TestTextDropsShortParagraph(t *testing.T) {
	long1 := strings.Repeat("alpha beta gamma ", 5)
	long2 := strings.Repeat("delta epsilon zeta ", 5)
	src := long1 + "\n\nok\n\n" + long2

	chunks := Text(src, "/proj/notes.md")
	require.Len(t, chunks, 2)
	assert.Equal(t, strings.TrimSpace(long1), chunks[0].Content)
	assert.Equal(t, strings.TrimSpace(long2), chunks[1].Content)
}

func TestTextLineSpansAscending(t *testing.T) {
	para := func(lines int) string {
		row := strings.Repeat("word ", 15)
		return strings.TrimSpace(strings.Repeat(row+"\n", lines))
	}
	src := para(3) + "\n\n" + "tiny" + "\n\n" + para(2)

	chunks := Text(src, "/proj/doc.txt")
	require.Len(t, chunks, 2)

	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 3, chunks[0].EndLine)
	// The skipped paragraph still consumes its allotment.
	assert.Greater(t, chunks[1].StartLine, chunks[0].EndLine)
	assert.GreaterOrEqual(t, chunks[1].EndLine, chunks[1].StartLine)
}

func TestTextEmptyContent(t *testing.T) {
	assert.Empty(t, Text("", "/proj/empty.md"))
	assert.Empty(t, Text("\n\n\n\n", "/proj/blank.md"))
}

func TestSplitSelectsStrategy(t *testing.T) {
	assert.True(t, IsProse("/p/readme.MD"))
	assert.True(t, IsProse("/p/notes.txt"))
	assert.False(t, IsProse("/p/main.go"))
	assert.False(t, IsProse("/p/Game.cs"))
}
