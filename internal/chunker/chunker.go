// Package chunker splits file content into retrievable chunks with line
// positions. Two strategies: structural chunking for code (brace depth) and
// paragraph chunking for prose.
package chunker

import (
	"path/filepath"
	"strings"
)

// Minimum chunk requirements. Undersized chunks are dropped, not merged.
const (
	MinChunkChars = 50
	MinChunkLines = 5
)

// Chunk is a contiguous span of a source file before fingerprinting and
// embedding. StartLine and EndLine are 1-indexed and inclusive.
type Chunk struct {
	Content   string
	Source    string // base file name
	FilePath  string // absolute path, identity key
	StartLine int
	EndLine   int
}

// proseExts selects the paragraph strategy. Everything else is chunked
// structurally.
var proseExts = map[string]bool{
	".md":  true,
	".txt": true,
}

// IsProse reports whether the path gets paragraph chunking.
func IsProse(path string) bool {
	return proseExts[strings.ToLower(filepath.Ext(path))]
}

// Split chunks content with the strategy matching the file extension.
func Split(content, path string) []Chunk {
	if IsProse(path) {
		return Text(content, path)
	}
	return Code(content, path)
}

func makeChunk(lines []string, path string, startLine, endLine, minLines int) (Chunk, bool) {
	content := strings.TrimSpace(strings.Join(lines, "\n"))
	if len(content) < MinChunkChars || len(lines) < minLines {
		return Chunk{}, false
	}
	return Chunk{
		Content:   content,
		Source:    filepath.Base(path),
		FilePath:  path,
		StartLine: startLine,
		EndLine:   endLine,
	}, true
}
