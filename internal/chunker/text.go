package chunker

import (
	"path/filepath"
	"strings"
)

// Text splits prose into paragraphs on blank-line separators. Paragraphs
// shorter than MinChunkChars after trimming are dropped, but still consume
// their line allotment so spans stay contiguous and ascending. There is no
// line-count floor for prose.
func Text(content, path string) []Chunk {
	source := filepath.Base(path)

	var chunks []Chunk
	line := 1
	for _, para := range strings.Split(content, "\n\n") {
		para = strings.TrimSpace(para)
		n := strings.Count(para, "\n") + 1
		if len(para) >= MinChunkChars {
			chunks = append(chunks, Chunk{
				Content:   para,
				Source:    source,
				FilePath:  path,
				StartLine: line,
				EndLine:   line + n - 1,
			})
		}
		// Paragraph lines plus the blank-line separator.
		line += n + 2
	}
	return chunks
}
