package chunker

import "strings"

// Code splits source code at top-level declaration boundaries by tracking
// brace depth line by line. A boundary is emitted when depth returns to zero
// after having been non-zero. Braces are counted wherever they appear,
// including inside string literals — this is a deliberate heuristic, not a
// parser, and can misfire on literals containing delimiter characters.
func Code(content, path string) []Chunk {
	lines := strings.Split(content, "\n")

	var chunks []Chunk
	var current []string
	startLine := 1
	depth := 0
	opened := false

	for i, line := range lines {
		current = append(current, line)
		for _, ch := range line {
			switch ch {
			case '{':
				depth++
				opened = true
			case '}':
				depth--
			}
		}
		if depth == 0 && opened {
			if c, ok := makeChunk(current, path, startLine, i+1, MinChunkLines); ok {
				chunks = append(chunks, c)
			}
			current = nil
			startLine = i + 2
			opened = false
		}
	}

	// Whatever is left when input ends (trailing content, or an unbalanced
	// file that never reached a boundary) is flushed under the same floor.
	if len(current) > 0 {
		if c, ok := makeChunk(current, path, startLine, len(lines), MinChunkLines); ok {
			chunks = append(chunks, c)
		}
	}

	return chunks
}
