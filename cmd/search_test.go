package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"semdex/internal/store"
)

func TestFormatSearchResultsEmpty(t *testing.T) {
	out := formatSearchResults("player movement", nil)
	assert.Contains(t, out, "No results found")
	assert.Contains(t, out, "semdex index")
}

func TestFormatSearchResults(t *testing.T) {
	out := formatSearchResults("score", []store.Result{
		{
			Content:   "public int score;",
			Source:    "GameManager.cs",
			FilePath:  "/proj/GameManager.cs",
			Score:     0.1234,
			StartLine: 10,
			EndLine:   14,
		},
	})

	assert.Contains(t, out, "Found 1 results")
	assert.Contains(t, out, "Result #1")
	assert.Contains(t, out, "File: /proj/GameManager.cs")
	assert.Contains(t, out, "Lines: 10-14")
	assert.Contains(t, out, "Relevance: 0.1234")
	assert.Contains(t, out, "```cs\npublic int score;\n```")
	assert.Contains(t, out, "Search Tips:")
}
