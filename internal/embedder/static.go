package embedder

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

// StaticDimensions is the output dimension of the static embedder.
const StaticDimensions = 64

var tokenRegex = regexp.MustCompile(`[a-zA-Z0-9]+`)

// StaticEmbedder generates deterministic hash-based embeddings with no
// network or model dependency. Semantic quality is poor; it exists for tests
// and offline smoke runs.
type StaticEmbedder struct{}

// NewStaticEmbedder creates a static embedder.
func NewStaticEmbedder() *StaticEmbedder { return &StaticEmbedder{} }

// ModelName identifies the static embedder.
func (s *StaticEmbedder) ModelName() string { return "static-hash" }

// Embed hashes tokens into fixed buckets and normalizes the result.
func (s *StaticEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vecs[i] = s.embedOne(text)
	}
	return vecs, nil
}

func (s *StaticEmbedder) embedOne(text string) []float32 {
	vec := make([]float32, StaticDimensions)
	for _, tok := range tokenRegex.FindAllString(strings.ToLower(text), -1) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[h.Sum32()%StaticDimensions]++
	}
	return normalize(vec)
}

// normalize scales a vector to unit length. Zero vectors pass through.
func normalize(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	mag := math.Sqrt(sumSquares)
	if mag == 0 {
		return v
	}
	for i, val := range v {
		v[i] = float32(float64(val) / mag)
	}
	return v
}
