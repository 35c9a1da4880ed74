// Package embedder converts text into fixed-dimension float vectors.
package embedder

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrUnavailable indicates the embedding provider could not be reached or
// returned an unusable response. No retry happens at this layer; the error
// propagates to the caller.
var ErrUnavailable = errors.New("embedding provider unavailable")

// Embedder generates embeddings for a batch of texts. The returned slice has
// the same length and order as the input.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	ModelName() string
}

// Adapter wraps a provider and caches its output dimension, which is fixed
// for the lifetime of a given backing model.
type Adapter struct {
	provider Embedder

	mu  sync.Mutex
	dim int
}

// NewAdapter wraps the given provider.
func NewAdapter(p Embedder) *Adapter {
	return &Adapter{provider: p}
}

// ModelName returns the underlying provider's model identifier.
func (a *Adapter) ModelName() string { return a.provider.ModelName() }

// Embed delegates to the provider and records the observed dimension.
func (a *Adapter) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := a.provider.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) > 0 {
		a.recordDim(len(vecs[0]))
	}
	return vecs, nil
}

// EmbedSingle embeds one text and returns its vector.
func (a *Adapter) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vecs, err := a.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("%w: expected 1 embedding, got %d", ErrUnavailable, len(vecs))
	}
	return vecs[0], nil
}

// Dimension returns the provider's output dimension, probing it with a short
// text on first use. The result is cached for the adapter's lifetime.
func (a *Adapter) Dimension(ctx context.Context) (int, error) {
	a.mu.Lock()
	dim := a.dim
	a.mu.Unlock()
	if dim > 0 {
		return dim, nil
	}

	vec, err := a.EmbedSingle(ctx, "dimension probe")
	if err != nil {
		return 0, fmt.Errorf("probe embedding dimension: %w", err)
	}
	if len(vec) == 0 {
		return 0, fmt.Errorf("%w: provider returned an empty vector", ErrUnavailable)
	}
	return len(vec), nil
}

func (a *Adapter) recordDim(d int) {
	a.mu.Lock()
	if a.dim == 0 {
		a.dim = d
	}
	a.mu.Unlock()
}
