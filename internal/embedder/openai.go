package embedder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig holds configuration for the OpenAI embedding provider.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // optional, for OpenAI-compatible endpoints
	Model   string
	Timeout time.Duration
}

// OpenAIEmbedder generates embeddings through the OpenAI embeddings API or
// any compatible endpoint.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
}

// NewOpenAIEmbedder creates a provider from configuration.
func NewOpenAIEmbedder(cfg OpenAIConfig) *OpenAIEmbedder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	model := cfg.Model
	if model == "" {
		model = "text-embedding-3-small"
	}

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}
}

// ModelName returns the configured model name.
func (e *OpenAIEmbedder) ModelName() string { return e.model }

// Embed generates embeddings for the given texts in a single API call.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrUnavailable, len(resp.Data), len(texts))
	}

	vecs := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vecs[i] = d.Embedding
	}
	return vecs, nil
}
