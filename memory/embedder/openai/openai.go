// Package openai embeds text with any OpenAI-compatible embeddings API.
package openai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/becomeliminal/teachable-go/memory"
)

// Config configures the OpenAI embedder.
type Config struct {
	APIKey string

	// BaseURL overrides the API endpoint, e.g. for a compatible proxy.
	BaseURL string

	// Model defaults to text-embedding-3-small.
	Model string

	// Dimensions defaults to 1536.
	Dimensions int
}

// Embedder calls the embeddings endpoint.
type Embedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
	dims   int
}

// New creates an OpenAI embedder.
func New(cfg Config) *Embedder {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	model := openai.SmallEmbedding3
	if cfg.Model != "" {
		model = openai.EmbeddingModel(cfg.Model)
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = 1536
	}

	return &Embedder{
		client: openai.NewClientWithConfig(config),
		model:  model,
		dims:   cfg.Dimensions,
	}
}

// Embed converts text to embedding vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &memory.EmbeddingError{Err: memory.ErrEmptyText}
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		return nil, &memory.EmbeddingError{Err: fmt.Errorf("openai embeddings: %w", err)}
	}
	if len(resp.Data) == 0 {
		return nil, &memory.EmbeddingError{Err: fmt.Errorf("no embedding returned")}
	}
	return resp.Data[0].Embedding, nil
}

// Dimensions returns the configured vector size.
func (e *Embedder) Dimensions() int { return e.dims }
