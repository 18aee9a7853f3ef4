// Package ollama embeds text with a local Ollama server.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/becomeliminal/teachable-go/memory"
)

// Config configures the Ollama embedder.
type Config struct {
	// BaseURL of the Ollama server. Default: $OLLAMA_HOST or http://localhost:11434.
	BaseURL string

	// Model is the embedding model. Default: nomic-embed-text.
	Model string

	// Dimensions is the model's vector size. Default: 768 (384 for all-minilm).
	Dimensions int
}

// Embedder calls Ollama's embeddings endpoint.
type Embedder struct {
	client *api.Client
	model  string
	dims   int
}

// New creates an Ollama embedder.
func New(cfg Config) (*Embedder, error) {
	if cfg.Model == "" {
		cfg.Model = "nomic-embed-text"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv("OLLAMA_HOST")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = 768
		if cfg.Model == "all-minilm" {
			cfg.Dimensions = 384
		}
	}

	uri, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, &memory.ConfigurationError{Field: "ollama url", Reason: err.Error()}
	}

	return &Embedder{
		client: api.NewClient(uri, http.DefaultClient),
		model:  cfg.Model,
		dims:   cfg.Dimensions,
	}, nil
}

// Embed converts text to embedding vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &memory.EmbeddingError{Err: memory.ErrEmptyText}
	}

	resp, err := e.client.Embeddings(ctx, &api.EmbeddingRequest{
		Model:  e.model,
		Prompt: text,
	})
	if err != nil {
		return nil, &memory.EmbeddingError{Err: fmt.Errorf("ollama embeddings: %w", err)}
	}
	if len(resp.Embedding) == 0 {
		return nil, &memory.EmbeddingError{Err: fmt.Errorf("ollama returned no embedding")}
	}

	vec := make([]float32, len(resp.Embedding))
	for i, v := range resp.Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

// Dimensions returns the configured vector size.
func (e *Embedder) Dimensions() int { return e.dims }
