// Package mock provides a deterministic embedder for tests.
package mock

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"github.com/becomeliminal/teachable-go/memory"
)

// DefaultDimensions matches all-MiniLM-L6-v2.
const DefaultDimensions = 384

// MockEmbedder generates deterministic embeddings based on text hash.
// Distinct texts produce unrelated vectors; Fixed pins chosen texts to chosen
// vectors so tests can control similarity exactly.
type MockEmbedder struct {
	dimensions int
	fixed      map[string][]float32
	calls      int
}

// New creates a new mock embedder.
func New() *MockEmbedder {
	return NewWithDimensions(DefaultDimensions)
}

// NewWithDimensions creates a mock embedder producing dims-sized vectors.
func NewWithDimensions(dims int) *MockEmbedder {
	return &MockEmbedder{
		dimensions: dims,
		fixed:      make(map[string][]float32),
	}
}

// Fix makes Embed return vec for text. vec must have Dimensions() entries.
func (m *MockEmbedder) Fix(text string, vec []float32) *MockEmbedder {
	m.fixed[text] = vec
	return m
}

// Calls returns how many times Embed was invoked.
func (m *MockEmbedder) Calls() int {
	return m.calls
}

// Embed creates a deterministic embedding from text.
func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.calls++
	if strings.TrimSpace(text) == "" {
		return nil, &memory.EmbeddingError{Err: memory.ErrEmptyText}
	}
	if vec, ok := m.fixed[text]; ok {
		out := make([]float32, len(vec))
		copy(out, vec)
		return out, nil
	}

	// Hash the text
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	embedding := make([]float32, m.dimensions)
	for i := 0; i < m.dimensions; i++ {
		// Simple LCG (Linear Congruential Generator)
		seed = seed*6364136223846793005 + 1442695040888963407
		// Convert to [-1, 1] range
		embedding[i] = float32(int64(seed)) / float32(math.MaxInt64)
	}

	return memory.Normalize(embedding), nil
}

// Dimensions returns the embedding size.
func (m *MockEmbedder) Dimensions() int {
	return m.dimensions
}
