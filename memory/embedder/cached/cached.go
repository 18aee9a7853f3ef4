// Package cached memoises another embedder's vectors in a ristretto cache.
// Queries repeat often within a conversation, and remote embedders are slow.
package cached

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto"

	"github.com/becomeliminal/teachable-go/memory"
)

// Config sizes the cache.
type Config struct {
	// MaxEntries bounds how many vectors are kept. Default: 10000.
	MaxEntries int64
}

// Embedder wraps an inner memory.Embedder.
type Embedder struct {
	inner memory.Embedder
	cache *ristretto.Cache
}

// New wraps inner with a cache.
func New(inner memory.Embedder, cfg Config) (*Embedder, error) {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 10000
	}

	// Every entry costs 1, so MaxCost is an entry count.
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.MaxEntries * 10,
		MaxCost:     cfg.MaxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}

	return &Embedder{inner: inner, cache: cache}, nil
}

// Embed returns the cached vector for text, computing it on a miss.
// Failures are never cached.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := e.cache.Get(text); ok {
		return clone(v.([]float32)), nil
	}

	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Set(text, clone(vec), 1)
	return vec, nil
}

// Dimensions returns the inner embedder's size.
func (e *Embedder) Dimensions() int {
	return e.inner.Dimensions()
}

// Wait blocks until pending cache writes are applied.
func (e *Embedder) Wait() {
	e.cache.Wait()
}

// Close releases the cache.
func (e *Embedder) Close() error {
	e.cache.Close()
	return nil
}

func clone(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
