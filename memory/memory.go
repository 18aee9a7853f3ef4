package memory

import (
	"context"

	"github.com/becomeliminal/teachable-go/core"
)

// Store is the durable memo storage backend.
// Implementations: sqlite.Store, postgres.Store.
//
// A Store exclusively owns its persisted data. Writes are serialised by the
// implementation; every mutating call is durable once it returns.
type Store interface {
	// Put appends a memo and returns its ID. The store assigns ID and
	// CreatedAt when they are empty. Existing memos are never overwritten.
	Put(ctx context.Context, memo Memo) (string, error)

	// Get returns the memos with the given IDs in insertion order.
	// Unknown IDs are skipped.
	Get(ctx context.Context, ids ...string) ([]Memo, error)

	// GetAll returns every memo in insertion order.
	GetAll(ctx context.Context) ([]Memo, error)

	// Reset discards all memos. Resetting an empty store is not an error.
	Reset(ctx context.Context) error

	// Close flushes and releases resources.
	Close() error
}

// Counter is implemented by stores that can count memos without loading
// them. Indexed recall uses it to notice memos written by other processes.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Index is an optional nearest-neighbour index kept next to a Store.
// It only narrows the candidate set; scores reported to callers are always
// computed from the Store's embeddings.
// Implementations: chromem.Index.
type Index interface {
	// Add indexes a stored memo.
	Add(ctx context.Context, memo Memo) error

	// Query returns up to n memo IDs ordered by similarity (highest first).
	Query(ctx context.Context, embedding []float32, n int) ([]Hit, error)

	// Count returns the number of indexed memos.
	Count() int

	// Reset drops every indexed memo.
	Reset(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// Embedder converts text to vector embeddings.
// Implementations must be deterministic for identical input and must fail
// with an *EmbeddingError on empty input.
type Embedder interface {
	// Embed converts a single text to embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns embedding vector size.
	Dimensions() int
}

// Analyzer decides whether a completed exchange contains a durable,
// generalisable fact and extracts it.
//
// Analyze never fails: malformed input, backend errors and plain chit-chat all
// yield ok == false. When ok is true the candidate's Topic is non-empty.
type Analyzer interface {
	Analyze(ctx context.Context, exchange core.Exchange) (candidate Candidate, ok bool)
}
