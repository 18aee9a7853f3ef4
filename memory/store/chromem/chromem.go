// Package chromem implements memory.Index on chromem-go, a pure Go embedded
// vector database.
package chromem

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/felixgeelhaar/bolt/v3"
	chromem "github.com/philippgille/chromem-go"

	"github.com/becomeliminal/teachable-go/memory"
	"github.com/becomeliminal/teachable-go/observe"
)

// DirName is the subdirectory of a memo directory that holds the index.
const DirName = "index"

const collectionName = "memos"

// Ensure Index implements memory.Index
var _ memory.Index = (*Index)(nil)

// Index wraps a chromem-go collection holding one document per memo.
// Similarity is chromem's default cosine.
type Index struct {
	db  *chromem.DB
	col *chromem.Collection
	mu  sync.RWMutex // guards col across Reset
	log *bolt.Logger
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger used for index diagnostics.
func WithLogger(l *bolt.Logger) Option {
	return func(i *Index) {
		i.log = observe.Component(l, "chromem")
	}
}

// Open opens or creates a persistent index under dir/DirName.
func Open(dir string, opts ...Option) (*Index, error) {
	db, err := chromem.NewPersistentDB(filepath.Join(dir, DirName), false)
	if err != nil {
		return nil, &memory.StorageError{Op: "open index", Err: err}
	}
	return newIndex(db, opts...)
}

// New creates an index that lives only in memory.
func New(opts ...Option) (*Index, error) {
	return newIndex(chromem.NewDB(), opts...)
}

func newIndex(db *chromem.DB, opts ...Option) (*Index, error) {
	i := &Index{db: db, log: observe.Discard()}
	for _, opt := range opts {
		opt(i)
	}

	col, err := db.GetOrCreateCollection(
		collectionName,
		nil, // No collection metadata
		nil, // No embedding func (we provide embeddings)
	)
	if err != nil {
		return nil, &memory.StorageError{Op: "open index", Err: fmt.Errorf("create collection: %w", err)}
	}
	i.col = col
	return i, nil
}

func (i *Index) collection() *chromem.Collection {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.col
}

// Add indexes a stored memo.
func (i *Index) Add(ctx context.Context, memo memory.Memo) error {
	if memo.ID == "" {
		return &memory.StorageError{Op: "index", Err: fmt.Errorf("memo has no ID")}
	}

	embedding := make([]float32, len(memo.Embedding))
	copy(embedding, memo.Embedding)

	doc := chromem.Document{
		ID:        memo.ID,
		Content:   memo.Content,
		Embedding: embedding,
		Metadata: map[string]string{
			"topic":      memo.Topic,
			"created_at": memo.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	}

	if err := i.collection().AddDocument(ctx, doc); err != nil {
		return &memory.StorageError{Op: "index", Err: fmt.Errorf("add document: %w", err)}
	}

	i.log.Info().Str("id", memo.ID).Str("topic", memo.Topic).Msg("memo indexed")
	return nil
}

// Query returns up to n memo IDs by similarity, highest first.
func (i *Index) Query(ctx context.Context, embedding []float32, n int) ([]memory.Hit, error) {
	col := i.collection()

	// chromem-go requires nResults <= collection size
	if count := col.Count(); n > count {
		n = count
	}
	if n <= 0 {
		return nil, nil
	}

	results, err := col.QueryEmbedding(ctx, embedding, n, nil, nil)
	if err != nil {
		return nil, &memory.StorageError{Op: "query index", Err: fmt.Errorf("chromem query: %w", err)}
	}

	hits := make([]memory.Hit, len(results))
	for j, r := range results {
		hits[j] = memory.Hit{ID: r.ID, Score: float64(r.Similarity)}
	}

	i.log.Info().Int("hits", len(hits)).Msg("index queried")
	return hits, nil
}

// Count returns the number of indexed memos.
func (i *Index) Count() int {
	return i.collection().Count()
}

// Reset drops and recreates the collection.
func (i *Index) Reset(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.db.DeleteCollection(collectionName); err != nil {
		return &memory.StorageError{Op: "reset index", Err: err}
	}
	col, err := i.db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return &memory.StorageError{Op: "reset index", Err: err}
	}
	i.col = col
	return nil
}

// Close releases resources.
func (i *Index) Close() error {
	// Persistent chromem-go writes every document on Add; nothing to flush.
	return nil
}
