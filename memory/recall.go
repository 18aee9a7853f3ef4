package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/becomeliminal/teachable-go/observe"
)

// DefaultMaxRecall is the number of memos rendered when no bound is given.
const DefaultMaxRecall = 10

// memoBudget is the total number of characters Format spends on memos.
const memoBudget = 2000

// Recaller finds the memos relevant to an incoming message.
//
// Without an Index every memo is scored on each query. With an Index the
// candidates come from the index, but scores are still computed from the
// Store's embeddings so the result is the same either way.
type Recaller struct {
	store    Store
	embedder Embedder // Internal: hooks never see this
	index    Index
	scale    Scale
}

// RecallOption configures a Recaller.
type RecallOption func(*Recaller)

// WithIndex makes the Recaller take its candidates from idx.
func WithIndex(idx Index) RecallOption {
	return func(r *Recaller) {
		r.index = idx
	}
}

// WithScale sets how thresholds passed to Recall are interpreted.
func WithScale(s Scale) RecallOption {
	return func(r *Recaller) {
		r.scale = s
	}
}

// NewRecaller creates a Recaller over store.
func NewRecaller(store Store, embedder Embedder, opts ...RecallOption) *Recaller {
	r := &Recaller{
		store:    store,
		embedder: embedder,
		scale:    ScaleSimilarity,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Recall embeds query and returns every memo scoring at or above threshold,
// highest first. Memos with identical content are reported once, with their
// best score. Ties go to the memo created first.
func (r *Recaller) Recall(ctx context.Context, query string, threshold float64) ([]Scored, error) {
	ctx, span := observe.StartSpan(ctx, "memory.recall")
	defer span.End()

	if strings.TrimSpace(query) == "" {
		return nil, &EmbeddingError{Err: ErrEmptyText}
	}

	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		span.RecordError(err)
		return nil, NewEmbeddingError(fmt.Errorf("embed query: %w", err))
	}

	var scored []Scored
	if r.index != nil {
		scored, err = r.indexed(ctx, embedding)
	} else {
		scored, err = r.linear(ctx, embedding)
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	minSim := r.scale.MinSimilarity(threshold)
	kept := scored[:0]
	for _, s := range scored {
		if s.Score >= minSim {
			kept = append(kept, s)
		}
	}

	sortScored(kept)
	result := dedupe(kept)
	span.SetAttributes(
		attribute.Int("memo.candidates", len(scored)),
		attribute.Int("memo.recalled", len(result)),
	)
	return result, nil
}

// linear scores every stored memo.
func (r *Recaller) linear(ctx context.Context, query []float32) ([]Scored, error) {
	memos, err := r.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load memos: %w", err)
	}

	vectors := make([]Vector, len(memos))
	byID := make(map[string]Memo, len(memos))
	for i, m := range memos {
		vectors[i] = Vector{ID: m.ID, Embedding: m.Embedding}
		byID[m.ID] = m
	}

	hits := Search(query, vectors, 0)
	scored := make([]Scored, 0, len(hits))
	for _, h := range hits {
		scored = append(scored, Scored{Memo: byID[h.ID], Score: h.Score})
	}
	return scored, nil
}

// indexed asks the index for candidates and rescores them from the store.
func (r *Recaller) indexed(ctx context.Context, query []float32) ([]Scored, error) {
	n := r.index.Count()
	if n == 0 {
		return nil, nil
	}

	hits, err := r.index.Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}

	memos, err := r.store.Get(ctx, ids...)
	if err != nil {
		return nil, fmt.Errorf("load memos: %w", err)
	}

	scored := make([]Scored, 0, len(memos))
	for _, m := range memos {
		scored = append(scored, Scored{Memo: m, Score: CosineSimilarity(query, m.Embedding)})
	}
	return scored, nil
}

// sortScored orders by score, then creation time, then ID. ULIDs sort in
// creation order, so the final key only matters for equal timestamps.
func sortScored(s []Scored) {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].Score != s[j].Score {
			return s[i].Score > s[j].Score
		}
		if !s[i].Memo.CreatedAt.Equal(s[j].Memo.CreatedAt) {
			return s[i].Memo.CreatedAt.Before(s[j].Memo.CreatedAt)
		}
		return s[i].Memo.ID < s[j].Memo.ID
	})
}

// dedupe keeps the first (best scoring) memo for each distinct content.
func dedupe(sorted []Scored) []Scored {
	seen := make(map[string]bool, len(sorted))
	var out []Scored
	for _, s := range sorted {
		if seen[s.Memo.Content] {
			continue
		}
		seen[s.Memo.Content] = true
		out = append(out, s)
	}
	return out
}

// Format renders recalled memos for prompt injection, at most max of them
// (DefaultMaxRecall when max <= 0). An empty result renders as "".
func Format(results []Scored, max int) string {
	if len(results) == 0 {
		return ""
	}
	if max <= 0 {
		max = DefaultMaxRecall
	}
	if len(results) > max {
		results = results[:max]
	}

	// Calculate max length per memo
	maxLengthPerMemo := memoBudget / len(results)
	if maxLengthPerMemo < 100 {
		maxLengthPerMemo = 100 // Minimum reasonable length
	}

	var b strings.Builder
	b.WriteString("# Memories that might help\n")
	for _, r := range results {
		b.WriteString("- ")
		b.WriteString(r.Memo.Format(FormatContext{MaxLength: maxLengthPerMemo}))
		b.WriteString("\n")
	}
	return b.String()
}
