// Package teachability gives an agent long-term memory across conversations.
//
// Before each reasoning step the capability recalls memos similar to the
// incoming message and prepends them. After each reply it asks an analyzer
// whether the exchange taught anything and, if so, stores a new memo. Both
// steps are best-effort: failures are logged and the turn carries on.
//
// Usage:
//
//	t, err := teachability.New(teachability.Config{
//	    PathToDBDir:     "./tmp/teachable_agent_db",
//	    RecallThreshold: 0.3,
//	})
//	if err != nil { ... }
//	defer t.Close()
//	t.AddToAgent(engine)
package teachability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/becomeliminal/teachable-go/core"
	"github.com/becomeliminal/teachable-go/memory"
	"github.com/becomeliminal/teachable-go/memory/analyzer"
	"github.com/becomeliminal/teachable-go/memory/embedder/lexical"
	"github.com/becomeliminal/teachable-go/memory/store/chromem"
	"github.com/becomeliminal/teachable-go/memory/store/sqlite"
	"github.com/becomeliminal/teachable-go/observe"
)

// Teachability is a capability that can be added to any HookRegistrar.
// Turns are processed one at a time.
type Teachability struct {
	mu sync.Mutex

	cfg      Config
	store    memory.Store
	index    memory.Index
	embedder memory.Embedder
	analyzer memory.Analyzer
	recaller *memory.Recaller
	log      *bolt.Logger
	base     *bolt.Logger // untagged, for sub-components

	useIndex bool
	owned    []io.Closer
}

// Option configures a Teachability.
type Option func(*Teachability)

// WithEmbedder replaces the default lexical embedder.
func WithEmbedder(e memory.Embedder) Option {
	return func(t *Teachability) {
		t.embedder = e
	}
}

// WithAnalyzer replaces the default rule-based analyzer.
func WithAnalyzer(a memory.Analyzer) Option {
	return func(t *Teachability) {
		t.analyzer = a
	}
}

// WithLogger sets where diagnostics go. Verbosity decides what is written.
func WithLogger(l *bolt.Logger) Option {
	return func(t *Teachability) {
		t.base = l
		t.log = observe.Component(l, "teachability")
	}
}

// WithStore replaces the SQLite store. The caller keeps ownership.
func WithStore(s memory.Store) Option {
	return func(t *Teachability) {
		t.store = s
	}
}

// WithIndex keeps a chromem-go index under <dir>/index and recalls through it.
func WithIndex() Option {
	return func(t *Teachability) {
		t.useIndex = true
	}
}

// New validates cfg, opens (or resets) the memo directory and returns a ready
// capability. Every error is a *memory.ConfigurationError or a
// *memory.StorageError and is fatal.
func New(cfg Config, opts ...Option) (*Teachability, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxRecall == 0 {
		cfg.MaxRecall = memory.DefaultMaxRecall
	}

	t := &Teachability{cfg: cfg, log: observe.Discard(), base: observe.Discard()}
	for _, opt := range opts {
		opt(t)
	}

	if err := prepareDir(cfg.PathToDBDir, cfg.ResetDB); err != nil {
		return nil, err
	}

	ctx := context.Background()
	if t.store == nil {
		s, err := sqlite.Open(cfg.PathToDBDir)
		if err != nil {
			return nil, err
		}
		t.store = s
		t.owned = append(t.owned, s)
	} else if cfg.ResetDB {
		if err := t.store.Reset(ctx); err != nil {
			return nil, err
		}
	}

	if t.embedder == nil {
		t.embedder = lexical.New(0)
	}
	if t.analyzer == nil {
		t.analyzer = analyzer.NewRules()
	}

	recallOpts := []memory.RecallOption{memory.WithScale(cfg.Scale)}
	if t.useIndex {
		// Index diagnostics are per memo, so they belong to the listing level.
		idxLog := observe.Discard()
		if t.at(VerbosityListing) {
			idxLog = t.base
		}
		idx, err := chromem.Open(cfg.PathToDBDir, chromem.WithLogger(idxLog))
		if err != nil {
			t.Close()
			return nil, err
		}
		t.index = idx
		t.owned = append(t.owned, idx)
		if err := t.syncIndex(ctx); err != nil {
			t.Close()
			return nil, err
		}
		recallOpts = append(recallOpts, memory.WithIndex(idx))
	}
	t.recaller = memory.NewRecaller(t.store, t.embedder, recallOpts...)

	if t.at(VerbosityMemory) {
		t.log.Info().
			Str("dir", cfg.PathToDBDir).
			Str("scale", cfg.Scale.String()).
			Msg("teachability ready")
	}
	if t.at(VerbosityListing) {
		t.listMemos(ctx)
	}
	return t, nil
}

// syncIndex rebuilds the index from the store when their sizes disagree,
// e.g. after a write whose index update failed.
func (t *Teachability) syncIndex(ctx context.Context) error {
	memos, err := t.store.GetAll(ctx)
	if err != nil {
		return err
	}
	if t.index.Count() == len(memos) {
		return nil
	}

	if t.at(VerbosityMemory) {
		t.log.Info().
			Int("indexed", t.index.Count()).
			Int("stored", len(memos)).
			Msg("rebuilding memo index")
	}
	if err := t.index.Reset(ctx); err != nil {
		return err
	}
	for _, m := range memos {
		if err := t.index.Add(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// refreshIndex rebuilds the index when a shared store has memos the index
// has not seen. Stores that cannot count are assumed to have one writer.
func (t *Teachability) refreshIndex(ctx context.Context) {
	if t.index == nil {
		return
	}
	c, ok := t.store.(memory.Counter)
	if !ok {
		return
	}
	n, err := c.Count(ctx)
	if err == nil && n == t.index.Count() {
		return
	}
	if err == nil {
		err = t.syncIndex(ctx)
	}
	if err != nil && t.at(VerbosityMemory) {
		t.log.Warn().Err(err).Msg("cannot refresh memo index")
	}
}

// AddToAgent registers the recall and learning hooks with agent.
func (t *Teachability) AddToAgent(agent core.HookRegistrar) {
	agent.RegisterPreHook(t.PreProcess)
	agent.RegisterPostHook(t.PostProcess)
}

// PreProcess returns message with relevant memos prepended, or message
// unchanged when nothing is recalled or recall fails.
func (t *Teachability) PreProcess(ctx context.Context, message string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if strings.TrimSpace(message) == "" {
		return message
	}

	t.refreshIndex(ctx)
	results, err := t.recaller.Recall(ctx, message, t.cfg.RecallThreshold)
	if err != nil {
		if t.at(VerbosityMemory) {
			t.log.Warn().Err(err).Msg("recall failed, continuing without memos")
		}
		return message
	}

	if t.at(VerbosityMemory) {
		t.log.Info().Int("recalled", len(results)).Msg("memos recalled")
	}
	if t.at(VerbosityListing) {
		for _, r := range results {
			t.log.Info().
				Str("id", r.Memo.ID).
				Str("topic", r.Memo.Topic).
				Str("score", fmt.Sprintf("%.3f", r.Score)).
				Msg("recalled memo")
		}
	}

	prefix := memory.Format(results, t.cfg.MaxRecall)
	if prefix == "" {
		return message
	}
	return prefix + "\n" + message
}

// PostProcess analyzes a completed exchange and stores what it taught.
// Failures are logged and the candidate is dropped.
func (t *Teachability) PostProcess(ctx context.Context, ex core.Exchange) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ctx, span := observe.StartSpan(ctx, "teachability.analyze")
	defer span.End()

	candidate, ok := t.analyzer.Analyze(ctx, ex)
	if t.at(VerbosityAnalyzer) {
		if ok {
			t.log.Info().
				Str("exchange", ex.ID).
				Str("topic", candidate.Topic).
				Str("content", candidate.Content).
				Msg("analyzer found a memo")
		} else {
			t.log.Info().Str("exchange", ex.ID).Msg("analyzer found nothing to remember")
		}
	}
	if !ok {
		return
	}

	if _, err := t.learn(ctx, candidate); err != nil {
		span.RecordError(err)
		if t.at(VerbosityMemory) {
			t.log.Warn().Err(err).Str("topic", candidate.Topic).Msg("memo dropped")
		}
	}
}

// Teach stores a memo directly, bypassing the analyzer.
func (t *Teachability) Teach(ctx context.Context, c memory.Candidate) (string, error) {
	if !c.Valid() {
		return "", errors.New("memo needs a topic and content")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.learn(ctx, c)
}

// Recall returns the memos PreProcess would prepend for query.
func (t *Teachability) Recall(ctx context.Context, query string) ([]memory.Scored, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.refreshIndex(ctx)
	return t.recaller.Recall(ctx, query, t.cfg.RecallThreshold)
}

// ListMemos returns every stored memo in insertion order.
func (t *Teachability) ListMemos(ctx context.Context) ([]memory.Memo, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.store.GetAll(ctx)
}

// learn embeds and stores a candidate. Index failures are logged only; the
// index is rebuilt from the store on the next open.
func (t *Teachability) learn(ctx context.Context, c memory.Candidate) (string, error) {
	embedding, err := t.embedder.Embed(ctx, c.EmbeddingText())
	if err != nil {
		return "", memory.NewEmbeddingError(err)
	}

	m := memory.Memo{
		Topic:     strings.TrimSpace(c.Topic),
		Content:   strings.TrimSpace(c.Content),
		Embedding: embedding,
		CreatedAt: time.Now().UTC(),
	}
	id, err := t.store.Put(ctx, m)
	if err != nil {
		return "", err
	}
	m.ID = id

	if t.at(VerbosityMemory) {
		t.log.Info().Str("id", id).Str("topic", m.Topic).Msg("memo stored")
	}

	if t.index != nil {
		if err := t.index.Add(ctx, m); err != nil && t.at(VerbosityMemory) {
			t.log.Warn().Err(err).Str("id", id).Msg("memo not indexed")
		}
	}
	if t.at(VerbosityListing) {
		t.listMemos(ctx)
	}
	return id, nil
}

func (t *Teachability) listMemos(ctx context.Context) {
	memos, err := t.store.GetAll(ctx)
	if err != nil {
		t.log.Warn().Err(err).Msg("cannot list memos")
		return
	}
	t.log.Info().Int("count", len(memos)).Msg("memo listing")
	for _, m := range memos {
		t.log.Info().Str("id", m.ID).Str("topic", m.Topic).Str("content", m.Content).Msg("memo")
	}
}

func (t *Teachability) at(level int) bool {
	return t.cfg.Verbosity >= level
}

// Close releases the store and index opened by New.
func (t *Teachability) Close() error {
	var errs []error
	for i := len(t.owned) - 1; i >= 0; i-- {
		if err := t.owned[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	t.owned = nil
	return errors.Join(errs...)
}
