package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/becomeliminal/teachable-go/memory"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, dir
}

func memo(topic, content string, vec ...float32) memory.Memo {
	return memory.Memo{Topic: topic, Content: content, Embedding: vec}
}

func TestPutAndGetAll(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	id1, err := s.Put(ctx, memo("pet", "The user's dog is Rex.", 1, 0, 0))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	id2, err := s.Put(ctx, memo("color", "The user's favorite color is green.", 0, 1, 0))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if id1 == "" || id2 == "" || id1 == id2 {
		t.Fatalf("expected distinct non-empty IDs, got %q and %q", id1, id2)
	}
	if id1 >= id2 {
		t.Errorf("expected IDs to sort in insertion order: %q >= %q", id1, id2)
	}

	all, err := s.GetAll(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 memos, got %d", len(all))
	}
	if all[0].ID != id1 || all[1].ID != id2 {
		t.Errorf("expected insertion order [%s %s], got [%s %s]", id1, id2, all[0].ID, all[1].ID)
	}
	if all[0].CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be assigned")
	}
}

func TestRoundTripAfterReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	want := memory.Memo{
		Topic:     "favorite color",
		Content:   "The user's favorite color is green.",
		Embedding: []float32{0.25, -0.5, 0.125, 1e-7},
	}
	id, err := s.Put(ctx, want)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	all, err := reopened.GetAll(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 memo after reopen, got %d", len(all))
	}
	got := all[0]
	if got.ID != id || got.Topic != want.Topic || got.Content != want.Content {
		t.Errorf("memo changed across reopen: %+v", got)
	}
	if len(got.Embedding) != len(want.Embedding) {
		t.Fatalf("embedding length %d, want %d", len(got.Embedding), len(want.Embedding))
	}
	for i := range want.Embedding {
		if got.Embedding[i] != want.Embedding[i] {
			t.Errorf("embedding[%d] = %v, want %v", i, got.Embedding[i], want.Embedding[i])
		}
	}
}

func TestResetIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	for i := 0; i < 5; i++ {
		if _, err := s.Put(ctx, memo("t", fmt.Sprintf("fact %d", i), 1, float32(i))); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	for round := 1; round <= 2; round++ {
		if err := s.Reset(ctx); err != nil {
			t.Fatalf("reset #%d: %v", round, err)
		}
		all, err := s.GetAll(ctx)
		if err != nil {
			t.Fatalf("get all: %v", err)
		}
		if len(all) != 0 {
			t.Errorf("reset #%d: expected empty store, got %d memos", round, len(all))
		}
	}
}

func TestResetAllowsNewDimension(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	if _, err := s.Put(ctx, memo("t", "a", 1, 0)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := s.Put(ctx, memo("t", "b", 1, 0, 0)); err != nil {
		t.Errorf("expected new dimension to be accepted after reset: %v", err)
	}
}

func TestPutRejectsDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	if _, err := s.Put(ctx, memo("t", "a", 1, 0, 0)); err != nil {
		t.Fatalf("put: %v", err)
	}
	_, err := s.Put(ctx, memo("t", "b", 1, 0))
	if !errors.Is(err, memory.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
	var se *memory.StorageError
	if !errors.As(err, &se) {
		t.Errorf("expected *memory.StorageError, got %T", err)
	}
}

func TestPutNeverOverwrites(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	m := memo("t", "original", 1, 0)
	m.ID = "fixed-id"
	if _, err := s.Put(ctx, m); err != nil {
		t.Fatalf("put: %v", err)
	}

	m.Content = "replacement"
	if _, err := s.Put(ctx, m); err == nil {
		t.Fatal("expected duplicate ID to be rejected")
	}

	all, _ := s.GetAll(ctx)
	if len(all) != 1 || all[0].Content != "original" {
		t.Errorf("expected original memo to survive, got %+v", all)
	}
}

func TestPutRequiresEmbedding(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.Put(context.Background(), memo("t", "no vector")); err == nil {
		t.Fatal("expected error for memo without embedding")
	}
}

func TestGetByIDs(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := s.Put(ctx, memo("t", fmt.Sprintf("fact %d", i), 1, float32(i)))
		if err != nil {
			t.Fatalf("put: %v", err)
		}
		ids = append(ids, id)
	}

	got, err := s.Get(ctx, ids[2], "missing", ids[0])
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 memos, got %d", len(got))
	}
	if got[0].ID != ids[0] || got[1].ID != ids[2] {
		t.Errorf("expected insertion order, got %s, %s", got[0].ID, got[1].ID)
	}

	none, err := s.Get(ctx)
	if err != nil || none != nil {
		t.Errorf("expected nil for no ids, got %v, %v", none, err)
	}
}

func TestPreservesCreatedAt(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	at := time.Date(2024, 3, 1, 12, 0, 0, 123456789, time.UTC)
	m := memo("t", "dated", 1)
	m.CreatedAt = at
	if _, err := s.Put(ctx, m); err != nil {
		t.Fatalf("put: %v", err)
	}
	all, _ := s.GetAll(ctx)
	if !all[0].CreatedAt.Equal(at) {
		t.Errorf("CreatedAt = %v, want %v", all[0].CreatedAt, at)
	}
}

func TestCount(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	n, err := s.Count(ctx)
	if err != nil || n != 0 {
		t.Fatalf("expected 0, got %d (%v)", n, err)
	}
	s.Put(ctx, memo("t", "a", 1))
	s.Put(ctx, memo("t", "b", 1))
	if n, _ := s.Count(ctx); n != 2 {
		t.Errorf("expected 2, got %d", n)
	}
}
