package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/becomeliminal/teachable-go/memory"
)

// newTestStore connects to $TEACHABLE_POSTGRES_DSN, skipping when unset.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEACHABLE_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEACHABLE_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	table := fmt.Sprintf("memos_test_%d", time.Now().UnixNano())
	s, err := Open(ctx, Config{DSN: dsn, Table: table})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		s.Drop(ctx)
		s.Close()
	})
	return s
}

func TestOpen_Validation(t *testing.T) {
	ctx := context.Background()
	var ce *memory.ConfigurationError

	if _, err := Open(ctx, Config{}); !errors.As(err, &ce) {
		t.Errorf("expected ConfigurationError for empty DSN, got %v", err)
	}
	if _, err := Open(ctx, Config{DSN: "postgres://localhost/x", Table: "memos; DROP TABLE users"}); !errors.As(err, &ce) {
		t.Errorf("expected ConfigurationError for bad table name, got %v", err)
	}
}

func TestPutGetReset(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id1, err := s.Put(ctx, memory.Memo{Topic: "pet", Content: "The user's dog is Rex.", Embedding: []float32{1, 0}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	id2, err := s.Put(ctx, memory.Memo{Topic: "color", Content: "Green.", Embedding: []float32{0, 1}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	all, err := s.GetAll(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(all) != 2 || all[0].ID != id1 || all[1].ID != id2 {
		t.Fatalf("expected insertion order, got %+v", all)
	}
	if all[0].Embedding[0] != 1 {
		t.Errorf("embedding not round-tripped: %v", all[0].Embedding)
	}

	got, err := s.Get(ctx, id2, "missing")
	if err != nil || len(got) != 1 || got[0].ID != id2 {
		t.Errorf("get: %+v, %v", got, err)
	}

	_, err = s.Put(ctx, memory.Memo{Topic: "t", Content: "c", Embedding: []float32{1, 0, 0}})
	if !errors.Is(err, memory.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := s.Reset(ctx); err != nil {
			t.Fatalf("reset: %v", err)
		}
		if all, _ := s.GetAll(ctx); len(all) != 0 {
			t.Errorf("expected empty store after reset, got %d", len(all))
		}
	}
}
