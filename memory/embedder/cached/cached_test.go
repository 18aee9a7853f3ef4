package cached

import (
	"context"
	"errors"
	"testing"

	"github.com/becomeliminal/teachable-go/memory"
	"github.com/becomeliminal/teachable-go/memory/embedder/mock"
)

func TestEmbedder_CachesVectors(t *testing.T) {
	ctx := context.Background()
	inner := mock.NewWithDimensions(4)
	e, err := New(inner, Config{MaxEntries: 100})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer e.Close()

	first, err := e.Embed(ctx, "favorite color")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	e.Wait()

	second, err := e.Embed(ctx, "favorite color")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if inner.Calls() != 1 {
		t.Errorf("expected 1 inner call, got %d", inner.Calls())
	}
	if memory.CosineSimilarity(first, second) < 0.9999 {
		t.Error("expected cached vector to equal the original")
	}
	if e.Dimensions() != 4 {
		t.Errorf("expected 4 dims, got %d", e.Dimensions())
	}
}

func TestEmbedder_DoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	inner := mock.NewWithDimensions(4)
	e, err := New(inner, Config{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer e.Close()

	for i := 0; i < 2; i++ {
		_, err := e.Embed(ctx, "")
		var ee *memory.EmbeddingError
		if !errors.As(err, &ee) {
			t.Fatalf("expected EmbeddingError, got %v", err)
		}
		e.Wait()
	}
	if inner.Calls() != 2 {
		t.Errorf("expected errors to reach the inner embedder each time, got %d calls", inner.Calls())
	}
}
