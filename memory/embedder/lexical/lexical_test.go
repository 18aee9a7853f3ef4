package lexical

import (
	"context"
	"errors"
	"testing"

	"github.com/becomeliminal/teachable-go/memory"
)

func TestEmbed_Deterministic(t *testing.T) {
	e := New(0)
	ctx := context.Background()

	a, err := e.Embed(ctx, "The user's dog's name is Rex.")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	b, _ := e.Embed(ctx, "The user's dog's name is Rex.")
	if len(a) != DefaultDimensions {
		t.Fatalf("expected %d dims, got %d", DefaultDimensions, len(a))
	}
	if memory.CosineSimilarity(a, b) < 0.9999 {
		t.Error("expected identical input to embed identically")
	}
}

func TestEmbed_SharedWordsAreSimilar(t *testing.T) {
	e := New(0)
	ctx := context.Background()

	memo, _ := e.Embed(ctx, "The user's dog's name is Rex.")
	related, _ := e.Embed(ctx, "What is my dog's name?")
	unrelated, _ := e.Embed(ctx, "Explain quantum tunnelling briefly")

	rel := memory.CosineSimilarity(memo, related)
	unrel := memory.CosineSimilarity(memo, unrelated)
	if rel < 0.5 {
		t.Errorf("expected related similarity >= 0.5, got %f", rel)
	}
	if unrel >= rel {
		t.Errorf("expected unrelated (%f) < related (%f)", unrel, rel)
	}
}

func TestEmbed_Empty(t *testing.T) {
	e := New(16)
	for _, text := range []string{"", "   ", "?!."} {
		_, err := e.Embed(context.Background(), text)
		var ee *memory.EmbeddingError
		if !errors.As(err, &ee) {
			t.Errorf("Embed(%q): expected *memory.EmbeddingError, got %v", text, err)
		}
	}
}

func TestEmbed_StopwordsOnly(t *testing.T) {
	e := New(16)
	vec, err := e.Embed(context.Background(), "what is it")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	var nonZero bool
	for _, v := range vec {
		if v != 0 {
			nonZero = true
		}
	}
	if !nonZero {
		t.Error("expected a non-zero vector for stop-word-only text")
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("My dog's name is Rex!")
	want := []string{"my", "dog", "name", "is", "rex"}
	if len(got) != len(want) {
		t.Fatalf("Tokenize = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, got[i], want[i])
		}
	}
}
