package ollama

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/becomeliminal/teachable-go/memory"
)

func TestEmbedder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"embedding": [0.5, -0.25, 1]}`))
	}))
	defer server.Close()

	e, err := New(Config{BaseURL: server.URL, Model: "all-minilm"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if e.Dimensions() != 384 {
		t.Errorf("expected 384 dims for all-minilm, got %d", e.Dimensions())
	}

	vec, err := e.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(vec) != 3 || vec[0] != 0.5 || vec[1] != -0.25 {
		t.Errorf("unexpected vector %v", vec)
	}
}

func TestEmbedder_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "model not loaded"}`))
	}))
	defer server.Close()

	e, _ := New(Config{BaseURL: server.URL})
	_, err := e.Embed(context.Background(), "hello")
	var ee *memory.EmbeddingError
	if !errors.As(err, &ee) {
		t.Fatalf("expected EmbeddingError, got %v", err)
	}
}

func TestEmbedder_EmptyText(t *testing.T) {
	e, _ := New(Config{BaseURL: "http://127.0.0.1:1"})
	_, err := e.Embed(context.Background(), "")
	if !errors.Is(err, memory.ErrEmptyText) {
		t.Errorf("expected ErrEmptyText, got %v", err)
	}
}
