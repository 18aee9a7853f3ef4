package openai

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
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"object": "list",
			"data": [{"object": "embedding", "index": 0, "embedding": [0.1, 0.2, 0.3]}],
			"model": "text-embedding-3-small",
			"usage": {"prompt_tokens": 2, "total_tokens": 2}
		}`))
	}))
	defer server.Close()

	e := New(Config{APIKey: "test-key", BaseURL: server.URL + "/v1"})
	vec, err := e.Embed(context.Background(), "favorite color")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(vec) != 3 {
		t.Fatalf("expected 3 values, got %v", vec)
	}
	if e.Dimensions() != 1536 {
		t.Errorf("expected default 1536 dims, got %d", e.Dimensions())
	}
}

func TestEmbedder_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "bad key", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	e := New(Config{APIKey: "bad", BaseURL: server.URL + "/v1"})
	_, err := e.Embed(context.Background(), "hello")
	var ee *memory.EmbeddingError
	if !errors.As(err, &ee) {
		t.Fatalf("expected EmbeddingError, got %v", err)
	}
}
