// Package lexical provides an offline embedder based on hashed bag-of-words
// features. It needs no model files or network and is deterministic, which
// makes it the default for local use. Similarity reflects shared vocabulary,
// not meaning.
package lexical

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/becomeliminal/teachable-go/memory"
)

// DefaultDimensions is the number of hash buckets.
const DefaultDimensions = 512

// Embedder hashes content words into a fixed number of buckets.
type Embedder struct {
	dims int
}

// New creates a lexical embedder with dims buckets (DefaultDimensions if
// dims <= 0).
func New(dims int) *Embedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &Embedder{dims: dims}
}

// Embed converts text into a unit-length bag-of-words vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &memory.EmbeddingError{Err: memory.ErrEmptyText}
	}

	words := Tokenize(text)
	if len(words) == 0 {
		return nil, &memory.EmbeddingError{Err: memory.ErrEmptyText}
	}

	content := words[:0:0]
	for _, w := range words {
		if !stopwords[w] {
			content = append(content, w)
		}
	}
	// A message made only of stop words still deserves a vector.
	if len(content) == 0 {
		content = words
	}

	vec := make([]float32, e.dims)
	for _, w := range content {
		h := fnv.New32a()
		h.Write([]byte(w))
		vec[h.Sum32()%uint32(e.dims)]++
	}
	return memory.Normalize(vec), nil
}

// Dimensions returns the embedding size.
func (e *Embedder) Dimensions() int {
	return e.dims
}

// Tokenize lowercases text, splits on anything that is not a letter or digit
// and strips possessive "'s".
func Tokenize(text string) []string {
	text = strings.ToLower(text)
	text = strings.NewReplacer("'s", "", "’s", "").Replace(text)
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"is": true, "are": true, "was": true, "were": true, "be": true, "been": true,
	"am": true, "do": true, "does": true, "did": true, "have": true, "has": true,
	"i": true, "me": true, "my": true, "mine": true, "you": true, "your": true,
	"we": true, "our": true, "it": true, "its": true, "this": true, "that": true,
	"what": true, "which": true, "who": true, "whom": true, "how": true,
	"of": true, "to": true, "in": true, "on": true, "at": true, "for": true,
	"with": true, "about": true, "as": true, "by": true, "from": true,
	"user": true, "can": true, "will": true, "would": true, "should": true,
	"please": true, "tell": true, "know": true, "s": true, "m": true,
}
