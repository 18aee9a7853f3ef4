package onnx

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Special token IDs shared by the BERT uncased vocabularies.
const (
	clsID = 101
	sepID = 102
	unkID = 100
)

// Tokenizer is a lowercase WordPiece tokenizer over a tokenizer.json vocabulary.
type Tokenizer struct {
	vocab map[string]int
}

// LoadTokenizer reads the "model.vocab" table of a HuggingFace tokenizer.json.
func LoadTokenizer(path string) (*Tokenizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tokenizer: %w", err)
	}

	var file struct {
		Model struct {
			Vocab map[string]int `json:"vocab"`
		} `json:"model"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse tokenizer: %w", err)
	}
	if len(file.Model.Vocab) == 0 {
		return nil, fmt.Errorf("tokenizer %s has no vocabulary", path)
	}
	return NewTokenizer(file.Model.Vocab), nil
}

// NewTokenizer builds a tokenizer from an in-memory vocabulary.
func NewTokenizer(vocab map[string]int) *Tokenizer {
	return &Tokenizer{vocab: vocab}
}

// Encode returns the token IDs for text framed by [CLS] and [SEP], at most
// maxLen of them.
func (t *Tokenizer) Encode(text string, maxLen int) []int64 {
	ids := []int64{clsID}
	for _, id := range t.Tokenize(text) {
		if len(ids) == maxLen-1 {
			break
		}
		ids = append(ids, id)
	}
	return append(ids, sepID)
}

// Tokenize converts text to WordPiece token IDs without special tokens.
func (t *Tokenizer) Tokenize(text string) []int64 {
	var tokens []int64
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:\"'()")
		if word == "" {
			continue
		}
		if id, ok := t.vocab[word]; ok {
			tokens = append(tokens, int64(id))
			continue
		}
		for _, piece := range t.pieces(word) {
			if id, ok := t.vocab[piece]; ok {
				tokens = append(tokens, int64(id))
			} else {
				tokens = append(tokens, unkID)
			}
		}
	}
	return tokens
}

// pieces splits word greedily into the longest known prefixes.
func (t *Tokenizer) pieces(word string) []string {
	var out []string
	for start := 0; start < len(word); {
		end := len(word)
		for ; end > start; end-- {
			sub := word[start:end]
			if start > 0 {
				sub = "##" + sub
			}
			if _, ok := t.vocab[sub]; ok {
				out = append(out, sub)
				break
			}
		}
		if end == start {
			out = append(out, "[UNK]")
			start++
			continue
		}
		start = end
	}
	return out
}
