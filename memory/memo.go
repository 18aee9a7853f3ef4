package memory

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Memo is one learned fact. Memos are immutable once stored.
type Memo struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Candidate is what an Analyzer extracts from an exchange before it is
// embedded and stored.
type Candidate struct {
	Topic   string `json:"topic"`
	Content string `json:"content"`
}

// Valid reports whether the candidate can become a memo.
func (c Candidate) Valid() bool {
	return strings.TrimSpace(c.Topic) != "" && strings.TrimSpace(c.Content) != ""
}

// Scored pairs a memo with its similarity to a recall query.
type Scored struct {
	Memo  Memo    `json:"memo"`
	Score float64 `json:"score"`
}

// FormatContext controls how a memo is rendered for prompt injection.
type FormatContext struct {
	Query     string // Current query being answered
	MaxLength int    // Max characters for this memo's output, 0 = unlimited
}

// Format renders the memo as a single "topic: content" line.
func (m Memo) Format(ctx FormatContext) string {
	line := fmt.Sprintf("%s: %s", m.Topic, m.Content)
	if ctx.MaxLength > 0 {
		line = truncate(line, ctx.MaxLength)
	}
	return strings.ReplaceAll(line, "\n", " ")
}

// EmbeddingText returns the text whose embedding is stored with the memo.
func (c Candidate) EmbeddingText() string {
	return strings.TrimSpace(c.Content)
}

// truncate truncates a string to maxLen bytes, adding "..." if truncated.
// The cut never splits a UTF-8 sequence.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return "..."
	}
	n := maxLen - 3
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
