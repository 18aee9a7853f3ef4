package analyzer

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/becomeliminal/teachable-go/core"
	"github.com/becomeliminal/teachable-go/memory"
	"github.com/becomeliminal/teachable-go/observe"
)

// Completer answers a single prompt. Implementations: AnthropicCompleter.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

const analysisSystem = "You are a helpful and thoughtful assistant. " +
	"Carefully analyze the TEXT you are given and follow the instructions exactly."

const (
	promptHasInfo = "Does the TEXT contain information that could be committed to memory? " +
		"Answer with just one word, yes or no."
	promptCopyInfo = "Copy the information from the TEXT that should be committed to memory. " +
		"Refer to the person who wrote the TEXT as \"the user\". Add no explanation."
	promptTopic = "Name the topic of this information in at most five words. " +
		"Include no other text in your response."
)

// maxTopicLen bounds model-produced topics.
const maxTopicLen = 80

// Model extracts memos by asking a language model about the user's message.
type Model struct {
	completer Completer
	log       *bolt.Logger
}

// ModelOption configures a Model analyzer.
type ModelOption func(*Model)

// WithLogger sets the logger for completer failures.
func WithLogger(l *bolt.Logger) ModelOption {
	return func(m *Model) {
		m.log = observe.Component(l, "analyzer")
	}
}

// NewModel creates a model-driven analyzer.
func NewModel(c Completer, opts ...ModelOption) *Model {
	m := &Model{completer: c, log: observe.Discard()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Analyze implements memory.Analyzer. Any completer failure yields no candidate.
func (m *Model) Analyze(ctx context.Context, ex core.Exchange) (memory.Candidate, bool) {
	text := strings.TrimSpace(ex.UserMessage)
	if text == "" {
		return memory.Candidate{}, false
	}

	answer, err := m.ask(ctx, text, promptHasInfo)
	if err != nil || !isYes(answer) {
		return memory.Candidate{}, false
	}

	content, err := m.ask(ctx, text, promptCopyInfo)
	if err != nil || strings.TrimSpace(content) == "" {
		return memory.Candidate{}, false
	}

	topic, err := m.ask(ctx, content, promptTopic)
	if err != nil {
		return memory.Candidate{}, false
	}
	topic = cleanTopic(topic)

	c := memory.Candidate{Topic: topic, Content: strings.TrimSpace(content)}
	return c, c.Valid()
}

func (m *Model) ask(ctx context.Context, text, instruction string) (string, error) {
	prompt := fmt.Sprintf("TEXT: %s\n\n%s", text, instruction)
	out, err := m.completer.Complete(ctx, analysisSystem, prompt)
	if err != nil {
		m.log.Warn().Err(err).Msg("analyzer completion failed")
		return "", err
	}
	return out, nil
}

func isYes(answer string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "yes")
}

func cleanTopic(t string) string {
	t = strings.TrimSpace(t)
	if i := strings.IndexByte(t, '\n'); i >= 0 {
		t = t[:i]
	}
	t = strings.Trim(t, " .\"'`*")
	if len(t) > maxTopicLen {
		n := maxTopicLen
		for n > 0 && !utf8.RuneStart(t[n]) {
			n--
		}
		t = t[:n]
	}
	return strings.ToLower(t)
}
