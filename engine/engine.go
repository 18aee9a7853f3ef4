// Package engine is a minimal agent pipeline around the Anthropic Messages
// API. Capabilities attach to it through pre- and post-processing hooks.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/felixgeelhaar/bolt/v3"

	"github.com/becomeliminal/teachable-go/core"
	"github.com/becomeliminal/teachable-go/observe"
)

// Defaults used when Input leaves them empty.
const (
	DefaultModel     = "claude-sonnet-4-20250514"
	DefaultMaxTokens = 1024
)

// Ensure Engine implements core.HookRegistrar
var _ core.HookRegistrar = (*Engine)(nil)

// Engine runs one reasoning step per call and invokes registered hooks
// around it.
type Engine struct {
	client *anthropic.Client
	log    *bolt.Logger

	mu   sync.RWMutex
	pre  []core.PreHook
	post []core.PostHook
}

// Option configures the engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(l *bolt.Logger) Option {
	return func(e *Engine) {
		e.log = observe.Component(l, "engine")
	}
}

// NewEngine creates a new engine with the given Anthropic client.
func NewEngine(client *anthropic.Client, opts ...Option) *Engine {
	e := &Engine{
		client: client,
		log:    observe.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RegisterPreHook implements core.HookRegistrar. Hooks run in registration order.
func (e *Engine) RegisterPreHook(h core.PreHook) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pre = append(e.pre, h)
}

// RegisterPostHook implements core.HookRegistrar. Hooks run in registration order.
func (e *Engine) RegisterPostHook(h core.PostHook) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.post = append(e.post, h)
}

// Input represents the input to an agent run.
type Input struct {
	// UserMessage is the user's message to process.
	UserMessage string

	// History contains previous messages in the conversation.
	History []core.Message

	// SystemPrompt is the system prompt to use.
	SystemPrompt string

	// Model is the Claude model to use.
	Model string

	// MaxTokens is the maximum response tokens.
	MaxTokens int64
}

// Output represents the output from an agent run.
type Output struct {
	// Type indicates the kind of output.
	Type OutputType

	// Text is the agent's text response.
	Text string

	// Prompt is the user message after pre-hooks, as sent to the model.
	Prompt string

	// TokensUsed tracks Claude API token consumption for this run.
	TokensUsed TokenUsage

	// Error is set when Type is OutputError.
	Error error
}

// TokenUsage counts tokens for one run.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
}

// OutputType indicates the kind of output from an agent run.
type OutputType int

const (
	// OutputComplete indicates the agent finished successfully.
	OutputComplete OutputType = iota

	// OutputError indicates an error occurred.
	OutputError
)

// Run applies pre-hooks to the user message, asks the model for a reply and
// hands the completed exchange to post-hooks. A failing hook is logged and
// skipped; it never costs the user their reply.
func (e *Engine) Run(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || strings.TrimSpace(input.UserMessage) == "" {
		return nil, errors.New("user message is required")
	}

	e.mu.RLock()
	pre := append([]core.PreHook(nil), e.pre...)
	post := append([]core.PostHook(nil), e.post...)
	e.mu.RUnlock()

	prompt := input.UserMessage
	for i, h := range pre {
		prompt = e.runPreHook(ctx, i, h, prompt)
	}

	model := input.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := input.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages:  buildMessages(input.History, prompt),
	}
	if input.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: input.SystemPrompt},
		}
	}

	resp, err := e.client.Messages.New(ctx, params)
	if err != nil {
		err = fmt.Errorf("claude API error: %w", err)
		return &Output{Type: OutputError, Prompt: prompt, Error: err}, err
	}

	text := responseText(resp)
	usage := TokenUsage{
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}
	e.log.Info().
		Int("input_tokens", usage.InputTokens).
		Int("output_tokens", usage.OutputTokens).
		Msg("reply received")

	// Post-hooks see what the user actually said, not the augmented prompt.
	exchange := core.NewExchange(input.UserMessage, text)
	for i, h := range post {
		e.runPostHook(ctx, i, h, exchange)
	}

	return &Output{
		Type:       OutputComplete,
		Text:       text,
		Prompt:     prompt,
		TokensUsed: usage,
	}, nil
}

func (e *Engine) runPreHook(ctx context.Context, i int, h core.PreHook, message string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Int("hook", i).Str("panic", fmt.Sprint(r)).Msg("pre-hook failed")
			out = message
		}
	}()
	return h(ctx, message)
}

func (e *Engine) runPostHook(ctx context.Context, i int, h core.PostHook, ex core.Exchange) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Int("hook", i).Str("panic", fmt.Sprint(r)).Msg("post-hook failed")
		}
	}()
	h(ctx, ex)
}

// buildMessages converts history plus the new user message to API params.
func buildMessages(history []core.Message, message string) []anthropic.MessageParam {
	msgs := make([]anthropic.MessageParam, 0, len(history)+1)
	for _, m := range history {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == core.RoleAssistant {
			msgs = append(msgs, anthropic.NewAssistantMessage(block))
		} else {
			msgs = append(msgs, anthropic.NewUserMessage(block))
		}
	}
	return append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(message)))
}

// responseText joins the text blocks of a Claude response.
func responseText(resp *anthropic.Message) string {
	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}
