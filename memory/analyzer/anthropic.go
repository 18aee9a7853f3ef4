package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// DefaultModel is used when NewAnthropicCompleter is given no model.
const DefaultModel = "claude-3-5-haiku-latest"

// AnthropicCompleter answers prompts with the Anthropic Messages API.
type AnthropicCompleter struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicCompleter creates a Completer backed by client.
func NewAnthropicCompleter(client *anthropic.Client, model string) *AnthropicCompleter {
	if model == "" {
		model = DefaultModel
	}
	return &AnthropicCompleter{client: client, model: model, maxTokens: 512}
}

// Complete implements Completer.
func (c *AnthropicCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude API error: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}
