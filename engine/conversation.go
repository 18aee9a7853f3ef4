package engine

import (
	"context"

	"github.com/becomeliminal/teachable-go/core"
)

// Conversation keeps the history of one chat session across Run calls.
// Memos recalled by pre-hooks are not kept in the history; each turn recalls
// afresh.
type Conversation struct {
	engine       *Engine
	systemPrompt string
	model        string
	history      []core.Message
}

// NewConversation starts an empty conversation on e.
func NewConversation(e *Engine, systemPrompt, model string) *Conversation {
	return &Conversation{engine: e, systemPrompt: systemPrompt, model: model}
}

// Send runs one turn and records it on success.
func (c *Conversation) Send(ctx context.Context, message string) (*Output, error) {
	out, err := c.engine.Run(ctx, &Input{
		UserMessage:  message,
		History:      c.history,
		SystemPrompt: c.systemPrompt,
		Model:        c.model,
	})
	if err != nil {
		return out, err
	}
	c.history = append(c.history,
		core.Message{Role: core.RoleUser, Content: message},
		core.Message{Role: core.RoleAssistant, Content: out.Text},
	)
	return out, nil
}

// History returns the messages exchanged so far.
func (c *Conversation) History() []core.Message {
	return append([]core.Message(nil), c.history...)
}
