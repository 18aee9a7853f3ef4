package core

import (
	"time"

	"github.com/google/uuid"
)

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Exchange is a completed conversational turn: what the user said and what
// the agent replied. Post-processing hooks receive one Exchange per turn.
type Exchange struct {
	ID          string    `json:"id"`
	UserMessage string    `json:"user_message"`
	Reply       string    `json:"reply"`
	At          time.Time `json:"at"`
}

// NewExchange creates an Exchange stamped with a fresh ID and the current time.
func NewExchange(userMessage, reply string) Exchange {
	return Exchange{
		ID:          uuid.New().String(),
		UserMessage: userMessage,
		Reply:       reply,
		At:          time.Now(),
	}
}
