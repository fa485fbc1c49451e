package core

import (
	"time"

	"portfolio.dev/chat-assistant/internal/profile"
	"portfolio.dev/chat-assistant/internal/store"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation turn as the rest of the service sees it. Data is
// the profile snapshot attached to card replies and is nil otherwise.
type Message struct {
	ID        string           `json:"id"`
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	Type      Category         `json:"type"`
	Data      *profile.Profile `json:"data,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Turn is the provider-facing view of a message: who spoke and what they said.
type Turn struct {
	Role string
	Text string
}

func toRecord(chatID string, m Message) store.Message {
	return store.Message{
		ChatID:  chatID,
		Role:    m.Role,
		Content: m.Content,
		Type:    string(m.Type),
	}
}

// fromRecord rebuilds a Message; card data is re-attached from the static
// profile because it is never persisted.
func fromRecord(r store.Message, p *profile.Profile) Message {
	m := Message{
		ID:        r.ID,
		Role:      r.Role,
		Content:   r.Content,
		Type:      Category(r.Type),
		Timestamp: r.Timestamp,
	}
	if m.Type == "" {
		m.Type = CategoryText
	}
	if m.Role == RoleAssistant && m.Type.HasCard() {
		m.Data = p
	}
	return m
}
