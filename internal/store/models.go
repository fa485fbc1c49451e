package store

import "time"

type Chat struct {
	ID        string    `json:"id"` // UUID
	Title     *string   `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is the persisted form of a conversation turn. Type holds the
// category tag; structured card data is not stored because it is always
// derived from the static profile.
type Message struct {
	ID        string    `json:"id"` // UUID
	ChatID    string    `json:"chat_id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}
