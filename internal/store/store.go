package store

import (
	"context"
	"errors"
)

var ErrChatNotFound = errors.New("chat not found")

// Store keeps chats and their append-only message lists. Messages are returned
// in insertion order.
type Store interface {
	CreateChat(ctx context.Context) (*Chat, error)
	// GetChat returns nil, nil when the chat does not exist.
	GetChat(ctx context.Context, chatID string) (*Chat, error)
	UpdateChatTitle(ctx context.Context, chatID, title string) error
	// AppendMessage assigns ID and Timestamp before storing msg.
	AppendMessage(ctx context.Context, msg *Message) error
	ListMessages(ctx context.Context, chatID string) ([]Message, error)
	// ResetChat deletes every message of the chat and clears its title.
	ResetChat(ctx context.Context, chatID string) error
	Close() error
}
