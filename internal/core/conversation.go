package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"portfolio.dev/chat-assistant/internal/profile"
	"portfolio.dev/chat-assistant/internal/store"
)

// Conversation owns one chat's transcript and its loading flag. While loading
// is set no new message may be submitted.
type Conversation struct {
	chatID  string
	store   store.Store
	profile *profile.Profile

	mu      sync.Mutex
	loading bool
}

func newConversation(chatID string, s store.Store, p *profile.Profile) *Conversation {
	return &Conversation{chatID: chatID, store: s, profile: p}
}

func (c *Conversation) ChatID() string { return c.chatID }

// Append persists m at the end of the transcript and returns it as stored.
func (c *Conversation) Append(ctx context.Context, m Message) (Message, error) {
	rec := toRecord(c.chatID, m)
	if err := c.store.AppendMessage(ctx, &rec); err != nil {
		return Message{}, mapStoreError(fmt.Errorf("failed to append %s message: %w", m.Role, err))
	}
	return fromRecord(rec, c.profile), nil
}

func (c *Conversation) Messages(ctx context.Context) ([]Message, error) {
	recs, err := c.store.ListMessages(ctx, c.chatID)
	if err != nil {
		return nil, mapStoreError(fmt.Errorf("failed to list messages: %w", err))
	}
	msgs := make([]Message, 0, len(recs))
	for _, r := range recs {
		msgs = append(msgs, fromRecord(r, c.profile))
	}
	return msgs, nil
}

func (c *Conversation) Reset(ctx context.Context) error {
	if err := c.store.ResetChat(ctx, c.chatID); err != nil {
		return mapStoreError(fmt.Errorf("failed to reset chat: %w", err))
	}
	return nil
}

func (c *Conversation) SetLoading(loading bool) {
	c.mu.Lock()
	c.loading = loading
	c.mu.Unlock()
}

func (c *Conversation) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// tryStartLoading sets the loading flag and reports whether it was clear.
func (c *Conversation) tryStartLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading {
		return false
	}
	c.loading = true
	return true
}

func mapStoreError(err error) error {
	if errors.Is(err, store.ErrChatNotFound) {
		return fmt.Errorf("%w: %w", ErrChatNotFound, err)
	}
	return err
}
