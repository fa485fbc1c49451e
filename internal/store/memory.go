package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryChat struct {
	chat     Chat
	messages []Message
}

// MemoryStore keeps conversations for the lifetime of the process.
type MemoryStore struct {
	mu    sync.RWMutex
	chats map[string]*memoryChat
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{chats: make(map[string]*memoryChat)}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) CreateChat(ctx context.Context) (*Chat, error) {
	c := &memoryChat{chat: Chat{ID: uuid.NewString(), CreatedAt: time.Now()}}

	s.mu.Lock()
	s.chats[c.chat.ID] = c
	s.mu.Unlock()

	chat := c.chat
	return &chat, nil
}

func (s *MemoryStore) GetChat(ctx context.Context, chatID string) (*Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.chats[chatID]
	if !ok {
		return nil, nil
	}
	chat := c.chat
	if chat.Title != nil {
		title := *chat.Title
		chat.Title = &title
	}
	return &chat, nil
}

func (s *MemoryStore) UpdateChatTitle(ctx context.Context, chatID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.chats[chatID]
	if !ok {
		return ErrChatNotFound
	}
	c.chat.Title = &title
	return nil
}

func (s *MemoryStore) AppendMessage(ctx context.Context, msg *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.chats[msg.ChatID]
	if !ok {
		return ErrChatNotFound
	}
	msg.ID = uuid.NewString()
	msg.Timestamp = time.Now()
	c.messages = append(c.messages, *msg)
	return nil
}

func (s *MemoryStore) ListMessages(ctx context.Context, chatID string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.chats[chatID]
	if !ok {
		return nil, ErrChatNotFound
	}
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out, nil
}

func (s *MemoryStore) ResetChat(ctx context.Context, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.chats[chatID]
	if !ok {
		return ErrChatNotFound
	}
	c.messages = nil
	c.chat.Title = nil
	return nil
}
