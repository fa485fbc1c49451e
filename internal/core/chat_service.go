package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"portfolio.dev/chat-assistant/internal/profile"
	"portfolio.dev/chat-assistant/internal/store"
)

const maxTitleRunes = 60

// Exchange is the pair of messages one submission adds to a chat.
type Exchange struct {
	User      Message `json:"user"`
	Assistant Message `json:"assistant"`
}

type ChatService struct {
	store     store.Store
	responder *Responder
	profile   *profile.Profile
	logger    *zap.Logger

	// conversations holds a controller only while its chat has a reply or
	// reset in flight.
	mu            sync.Mutex
	conversations map[string]*Conversation
}

func NewChatService(s store.Store, responder *Responder, p *profile.Profile, logger *zap.Logger) *ChatService {
	return &ChatService{
		store:         s,
		responder:     responder,
		profile:       p,
		logger:        logger,
		conversations: make(map[string]*Conversation),
	}
}

func (s *ChatService) Profile() *profile.Profile { return s.profile }

// Greeting is the assistant's opening line for a new chat. It is shown, not
// stored.
func (s *ChatService) Greeting() string {
	return fmt.Sprintf("Hi! I'm %s, %s at %s. Ask me about my projects, skills, or experience, or pick one of the quick actions below.",
		s.profile.Name, s.profile.Title, s.profile.Company)
}

func (s *ChatService) CreateChat(ctx context.Context) (*store.Chat, error) {
	chat, err := s.store.CreateChat(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat in store: %w", err)
	}
	s.logger.Info("Chat created", zap.String("chat_id", chat.ID))
	return chat, nil
}

func (s *ChatService) GetChat(ctx context.Context, chatID string) (*store.Chat, []Message, error) {
	chat, err := s.loadChat(ctx, chatID)
	if err != nil {
		return nil, nil, err
	}
	msgs, err := newConversation(chatID, s.store, s.profile).Messages(ctx)
	if err != nil {
		return nil, nil, err
	}
	return chat, msgs, nil
}

// Send submits free text from the visitor.
func (s *ChatService) Send(ctx context.Context, chatID, text string) (*Exchange, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	return s.submit(ctx, chatID, text, "")
}

// QuickAction submits the action's canonical query with its category forced.
func (s *ChatService) QuickAction(ctx context.Context, chatID, actionID string) (*Exchange, error) {
	action, ok := FindQuickAction(actionID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, actionID)
	}
	return s.submit(ctx, chatID, action.Query, action.Category)
}

// Reset clears the transcript. It is refused while a reply is pending so the
// pending reply cannot land in the emptied chat.
func (s *ChatService) Reset(ctx context.Context, chatID string) error {
	_, conv, err := s.acquire(ctx, chatID)
	if err != nil {
		return err
	}
	defer s.release(conv)

	if err := conv.Reset(ctx); err != nil {
		return err
	}
	s.logger.Info("Chat reset", zap.String("chat_id", chatID))
	return nil
}

// IsLoading reports whether a reply is pending for chatID.
func (s *ChatService) IsLoading(chatID string) bool {
	s.mu.Lock()
	conv, ok := s.conversations[chatID]
	s.mu.Unlock()
	return ok && conv.IsLoading()
}

func (s *ChatService) submit(ctx context.Context, chatID, text string, forced Category) (*Exchange, error) {
	chat, conv, err := s.acquire(ctx, chatID)
	if err != nil {
		return nil, err
	}
	defer s.release(conv)

	history, err := conv.Messages(ctx)
	if err != nil {
		return nil, err
	}

	userMsg, err := conv.Append(ctx, Message{Role: RoleUser, Content: text, Type: CategoryText})
	if err != nil {
		return nil, err
	}
	if chat.Title == nil {
		s.saveTitle(ctx, chatID, text)
	}

	reply := s.responder.Resolve(ctx, text, forced, history)

	// The user turn is already stored; its reply must be stored even if the
	// caller has gone away.
	assistantMsg, err := conv.Append(context.WithoutCancel(ctx), reply)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Exchange completed",
		zap.String("chat_id", chatID),
		zap.String("type", string(assistantMsg.Type)),
		zap.Bool("forced", forced != ""))
	return &Exchange{User: userMsg, Assistant: assistantMsg}, nil
}

func (s *ChatService) saveTitle(ctx context.Context, chatID, basis string) {
	title := chatTitle(basis)
	if err := s.store.UpdateChatTitle(ctx, chatID, title); err != nil {
		s.logger.Warn("Failed to save chat title", zap.String("chat_id", chatID), zap.Error(err))
	}
}

func (s *ChatService) loadChat(ctx context.Context, chatID string) (*store.Chat, error) {
	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}
	if chat == nil {
		return nil, ErrChatNotFound
	}
	return chat, nil
}

// acquire loads the chat and marks it loading. It fails with ErrBusy when the
// chat already has a controller in flight.
func (s *ChatService) acquire(ctx context.Context, chatID string) (*store.Chat, *Conversation, error) {
	chat, err := s.loadChat(ctx, chatID)
	if err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.conversations[chatID]; busy {
		return nil, nil, ErrBusy
	}
	conv := newConversation(chatID, s.store, s.profile)
	conv.tryStartLoading()
	s.conversations[chatID] = conv
	return chat, conv, nil
}

// release clears the loading flag and drops the controller.
func (s *ChatService) release(conv *Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv.SetLoading(false)
	if s.conversations[conv.chatID] == conv {
		delete(s.conversations, conv.chatID)
	}
}

func (s *ChatService) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conversations)
}

// chatTitle shortens the first visitor message into a chat title.
func chatTitle(basis string) string {
	title := strings.Join(strings.Fields(basis), " ")
	title = strings.Trim(title, "\"'.?! ")
	if utf8.RuneCountInString(title) <= maxTitleRunes {
		return title
	}
	runes := []rune(title)
	return strings.TrimSpace(string(runes[:maxTitleRunes])) + "..."
}
