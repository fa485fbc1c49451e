package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"portfolio.dev/chat-assistant/internal/auth"
	"portfolio.dev/chat-assistant/internal/core"
	"portfolio.dev/chat-assistant/internal/store"
)

type APIHandler struct {
	chatService *core.ChatService
	tokens      *auth.ChatTokens
	validate    *validator.Validate
	logger      *zap.Logger
}

func NewAPIHandler(cs *core.ChatService, tokens *auth.ChatTokens, logger *zap.Logger) *APIHandler {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &APIHandler{chatService: cs, tokens: tokens, validate: v, logger: logger}
}

// MessageView is a message as the chat UI renders it: the text bubble plus
// the card laid out for its type, if any.
type MessageView struct {
	core.Message
	Card *core.Card `json:"card,omitempty"`
}

func newMessageView(m core.Message) MessageView {
	view := MessageView{Message: m}
	if m.Role == core.RoleAssistant && m.Data != nil {
		if card, ok := core.RenderCard(m.Type, m.Data); ok {
			view.Card = &card
		}
	}
	return view
}

func newMessageViews(msgs []core.Message) []MessageView {
	views := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, newMessageView(m))
	}
	return views
}

type ExchangeView struct {
	User      MessageView `json:"user"`
	Assistant MessageView `json:"assistant"`
}

func newExchangeView(ex *core.Exchange) ExchangeView {
	return ExchangeView{User: newMessageView(ex.User), Assistant: newMessageView(ex.Assistant)}
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *APIHandler) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.chatService.Profile())
}

func (h *APIHandler) CardHandler(w http.ResponseWriter, r *http.Request) {
	category, err := core.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		respondError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	card, ok := core.RenderCard(category, h.chatService.Profile())
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "No card for category "+string(category))
		return
	}
	respondJSON(w, http.StatusOK, card)
}

func (h *APIHandler) SuggestionsHandler(w http.ResponseWriter, r *http.Request) {
	suggestions := h.chatService.Profile().Suggestions
	if suggestions == nil {
		suggestions = []string{}
	}
	respondJSON(w, http.StatusOK, map[string][]string{"suggestions": suggestions})
}

func (h *APIHandler) QuickActionsHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string][]core.QuickAction{"quick_actions": core.QuickActions})
}

type CreateChatRequest struct {
	FirstMessage *string `json:"first_message,omitempty" validate:"omitempty,max=2000"`
}

type CreateChatResponse struct {
	Chat     *store.Chat   `json:"chat"`
	Token    string        `json:"token"`
	Greeting string        `json:"greeting"`
	Exchange *ExchangeView `json:"exchange,omitempty"`
}

func (h *APIHandler) CreateChatHandler(w http.ResponseWriter, r *http.Request) {
	// The body is optional.
	var req CreateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid request body: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", validationMessage(err))
		return
	}

	chat, err := h.chatService.CreateChat(r.Context())
	if err != nil {
		h.serviceError(w, err, "Failed to create chat")
		return
	}
	token, err := h.tokens.GenerateJWT(chat.ID)
	if err != nil {
		h.logger.Error("Error generating chat token", zap.String("chat_id", chat.ID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal", "Failed to generate token")
		return
	}

	resp := CreateChatResponse{Chat: chat, Token: token, Greeting: h.chatService.Greeting()}
	if req.FirstMessage != nil && strings.TrimSpace(*req.FirstMessage) != "" {
		ex, err := h.chatService.Send(r.Context(), chat.ID, *req.FirstMessage)
		if err != nil {
			h.logger.Warn("Failed to process first message", zap.String("chat_id", chat.ID), zap.Error(err))
		} else {
			view := newExchangeView(ex)
			resp.Exchange = &view
			if titled, _, err := h.chatService.GetChat(r.Context(), chat.ID); err == nil {
				resp.Chat = titled
			}
		}
	}
	respondJSON(w, http.StatusCreated, resp)
}

type GetChatResponse struct {
	*store.Chat
	Loading  bool          `json:"loading"`
	Messages []MessageView `json:"messages"`
}

func (h *APIHandler) GetChatHandler(w http.ResponseWriter, r *http.Request) {
	chatID := chatIDFromContext(r.Context())

	chat, messages, err := h.chatService.GetChat(r.Context(), chatID)
	if err != nil {
		h.serviceError(w, err, "Failed to get chat")
		return
	}
	respondJSON(w, http.StatusOK, GetChatResponse{
		Chat:     chat,
		Loading:  h.chatService.IsLoading(chatID),
		Messages: newMessageViews(messages),
	})
}

func (h *APIHandler) ResetChatHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.chatService.Reset(r.Context(), chatIDFromContext(r.Context())); err != nil {
		h.serviceError(w, err, "Failed to reset chat")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type PostMessageRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

func (h *APIHandler) PostMessageHandler(w http.ResponseWriter, r *http.Request) {
	var req PostMessageRequest
	if !h.decode(w, r, &req) {
		return
	}

	ex, err := h.chatService.Send(r.Context(), chatIDFromContext(r.Context()), req.Content)
	if err != nil {
		h.serviceError(w, err, "Failed to post message")
		return
	}
	respondJSON(w, http.StatusOK, newExchangeView(ex))
}

func (h *APIHandler) QuickActionHandler(w http.ResponseWriter, r *http.Request) {
	ex, err := h.chatService.QuickAction(r.Context(), chatIDFromContext(r.Context()), chi.URLParam(r, "actionID"))
	if err != nil {
		h.serviceError(w, err, "Failed to run quick action")
		return
	}
	respondJSON(w, http.StatusOK, newExchangeView(ex))
}

// decode reads and validates a JSON body, writing a 400 on failure.
func (h *APIHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid request body: "+err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "max":
			msgs = append(msgs, fe.Field()+" must be at most "+fe.Param()+" characters")
		default:
			msgs = append(msgs, fe.Field()+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}

func (h *APIHandler) serviceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, core.ErrEmptyMessage):
		respondError(w, http.StatusBadRequest, "empty_message", err.Error())
	case errors.Is(err, core.ErrChatNotFound):
		respondError(w, http.StatusNotFound, "not_found", "Chat not found")
	case errors.Is(err, core.ErrUnknownAction):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, core.ErrBusy):
		respondError(w, http.StatusConflict, "busy", err.Error())
	default:
		h.logger.Error(fallback, zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal", fallback)
	}
}
