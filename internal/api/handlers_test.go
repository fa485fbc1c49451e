package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"portfolio.dev/chat-assistant/internal/auth"
	"portfolio.dev/chat-assistant/internal/core"
	"portfolio.dev/chat-assistant/internal/observability"
	"portfolio.dev/chat-assistant/internal/profile"
	"portfolio.dev/chat-assistant/internal/store"
)

type fakeCompleter struct {
	reply string
	err   error
}

func (f fakeCompleter) Complete(context.Context, string, []core.Turn) (string, error) {
	return f.reply, f.err
}

type testServer struct {
	handler http.Handler
	tokens  *auth.ChatTokens
	metrics *observability.Metrics
}

func newTestServer(t *testing.T, c core.Completer, limiter *RateLimiter) *testServer {
	t.Helper()
	logger := zap.NewNop()
	p := profile.Default()
	metrics := observability.NewMetrics("portfolio_chat")
	responder := core.NewResponder(c, p, core.DefaultHistoryWindow, 0, logger, metrics)
	svc := core.NewChatService(store.NewMemoryStore(), responder, p, logger)
	tokens := auth.NewChatTokens("test-secret", time.Hour)

	h := NewAPIHandler(svc, tokens, logger)
	router := NewRouter(h, RouterOptions{
		AllowedOrigins: []string{"*"},
		RateLimiter:    limiter,
		Metrics:        metrics,
		Logger:         logger,
	})
	return &testServer{handler: router, tokens: tokens, metrics: metrics}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) createChat(t *testing.T) CreateChatResponse {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/chats", "", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp CreateChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp.Error.Code
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, fakeCompleter{}, nil)
	rec := s.do(t, http.MethodGet, "/api/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStaticEndpoints(t *testing.T) {
	s := newTestServer(t, fakeCompleter{}, nil)

	rec := s.do(t, http.MethodGet, "/api/profile", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Sathvik Modhi", decodeJSON(t, rec)["name"])

	rec = s.do(t, http.MethodGet, "/api/suggestions", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeJSON(t, rec)["suggestions"], len(profile.Default().Suggestions))

	rec = s.do(t, http.MethodGet, "/api/quick-actions", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeJSON(t, rec)["quick_actions"], len(core.QuickActions))
}

func TestCardEndpoint(t *testing.T) {
	s := newTestServer(t, fakeCompleter{}, nil)

	rec := s.do(t, http.MethodGet, "/api/cards/skills", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, "skills", body["kind"])
	assert.NotNil(t, body["skills"])

	rec = s.do(t, http.MethodGet, "/api/cards/text", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/cards/hobbies", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateChat(t *testing.T) {
	s := newTestServer(t, fakeCompleter{}, nil)
	resp := s.createChat(t)

	require.NotNil(t, resp.Chat)
	assert.NotEmpty(t, resp.Chat.ID)
	assert.Contains(t, resp.Greeting, "I'm Sathvik Modhi")
	assert.Nil(t, resp.Exchange)

	chatID, err := s.tokens.ValidateJWT(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.Chat.ID, chatID)
}

func TestCreateChatWithFirstMessage(t *testing.T) {
	s := newTestServer(t, fakeCompleter{reply: "Hello!"}, nil)
	rec := s.do(t, http.MethodPost, "/api/chats", "", `{"first_message":"hi"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp CreateChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Exchange)
	assert.Equal(t, "Hello!", resp.Exchange.Assistant.Content)
	require.NotNil(t, resp.Chat.Title)
	assert.Equal(t, "hi", *resp.Chat.Title)
}

func TestCreateChatRejectsMalformedBody(t *testing.T) {
	s := newTestServer(t, fakeCompleter{}, nil)
	rec := s.do(t, http.MethodPost, "/api/chats", "", `{"first_message":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConversationFlow(t *testing.T) {
	s := newTestServer(t, fakeCompleter{reply: "Hello"}, nil)
	chat := s.createChat(t)
	base := "/api/chats/" + chat.Chat.ID

	rec := s.do(t, http.MethodPost, base+"/messages", chat.Token, `{"content":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var ex ExchangeView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ex))
	assert.Equal(t, "hi", ex.User.Content)
	assert.Equal(t, "Hello", ex.Assistant.Content)
	assert.Equal(t, core.CategoryText, ex.Assistant.Type)
	assert.Nil(t, ex.Assistant.Card)

	rec = s.do(t, http.MethodPost, base+"/actions/projects", chat.Token, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ex))
	assert.Equal(t, core.CategoryProjects, ex.Assistant.Type)
	require.NotNil(t, ex.Assistant.Card)
	assert.Equal(t, core.CategoryProjects, ex.Assistant.Card.Kind)
	require.NotNil(t, ex.Assistant.Data)
	assert.Equal(t, "Sathvik Modhi", ex.Assistant.Data.Name)

	rec = s.do(t, http.MethodGet, base, chat.Token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var detail GetChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	require.Len(t, detail.Messages, 4)
	assert.False(t, detail.Loading)
	assert.Equal(t, "hi", *detail.Title)
	assert.NotNil(t, detail.Messages[3].Card)

	rec = s.do(t, http.MethodDelete, base, chat.Token, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, base, chat.Token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Empty(t, detail.Messages)
}

func TestProviderFailureIsAnApology(t *testing.T) {
	s := newTestServer(t, fakeCompleter{err: &core.ProviderError{Kind: core.ProviderInvalidKey}}, nil)
	chat := s.createChat(t)

	rec := s.do(t, http.MethodPost, "/api/chats/"+chat.Chat.ID+"/messages", chat.Token, `{"content":"hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var ex ExchangeView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ex))
	assert.Equal(t, core.ApologyMessage, ex.Assistant.Content)
	assert.NotContains(t, rec.Body.String(), "InvalidKey")
}

func TestPostMessageValidation(t *testing.T) {
	s := newTestServer(t, fakeCompleter{reply: "x"}, nil)
	chat := s.createChat(t)
	path := "/api/chats/" + chat.Chat.ID + "/messages"

	tests := []struct {
		name string
		body string
		code string
	}{
		{"missing content", `{}`, "invalid_request"},
		{"malformed json", `{"content":`, "invalid_request"},
		{"blank content", `{"content":"   "}`, "empty_message"},
		{"too long", `{"content":"` + strings.Repeat("a", 2001) + `"}`, "invalid_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, path, chat.Token, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}
}

func TestUnknownQuickAction(t *testing.T) {
	s := newTestServer(t, fakeCompleter{}, nil)
	chat := s.createChat(t)
	rec := s.do(t, http.MethodPost, "/api/chats/"+chat.Chat.ID+"/actions/dance", chat.Token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatAuth(t *testing.T) {
	s := newTestServer(t, fakeCompleter{}, nil)
	first := s.createChat(t)
	second := s.createChat(t)
	path := "/api/chats/" + first.Chat.ID

	rec := s.do(t, http.MethodGet, path, "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, path, "not-a-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	other := auth.NewChatTokens("other-secret", time.Hour)
	forged, err := other.GenerateJWT(first.Chat.ID)
	require.NoError(t, err)
	rec = s.do(t, http.MethodGet, path, forged, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, path, second.Token, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", errorCode(t, rec))

	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Basic "+first.Token)
	basic := httptest.NewRecorder()
	s.handler.ServeHTTP(basic, req)
	assert.Equal(t, http.StatusUnauthorized, basic.Code)
}

func TestUnknownChatWithValidToken(t *testing.T) {
	s := newTestServer(t, fakeCompleter{}, nil)
	token, err := s.tokens.GenerateJWT("ghost")
	require.NoError(t, err)

	rec := s.do(t, http.MethodGet, "/api/chats/ghost", token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/chats/ghost/messages", token, `{"content":"hi"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, fakeCompleter{reply: "ok"}, NewRateLimiter(0.01, 2))
	chat := s.createChat(t)
	path := "/api/chats/" + chat.Chat.ID + "/messages"

	rec := s.do(t, http.MethodPost, path, chat.Token, `{"content":"hi"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, path, chat.Token, `{"content":"hi again"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", errorCode(t, rec))
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// Reads are not limited.
	rec = s.do(t, http.MethodGet, "/api/chats/"+chat.Chat.ID, chat.Token, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, fakeCompleter{}, nil)
	s.do(t, http.MethodGet, "/api/health", "", "")

	rec := s.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `portfolio_chat_http_requests_total{method="GET",route="/api/health",status="200"} 1`)
}
