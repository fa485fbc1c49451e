package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"

	"portfolio.dev/chat-assistant/internal/config"
	"portfolio.dev/chat-assistant/internal/profile"
)

const geminiModelRole = "model"

var (
	errMissingAPIKey   = errors.New("GEMINI_API_KEY is not configured")
	errEmptyCompletion = errors.New("provider returned no text")
)

// Completer is the external text-generation call. Implementations return a
// *ProviderError on failure and make exactly one attempt.
type Completer interface {
	Complete(ctx context.Context, prompt string, history []Turn) (string, error)
}

type LLMService struct {
	client          *genai.Client
	modelName       string
	maxOutputTokens int32
	temperature     float32
	systemPrompt    string
	logger          *zap.Logger
}

// NewLLMService creates the Gemini-backed completer. A missing API key is not
// an error here: the service is returned and every call fails with
// ProviderInvalidKey.
func NewLLMService(ctx context.Context, cfg config.GeminiConfig, p *profile.Profile, logger *zap.Logger) (*LLMService, error) {
	s := &LLMService{
		modelName:       cfg.Model,
		maxOutputTokens: cfg.MaxOutputTokens,
		temperature:     cfg.Temperature,
		systemPrompt:    BuildSystemPrompt(p),
		logger:          logger,
	}

	if cfg.APIKey == "" {
		logger.Error("GEMINI_API_KEY is not set; completion calls will fail")
		return s, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	s.client = client
	return s, nil
}

func (s *LLMService) Close() {
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			s.logger.Warn("Error closing GenAI client", zap.Error(err))
		} else {
			s.logger.Info("GenAI client closed")
		}
	}
}

func (s *LLMService) Complete(ctx context.Context, prompt string, history []Turn) (string, error) {
	if s.client == nil {
		return "", &ProviderError{Kind: ProviderInvalidKey, Err: errMissingAPIKey}
	}

	model := s.client.GenerativeModel(s.modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(s.systemPrompt)},
	}
	maxTokens := s.maxOutputTokens
	temp := s.temperature
	model.GenerationConfig = genai.GenerationConfig{
		MaxOutputTokens: &maxTokens,
		Temperature:     &temp,
	}

	chatSession := model.StartChat()
	chatSession.History = toGenaiHistory(history)

	resp, err := chatSession.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		return "", classifyProviderError(err)
	}

	text := responseText(resp)
	if text == "" {
		s.logger.Warn("Gemini response was empty or had no text parts", zap.String("model", s.modelName))
		return "", &ProviderError{Kind: ProviderUnknown, Err: errEmptyCompletion}
	}
	return text, nil
}

// toGenaiHistory maps turns to Gemini contents. Gemini rejects histories that
// open with a model turn, so leading assistant turns are dropped.
func toGenaiHistory(history []Turn) []*genai.Content {
	var contents []*genai.Content
	for _, turn := range history {
		if strings.TrimSpace(turn.Text) == "" {
			continue
		}
		role := RoleUser
		if turn.Role != RoleUser {
			role = geminiModelRole
		}
		if len(contents) == 0 && role != RoleUser {
			continue
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(turn.Text)},
		})
	}
	return contents
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(b.String())
}

// classifyProviderError maps a Gemini client error onto the ProviderError
// taxonomy. Typed status codes are preferred; message matching is the fallback
// for errors that arrive without one.
func classifyProviderError(err error) *ProviderError {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "api key not valid") || strings.Contains(msg, "api_key_invalid") {
		return &ProviderError{Kind: ProviderInvalidKey, Err: err}
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if kind, ok := kindFromHTTPStatus(gerr.Code); ok {
			return &ProviderError{Kind: kind, Err: err}
		}
	}

	var aerr *apierror.APIError
	if errors.As(err, &aerr) {
		if kind, ok := kindFromHTTPStatus(aerr.HTTPCode()); ok {
			return &ProviderError{Kind: kind, Err: err}
		}
		if st := aerr.GRPCStatus(); st != nil {
			if kind, ok := kindFromGRPCCode(st.Code()); ok {
				return &ProviderError{Kind: kind, Err: err}
			}
		}
	}

	switch {
	case strings.Contains(msg, "quota") || strings.Contains(msg, "resource has been exhausted"):
		return &ProviderError{Kind: ProviderQuotaExceeded, Err: err}
	case strings.Contains(msg, "404") || strings.Contains(msg, "not found"):
		return &ProviderError{Kind: ProviderModelNotFound, Err: err}
	case strings.Contains(msg, "403") || strings.Contains(msg, "permission denied"):
		return &ProviderError{Kind: ProviderAccessDenied, Err: err}
	}
	return &ProviderError{Kind: ProviderUnknown, Err: err}
}

func kindFromHTTPStatus(code int) (ProviderErrorKind, bool) {
	switch code {
	case http.StatusUnauthorized:
		return ProviderInvalidKey, true
	case http.StatusTooManyRequests:
		return ProviderQuotaExceeded, true
	case http.StatusNotFound:
		return ProviderModelNotFound, true
	case http.StatusForbidden:
		return ProviderAccessDenied, true
	}
	return ProviderUnknown, false
}

func kindFromGRPCCode(code codes.Code) (ProviderErrorKind, bool) {
	switch code {
	case codes.Unauthenticated:
		return ProviderInvalidKey, true
	case codes.ResourceExhausted:
		return ProviderQuotaExceeded, true
	case codes.NotFound:
		return ProviderModelNotFound, true
	case codes.PermissionDenied:
		return ProviderAccessDenied, true
	}
	return ProviderUnknown, false
}
