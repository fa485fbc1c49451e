package core

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"portfolio.dev/chat-assistant/internal/observability"
	"portfolio.dev/chat-assistant/internal/profile"
)

const (
	DefaultHistoryWindow = 5
	ApologyMessage       = "I apologize, but I encountered an error. Please try again."
)

// Responder turns one visitor message into one assistant message, either a
// profile card or a completion.
type Responder struct {
	completer     Completer
	profile       *profile.Profile
	historyWindow int
	cardDelay     time.Duration
	logger        *zap.Logger
	metrics       *observability.Metrics
	now           func() time.Time
}

func NewResponder(c Completer, p *profile.Profile, historyWindow int, cardDelay time.Duration, logger *zap.Logger, metrics *observability.Metrics) *Responder {
	if historyWindow < 0 {
		historyWindow = DefaultHistoryWindow
	}
	return &Responder{
		completer:     c,
		profile:       p,
		historyWindow: historyWindow,
		cardDelay:     cardDelay,
		logger:        logger,
		metrics:       metrics,
		now:           time.Now,
	}
}

// Resolve never fails. An empty forced category means "classify userText";
// history is the conversation before userText, oldest first.
func (r *Responder) Resolve(ctx context.Context, userText string, forced Category, history []Message) Message {
	category := forced
	if category == "" {
		category = Classify(userText)
	}
	r.metrics.CountReply(string(category), forced != "")

	if category.HasCard() {
		r.waitCardDelay(ctx)
		return r.newMessage(Acknowledgment(category), category, r.profile)
	}

	start := time.Now()
	content, err := r.completer.Complete(ctx, userText, trailingTurns(history, r.historyWindow))
	if err != nil {
		kind := providerErrorKind(err)
		r.metrics.ObserveCompletion(time.Since(start), kind.String())
		fields := []zap.Field{zap.String("kind", kind.String()), zap.Error(err)}
		var perr *ProviderError
		if errors.As(err, &perr) {
			fields = append(fields, zap.String("hint", perr.Hint()))
		}
		r.logger.Error("Completion failed, answering with apology", fields...)
		return r.newMessage(ApologyMessage, CategoryText, nil)
	}
	r.metrics.ObserveCompletion(time.Since(start), "")
	return r.newMessage(content, CategoryText, nil)
}

func (r *Responder) waitCardDelay(ctx context.Context) {
	if r.cardDelay <= 0 {
		return
	}
	timer := time.NewTimer(r.cardDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (r *Responder) newMessage(content string, category Category, data *profile.Profile) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Content:   content,
		Type:      category,
		Data:      data,
		Timestamp: r.now(),
	}
}

// trailingTurns keeps at most window of the most recent messages.
func trailingTurns(history []Message, window int) []Turn {
	if window == 0 || len(history) == 0 {
		return nil
	}
	if len(history) > window {
		history = history[len(history)-window:]
	}
	turns := make([]Turn, 0, len(history))
	for _, m := range history {
		turns = append(turns, Turn{Role: m.Role, Text: m.Content})
	}
	return turns
}
