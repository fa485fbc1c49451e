package core

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type BreakerConfig struct {
	Name        string
	MaxFailures uint32
	Cooldown    time.Duration
}

// BreakerCompleter stops calling the provider after MaxFailures consecutive
// failures and fails fast until Cooldown has passed.
type BreakerCompleter struct {
	next   Completer
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

func NewBreakerCompleter(next Completer, cfg BreakerConfig, logger *zap.Logger) *BreakerCompleter {
	if cfg.Name == "" {
		cfg.Name = "gemini"
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		// A visitor leaving mid-request says nothing about provider health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return &BreakerCompleter{next: next, cb: cb, logger: logger}
}

func (b *BreakerCompleter) Complete(ctx context.Context, prompt string, history []Turn) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Complete(ctx, prompt, history)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", &ProviderError{Kind: ProviderUnknown, Err: err}
		}
		return "", err
	}
	return out.(string), nil
}

func (b *BreakerCompleter) State() gobreaker.State {
	return b.cb.State()
}
