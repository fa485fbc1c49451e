package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubCompleter returns reply/err and records every call it receives.
type stubCompleter struct {
	mu      sync.Mutex
	reply   string
	err     error
	calls   int
	prompts []string
	history [][]Turn
}

func (s *stubCompleter) Complete(_ context.Context, prompt string, history []Turn) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.prompts = append(s.prompts, prompt)
	s.history = append(s.history, history)
	return s.reply, s.err
}

func (s *stubCompleter) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	stub := &stubCompleter{err: &ProviderError{Kind: ProviderQuotaExceeded, Err: errors.New("429")}}
	b := NewBreakerCompleter(stub, BreakerConfig{MaxFailures: 2, Cooldown: time.Minute}, zap.NewNop())

	for i := 0; i < 2; i++ {
		_, err := b.Complete(context.Background(), "hi", nil)
		assert.Equal(t, ProviderQuotaExceeded, providerErrorKind(err))
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Complete(context.Background(), "hi", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, ProviderUnknown, providerErrorKind(err))
	assert.Equal(t, 2, stub.callCount())
}

func TestBreakerPassesThroughSuccess(t *testing.T) {
	stub := &stubCompleter{reply: "Hello!"}
	b := NewBreakerCompleter(stub, BreakerConfig{MaxFailures: 1, Cooldown: time.Minute}, zap.NewNop())

	out, err := b.Complete(context.Background(), "hi", []Turn{{Role: RoleUser, Text: "earlier"}})
	require.NoError(t, err)
	assert.Equal(t, "Hello!", out)
	assert.Equal(t, gobreaker.StateClosed, b.State())
	assert.Equal(t, []Turn{{Role: RoleUser, Text: "earlier"}}, stub.history[0])
}

func TestBreakerIgnoresCancellation(t *testing.T) {
	stub := &stubCompleter{err: context.Canceled}
	b := NewBreakerCompleter(stub, BreakerConfig{MaxFailures: 1, Cooldown: time.Minute}, zap.NewNop())

	for i := 0; i < 3; i++ {
		_, err := b.Complete(context.Background(), "hi", nil)
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
	assert.Equal(t, 3, stub.callCount())
}
