package core

import (
	"errors"
	"fmt"
)

var (
	ErrChatNotFound  = errors.New("chat not found")
	ErrBusy          = errors.New("a message is already being processed for this chat")
	ErrEmptyMessage  = errors.New("message content cannot be empty")
	ErrUnknownAction = errors.New("unknown quick action")
)

type ProviderErrorKind int

const (
	ProviderUnknown ProviderErrorKind = iota
	ProviderInvalidKey
	ProviderQuotaExceeded
	ProviderModelNotFound
	ProviderAccessDenied
)

func (k ProviderErrorKind) String() string {
	switch k {
	case ProviderInvalidKey:
		return "InvalidKey"
	case ProviderQuotaExceeded:
		return "QuotaExceeded"
	case ProviderModelNotFound:
		return "ModelNotFound"
	case ProviderAccessDenied:
		return "AccessDenied"
	default:
		return "Unknown"
	}
}

// ProviderError is the only error type the completion client returns. Kind is
// for diagnostics; visitors always see the same apology.
type ProviderError struct {
	Kind ProviderErrorKind
	Err  error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("completion provider error: %s", e.Kind)
	}
	return fmt.Sprintf("completion provider error: %s: %v", e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Hint is a developer-facing explanation of the failure, suitable for logs.
func (e *ProviderError) Hint() string {
	switch e.Kind {
	case ProviderInvalidKey:
		return "Invalid API key. Check GEMINI_API_KEY."
	case ProviderQuotaExceeded:
		return "API quota exceeded. Wait a moment and try again."
	case ProviderModelNotFound:
		return "Model not found. Check GEMINI_MODEL and that the key can use it."
	case ProviderAccessDenied:
		return "Access denied. Enable the Gemini API for this key in Google AI Studio."
	default:
		return "Failed to get a response from the provider."
	}
}

// providerErrorKind extracts the kind from err, or ProviderUnknown.
func providerErrorKind(err error) ProviderErrorKind {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return ProviderUnknown
}
