package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ChatModel is a minimal abstraction for chat-based LLMs used by the domain.
// It intentionally hides concrete providers to preserve dependency direction.
type ChatModel interface {
	Ask(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Pinger checks that the provider accepts the configured key without
// spending completion tokens.
type Pinger interface {
	Ping(ctx context.Context) error
}

var (
	ErrNotConfigured = errors.New("llm api key is not configured")
	ErrQuotaExceeded = errors.New("llm quota exceeded")
	ErrUnauthorized  = errors.New("llm api key rejected")
	ErrEmptyAnswer   = errors.New("no choices returned by model")
)

// UpstreamError is a non-2xx answer from the provider.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s http %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s http %d: %s", e.Provider, e.StatusCode, e.Message)
}

// Unwrap lets callers match quota and key problems with errors.Is.
func (e *UpstreamError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusTooManyRequests:
		return ErrQuotaExceeded
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	default:
		return nil
	}
}
