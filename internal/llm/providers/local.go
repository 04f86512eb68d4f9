// File path: internal/llm/providers/local.go
package providers

import (
	"context"
	"errors"
	"strings"
)

// DefaultMaxTokens caps a completion when the caller does not say otherwise.
const DefaultMaxTokens = 1000

var (
	// ErrUnavailable reports that the provider failed or is unreachable.
	ErrUnavailable = errors.New("generation unavailable")
	// ErrTimeout reports that the provider did not answer within the bound.
	ErrTimeout = errors.New("generation timed out")
)

// Provider produces a completion from a system prompt and a user prompt.
type Provider interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
	Name() string
}

// LocalProvider is a deterministic stand-in used when no API key is
// configured. It echoes the user prompt so development flows stay testable.
type LocalProvider struct{}

func NewLocalProvider() *LocalProvider {
	return &LocalProvider{}
}

func (l *LocalProvider) Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	trimmed := strings.TrimSpace(userPrompt)
	if trimmed == "" {
		return "", ErrUnavailable
	}
	return "[local-stub] " + trimmed, nil
}

func (l *LocalProvider) Name() string {
	return "local"
}
