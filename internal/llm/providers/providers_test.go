// File path: internal/llm/providers/providers_test.go
package providers

import (
	"context"
	"errors"
	"testing"
)

func TestLocalProviderEchoesPrompt(t *testing.T) {
	provider := NewLocalProvider()
	out, err := provider.Generate(context.Background(), "system", "  What does the food bank do?  ", 100)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != "[local-stub] What does the food bank do?" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestLocalProviderEmptyPrompt(t *testing.T) {
	provider := NewLocalProvider()
	if _, err := provider.Generate(context.Background(), "system", "   ", 100); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestLocalProviderCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	provider := NewLocalProvider()
	if _, err := provider.Generate(ctx, "system", "question", 100); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

type fakeNetError struct{ timeout bool }

func (f fakeNetError) Error() string   { return "fake net error" }
func (f fakeNetError) Timeout() bool   { return f.timeout }
func (f fakeNetError) Temporary() bool { return false }

func TestClassifyDeadlineExceeded(t *testing.T) {
	if err := classify(context.DeadlineExceeded); !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestClassifyNetTimeout(t *testing.T) {
	if err := classify(fakeNetError{timeout: true}); !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestClassifyGenericFailure(t *testing.T) {
	if err := classify(errors.New("connection refused")); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
