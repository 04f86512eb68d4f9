// File path: internal/llm/providers/groq.go
package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"github.com/causewaylabs/causeway/internal/common"
)

const (
	defaultGroqBaseURL = "https://api.groq.com/openai/v1"
	defaultGroqModel   = "llama-3.3-70b-versatile"

	groqTemperature = 0.7
	groqTopP        = 0.9

	defaultRequestTimeout = 30 * time.Second
)

// GroqProvider calls Groq's OpenAI-compatible chat endpoint.
type GroqProvider struct {
	client  llms.Model
	model   string
	timeout time.Duration
}

func NewGroqProvider(apiKey string) (*GroqProvider, error) {
	logger := common.Logger()
	model := strings.TrimSpace(os.Getenv("GROQ_MODEL"))
	if model == "" {
		model = defaultGroqModel
	}
	baseURL := strings.TrimSpace(os.Getenv("GROQ_BASE_URL"))
	if baseURL == "" {
		baseURL = defaultGroqBaseURL
	}
	timeout := defaultRequestTimeout
	if timeoutStr := strings.TrimSpace(os.Getenv("GROQ_HTTP_TIMEOUT")); timeoutStr != "" {
		parsed, err := time.ParseDuration(timeoutStr)
		if err != nil {
			logger.Warn("llm: invalid GROQ_HTTP_TIMEOUT, using default", "value", timeoutStr, "error", err)
		} else {
			timeout = parsed
		}
	}
	client, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithToken(apiKey),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("configure groq client: %w", err)
	}
	logger.Info("llm: groq provider configured", "model", model, "timeout", timeout)
	return &GroqProvider{client: client, model: model, timeout: timeout}, nil
}

func (g *GroqProvider) Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	if g == nil || g.client == nil {
		return "", ErrUnavailable
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	logger := common.Logger()
	logger.Debug("llm: sending generation request", "model", g.model, "max_tokens", maxTokens)

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	content := []llms.MessageContent{
		{
			Role:  schema.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(systemPrompt)},
		},
		{
			Role:  schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(userPrompt)},
		},
	}
	resp, err := g.client.GenerateContent(ctx, content,
		llms.WithTemperature(groqTemperature),
		llms.WithTopP(groqTopP),
		llms.WithMaxTokens(maxTokens),
	)
	if err != nil {
		logger.Error("llm: generation failed", "error", err)
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrUnavailable)
	}
	logger.Debug("llm: generation succeeded")
	return resp.Choices[0].Content, nil
}

func (g *GroqProvider) Name() string {
	return "groq"
}

// classify folds provider failures into the two sentinel categories callers
// branch on.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
