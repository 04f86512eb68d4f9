// File path: internal/llm/llm.go
package llm

import (
	"os"
	"strings"

	"github.com/causewaylabs/causeway/internal/common"
	"github.com/causewaylabs/causeway/internal/llm/providers"
)

type Provider = providers.Provider

var (
	ErrUnavailable = providers.ErrUnavailable
	ErrTimeout     = providers.ErrTimeout
)

const DefaultMaxTokens = providers.DefaultMaxTokens

// NewProvider selects the generation backend from the environment: Groq when
// GROQ_API_KEY is set, otherwise the local echo stub.
func NewProvider() Provider {
	logger := common.Logger()
	apiKey := strings.TrimSpace(os.Getenv("GROQ_API_KEY"))
	if apiKey != "" {
		provider, err := providers.NewGroqProvider(apiKey)
		if err != nil {
			logger.Error("llm: groq configuration failed, falling back to local provider", "error", err)
			return providers.NewLocalProvider()
		}
		logger.Info("llm: groq provider selected")
		return provider
	}
	logger.Warn("llm: GROQ_API_KEY not set, falling back to local provider")
	return providers.NewLocalProvider()
}
