// File path: internal/data/orchestrator/options.go
package orchestrator

import (
	"github.com/causewaylabs/causeway/internal/llm"
)

type Option func(*options)

type options struct {
	provider llm.Provider
}

// WithProvider injects a generation provider. Primarily used in tests to
// avoid reaching a live backend.
func WithProvider(provider llm.Provider) Option {
	return func(o *options) {
		o.provider = provider
	}
}
