package llm

import (
	"fmt"
	"strings"

	"github.com/ashureev/shopchat/internal/shared"
)

// New creates the client for cfg.Provider. A missing API key or an unknown
// provider is a configuration error.
func New(cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOpenAI:
		return NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.Timeout)
	case ProviderAnthropic:
		return NewAnthropicClient(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.Timeout)
	default:
		return nil, fmt.Errorf("%w: unknown LLM provider %q", shared.ErrConfiguration, cfg.Provider)
	}
}
