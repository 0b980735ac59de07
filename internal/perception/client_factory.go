package perception

import (
	"context"
	"fmt"
	"time"

	"genesys/internal/config"
)

// NewClient builds the client for the configured provider. It returns an
// error wrapping ErrModelUnavailable when no API key is configured; callers
// treat that as "no model" and keep the deterministic paths.
func NewClient(ctx context.Context, cfg config.LLMConfig, timeout time.Duration) (LLMClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: no API key configured for provider %s", ErrModelUnavailable, cfg.Provider)
	}

	switch Provider(cfg.Provider) {
	case ProviderGemini:
		return NewGeminiClientWithConfig(ctx, GeminiConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.ResolvedModel(),
			Timeout:     timeout,
			Temperature: cfg.Temperature,
		})
	case ProviderOpenAI, "":
		return NewOpenAIClientWithConfig(OpenAIConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.ResolvedModel(),
			Timeout:     timeout,
			Temperature: cfg.Temperature,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}
