package config

// LLMConfig configures the language model used for function dispatch.
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // openai, gemini
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"` // empty = provider default; any OpenAI-compatible endpoint for openai
	Timeout     string  `yaml:"timeout"`
	Temperature float32 `yaml:"temperature"`
}

// DefaultModelFor returns the default model name for a provider.
func DefaultModelFor(provider string) string {
	switch provider {
	case "gemini":
		return "gemini-2.5-flash"
	default:
		return "gpt-4o"
	}
}

// ResolvedModel returns the configured model, falling back to the provider default.
func (c LLMConfig) ResolvedModel() string {
	if c.Model != "" {
		return c.Model
	}
	return DefaultModelFor(c.Provider)
}
