package perception

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"genesys/internal/logging"
	"genesys/internal/usage"
)

// OpenAIClient implements LLMClient for OpenAI and any OpenAI-compatible
// chat-completions endpoint.
type OpenAIClient struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float32
	timeout     time.Duration
	httpClient  *http.Client
}

// DefaultOpenAIConfig returns sensible defaults.
func DefaultOpenAIConfig(apiKey string) OpenAIConfig {
	return OpenAIConfig{
		APIKey:      apiKey,
		BaseURL:     "https://api.openai.com/v1",
		Model:       "gpt-4o",
		Timeout:     60 * time.Second,
		Temperature: 0.3,
	}
}

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(apiKey string) *OpenAIClient {
	return NewOpenAIClientWithConfig(DefaultOpenAIConfig(apiKey))
}

// NewOpenAIClientWithConfig creates a new OpenAI client with custom config.
func NewOpenAIClientWithConfig(config OpenAIConfig) *OpenAIClient {
	defaults := DefaultOpenAIConfig(config.APIKey)
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	if config.Model == "" {
		config.Model = defaults.Model
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	return &OpenAIClient{
		apiKey:      config.APIKey,
		baseURL:     config.BaseURL,
		model:       config.Model,
		temperature: config.Temperature,
		timeout:     config.Timeout,
		httpClient:  &http.Client{},
	}
}

// GetModel returns the model name.
func (c *OpenAIClient) GetModel() string {
	return c.model
}

// Provider returns ProviderOpenAI.
func (c *OpenAIClient) Provider() Provider {
	return ProviderOpenAI
}

// withTimeout applies the configured timeout when ctx has no deadline.
func (c *OpenAIClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// CompleteWithSystem sends a prompt with a system message.
func (c *OpenAIClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if c.apiKey == "" {
		logging.PerceptionError("[OpenAI] CompleteWithSystem: API key not configured")
		return "", fmt.Errorf("%w: API key not configured", ErrModelUnavailable)
	}

	startTime := time.Now()
	logging.PerceptionDebug("[OpenAI] CompleteWithSystem: model=%s system_len=%d user_len=%d", c.model, len(systemPrompt), len(userPrompt))

	messages := []OpenAIMessage{{Role: "user", Content: userPrompt}}
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append([]OpenAIMessage{{Role: "system", Content: systemPrompt}}, messages...)
	}

	resp, err := ExecuteOpenAIRequest(ctx, c.httpClient, c.baseURL, c.apiKey, OpenAIRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
	})
	if err != nil {
		logging.PerceptionError("[OpenAI] CompleteWithSystem: %v (after %v)", err, time.Since(startTime))
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no completion returned", ErrModelUnavailable)
	}

	trackUsage(ctx, c.model, ProviderOpenAI, resp.Usage.PromptTokens, resp.Usage.CompletionTokens, "completion")

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	logging.PerceptionDebug("[OpenAI] CompleteWithSystem: completed in %v response_len=%d", time.Since(startTime), len(text))
	return text, nil
}

// CompleteWithTools sends a conversation with tool definitions. The model
// decides whether to call a tool (tool_choice "auto").
func (c *OpenAIClient) CompleteWithTools(ctx context.Context, systemPrompt string, messages []Message, tools []ToolDefinition) (*LLMToolResponse, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if c.apiKey == "" {
		logging.PerceptionError("[OpenAI] CompleteWithTools: API key not configured")
		return nil, fmt.Errorf("%w: API key not configured", ErrModelUnavailable)
	}

	startTime := time.Now()
	logging.PerceptionDebug("[OpenAI] CompleteWithTools: model=%s messages=%d tools=%d", c.model, len(messages), len(tools))

	openAIMessages, err := mapMessagesToOpenAI(systemPrompt, messages)
	if err != nil {
		return nil, err
	}

	reqBody := OpenAIRequest{
		Model:       c.model,
		Messages:    openAIMessages,
		Temperature: c.temperature,
	}
	if len(tools) > 0 {
		reqBody.Tools = MapToolDefinitionsToOpenAI(tools)
		reqBody.ToolChoice = "auto"
	}

	resp, err := ExecuteOpenAIRequest(ctx, c.httpClient, c.baseURL, c.apiKey, reqBody)
	if err != nil {
		logging.PerceptionError("[OpenAI] CompleteWithTools: %v (after %v)", err, time.Since(startTime))
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no completion returned", ErrModelUnavailable)
	}

	choice := resp.Choices[0]
	calls, err := MapOpenAIToolCallsToInternal(choice.Message.ToolCalls)
	if err != nil {
		return nil, err
	}

	stopReason := choice.FinishReason
	if stopReason == "tool_calls" {
		stopReason = "tool_use"
	}

	result := &LLMToolResponse{
		Text:       strings.TrimSpace(choice.Message.Content),
		ToolCalls:  calls,
		StopReason: stopReason,
		Usage: UsageMetadata{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
	}
	trackUsage(ctx, c.model, ProviderOpenAI, result.Usage.InputTokens, result.Usage.OutputTokens, "tool_call")
	logging.PerceptionDebug("[OpenAI] CompleteWithTools: completed in %v tool_calls=%d stop=%s", time.Since(startTime), len(calls), stopReason)
	return result, nil
}

// trackUsage records token counts with the tracker carried by ctx, if any.
func trackUsage(ctx context.Context, model string, provider Provider, input, output int, operation string) {
	if tracker := usage.FromContext(ctx); tracker != nil {
		tracker.Track(ctx, model, string(provider), input, output, operation)
	}
}
