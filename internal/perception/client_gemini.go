package perception

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"genesys/internal/logging"
)

// GeminiClient implements LLMClient for the Google Gemini API.
type GeminiClient struct {
	client      *genai.Client
	model       string
	temperature float32
	timeout     time.Duration
}

// DefaultGeminiConfig returns sensible defaults.
func DefaultGeminiConfig(apiKey string) GeminiConfig {
	return GeminiConfig{
		APIKey:      apiKey,
		Model:       "gemini-2.5-flash",
		Timeout:     60 * time.Second,
		Temperature: 0.3,
	}
}

// NewGeminiClientWithConfig creates a Gemini client. BaseURL overrides the
// API endpoint (used by tests and proxies).
func NewGeminiClientWithConfig(ctx context.Context, config GeminiConfig) (*GeminiClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: Gemini API key not configured", ErrModelUnavailable)
	}
	defaults := DefaultGeminiConfig(config.APIKey)
	if config.Model == "" {
		config.Model = defaults.Model
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}

	cc := &genai.ClientConfig{
		APIKey:     config.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{},
	}
	if config.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client:      client,
		model:       config.Model,
		temperature: config.Temperature,
		timeout:     config.Timeout,
	}, nil
}

// GetModel returns the model name.
func (c *GeminiClient) GetModel() string {
	return c.model
}

// Provider returns ProviderGemini.
func (c *GeminiClient) Provider() Provider {
	return ProviderGemini
}

func (c *GeminiClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *GeminiClient) generateConfig(systemPrompt string) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.temperature),
	}
	if strings.TrimSpace(systemPrompt) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}
	return cfg
}

// CompleteWithSystem sends a prompt with a system instruction.
func (c *GeminiClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	startTime := time.Now()
	logging.PerceptionDebug("[Gemini] CompleteWithSystem: model=%s system_len=%d user_len=%d", c.model, len(systemPrompt), len(userPrompt))

	contents := []*genai.Content{genai.NewContentFromText(userPrompt, genai.RoleUser)}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, c.generateConfig(systemPrompt))
	if err != nil {
		logging.PerceptionError("[Gemini] CompleteWithSystem: %v (after %v)", err, time.Since(startTime))
		return "", wrapGeminiError(err)
	}

	in, out := geminiUsage(resp)
	trackUsage(ctx, c.model, ProviderGemini, in, out, "completion")

	text := strings.TrimSpace(resp.Text())
	logging.PerceptionDebug("[Gemini] CompleteWithSystem: completed in %v response_len=%d", time.Since(startTime), len(text))
	return text, nil
}

// CompleteWithTools sends a conversation with function declarations.
func (c *GeminiClient) CompleteWithTools(ctx context.Context, systemPrompt string, messages []Message, tools []ToolDefinition) (*LLMToolResponse, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	startTime := time.Now()
	logging.PerceptionDebug("[Gemini] CompleteWithTools: model=%s messages=%d tools=%d", c.model, len(messages), len(tools))

	cfg := c.generateConfig(systemPrompt)
	if len(tools) > 0 {
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: MapToolDefinitionsToGemini(tools)}}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, mapMessagesToGemini(messages), cfg)
	if err != nil {
		logging.PerceptionError("[Gemini] CompleteWithTools: %v (after %v)", err, time.Since(startTime))
		return nil, wrapGeminiError(err)
	}

	var calls []ToolCall
	for i, fc := range resp.FunctionCalls() {
		id := fc.ID
		if id == "" {
			id = fmt.Sprintf("call_%d", i)
		}
		args := fc.Args
		if args == nil {
			args = map[string]any{}
		}
		calls = append(calls, ToolCall{ID: id, Name: fc.Name, Input: args})
	}

	stopReason := "end_turn"
	if len(calls) > 0 {
		stopReason = "tool_use"
	}

	in, out := geminiUsage(resp)
	result := &LLMToolResponse{
		ToolCalls:  calls,
		StopReason: stopReason,
		Usage: UsageMetadata{
			InputTokens:  in,
			OutputTokens: out,
			TotalTokens:  in + out,
		},
	}
	if len(calls) == 0 {
		result.Text = strings.TrimSpace(resp.Text())
	}
	trackUsage(ctx, c.model, ProviderGemini, in, out, "tool_call")
	logging.PerceptionDebug("[Gemini] CompleteWithTools: completed in %v tool_calls=%d", time.Since(startTime), len(calls))
	return result, nil
}

// MapToolDefinitionsToGemini converts generic tool definitions to function declarations.
func MapToolDefinitionsToGemini(tools []ToolDefinition) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, len(tools))
	for i, t := range tools {
		decls[i] = &genai.FunctionDeclaration{
			Name:                 t.Name,
			Description:          t.Description,
			ParametersJsonSchema: t.InputSchema,
		}
	}
	return decls
}

// mapMessagesToGemini renders a conversation as Gemini contents. Tool turns
// become function-response parts on the user side.
func mapMessagesToGemini(messages []Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleAssistant:
			var parts []*genai.Part
			if m.Content != "" {
				parts = append(parts, genai.NewPartFromText(m.Content))
			}
			for _, tc := range m.ToolCalls {
				parts = append(parts, genai.NewPartFromFunctionCall(tc.Name, tc.Input))
			}
			contents = append(contents, genai.NewContentFromParts(parts, genai.RoleModel))
		case RoleTool:
			part := genai.NewPartFromFunctionResponse(m.Name, map[string]any{"output": m.Content})
			contents = append(contents, genai.NewContentFromParts([]*genai.Part{part}, genai.RoleUser))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return contents
}

func geminiUsage(resp *genai.GenerateContentResponse) (input, output int) {
	if resp == nil || resp.UsageMetadata == nil {
		return 0, 0
	}
	return int(resp.UsageMetadata.PromptTokenCount), int(resp.UsageMetadata.CandidatesTokenCount)
}

func wrapGeminiError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: request timed out: %v", ErrModelUnavailable, err)
	}
	return fmt.Errorf("%w: %v", ErrModelUnavailable, err)
}
