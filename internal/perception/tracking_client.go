package perception

import (
	"context"
	"time"

	"genesys/internal/logging"
	"genesys/internal/usage"
)

// TrackingClient wraps an LLMClient, attaching a usage tracker to every call
// and logging call timing.
type TrackingClient struct {
	underlying LLMClient
	tracker    *usage.Tracker
}

// NewTrackingClient wraps client. A nil tracker only adds logging.
func NewTrackingClient(client LLMClient, tracker *usage.Tracker) *TrackingClient {
	return &TrackingClient{underlying: client, tracker: tracker}
}

// Unwrap returns the wrapped client.
func (tc *TrackingClient) Unwrap() LLMClient {
	return tc.underlying
}

func (tc *TrackingClient) attach(ctx context.Context) context.Context {
	if tc.tracker == nil || usage.FromContext(ctx) != nil {
		return ctx
	}
	return usage.NewContext(ctx, tc.tracker)
}

// CompleteWithSystem implements LLMClient.
func (tc *TrackingClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	start := time.Now()
	logging.API("LLM call started: provider=%s model=%s prompt_len=%d", tc.Provider(), tc.GetModel(), len(userPrompt))

	response, err := tc.underlying.CompleteWithSystem(tc.attach(ctx), systemPrompt, userPrompt)

	duration := time.Since(start)
	if err != nil {
		logging.API("LLM call failed: duration=%v error=%s", duration, err.Error())
	} else {
		logging.API("LLM call completed: duration=%v response_len=%d", duration, len(response))
	}
	return response, err
}

// CompleteWithTools implements LLMClient.
func (tc *TrackingClient) CompleteWithTools(ctx context.Context, systemPrompt string, messages []Message, tools []ToolDefinition) (*LLMToolResponse, error) {
	start := time.Now()
	logging.API("LLM tool call started: provider=%s model=%s messages=%d tools=%d", tc.Provider(), tc.GetModel(), len(messages), len(tools))

	resp, err := tc.underlying.CompleteWithTools(tc.attach(ctx), systemPrompt, messages, tools)

	duration := time.Since(start)
	if err != nil {
		logging.API("LLM tool call failed: duration=%v error=%s", duration, err.Error())
	} else {
		logging.API("LLM tool call completed: duration=%v tool_calls=%d tokens=%d", duration, len(resp.ToolCalls), resp.Usage.TotalTokens)
	}
	return resp, err
}

// GetModel implements LLMClient.
func (tc *TrackingClient) GetModel() string {
	return tc.underlying.GetModel()
}

// Provider implements LLMClient.
func (tc *TrackingClient) Provider() Provider {
	return tc.underlying.Provider()
}
