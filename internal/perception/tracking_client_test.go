package perception

import (
	"context"
	"path/filepath"
	"testing"

	"genesys/internal/usage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingClient reports usage the way the real clients do.
type recordingClient struct {
	sawTracker bool
}

func (c *recordingClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	c.sawTracker = usage.FromContext(ctx) != nil
	trackUsage(ctx, c.GetModel(), c.Provider(), 3, 2, "completion")
	return "ok", nil
}

func (c *recordingClient) CompleteWithTools(ctx context.Context, systemPrompt string, messages []Message, tools []ToolDefinition) (*LLMToolResponse, error) {
	c.sawTracker = usage.FromContext(ctx) != nil
	trackUsage(ctx, c.GetModel(), c.Provider(), 10, 1, "tool_call")
	return &LLMToolResponse{Text: "done", Usage: UsageMetadata{InputTokens: 10, OutputTokens: 1, TotalTokens: 11}}, nil
}

func (c *recordingClient) GetModel() string   { return "fake-model" }
func (c *recordingClient) Provider() Provider { return ProviderOpenAI }

func TestTrackingClient(t *testing.T) {
	tracker, err := usage.NewTracker(filepath.Join(t.TempDir(), "usage.json"))
	require.NoError(t, err)
	defer tracker.Close()

	inner := &recordingClient{}
	tc := NewTrackingClient(inner, tracker)
	assert.Same(t, inner, tc.Unwrap())
	assert.Equal(t, "fake-model", tc.GetModel())

	_, err = tc.CompleteWithSystem(context.Background(), "", "hi")
	require.NoError(t, err)
	assert.True(t, inner.sawTracker)

	ctx := usage.WithFunction(context.Background(), "gc_content")
	_, err = tc.CompleteWithTools(ctx, "", []Message{UserMessage("gc")}, nil)
	require.NoError(t, err)

	stats := tracker.Stats()
	assert.Equal(t, int64(2), stats.Calls)
	assert.Equal(t, int64(16), stats.Total.Total)
	assert.Equal(t, int64(11), stats.ByFunction["gc_content"].Total)
	assert.Equal(t, int64(16), stats.ByModel["fake-model"].Total)
}

func TestTrackingClient_NilTracker(t *testing.T) {
	inner := &recordingClient{}
	_, err := NewTrackingClient(inner, nil).CompleteWithSystem(context.Background(), "", "hi")
	require.NoError(t, err)
	assert.False(t, inner.sawTracker)
}
