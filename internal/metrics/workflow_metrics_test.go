package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkflowMetrics(t *testing.T) {
	wm, err := NewWorkflowMetrics()
	require.NoError(t, err)
	assert.NotNil(t, wm)
}

func TestWorkflowMetricsRecording(t *testing.T) {
	wm, err := NewWorkflowMetrics()
	require.NoError(t, err)

	ctx := context.Background()

	// The global meter defaults to a no-op provider in tests; recording
	// must still be safe to call.
	wm.RecordTurnStarted(ctx, "thread-1", "clarify")
	wm.RecordStageDuration(ctx, "generate", 1500*time.Millisecond)
	wm.RecordLLMCall(ctx, "openai", "gpt-4-turbo", false)
	wm.RecordLLMCall(ctx, "anthropic", "claude-3-haiku-20240307", true)
	wm.RecordTurnCompleted(ctx, "thread-1", "clarify", true, 2*time.Second)
	wm.RecordTurnCompleted(ctx, "thread-2", "judge", false, 30*time.Second)
}
