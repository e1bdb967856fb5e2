package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Step timeouts are off by default; these tests cover the bounded mode.

func TestExecutorBounded_ToolIgnoringContextTimesOut(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	stuck := &funcTool{
		name: "slow_tool",
		fn: func(ctx context.Context, args map[string]any) (string, error) {
			<-release
			return "late", nil
		},
	}
	after := constTool("after", "done")
	e := NewExecutor(newRegistry(t, stuck, after), 50*time.Millisecond)

	start := time.Now()
	outcomes := e.Execute(context.Background(), steps("slow_tool", "after"), nil)

	assert.Less(t, time.Since(start), 2*time.Second)
	require.Len(t, outcomes, 2)
	assert.Equal(t, StatusError, outcomes[0].Status)
	assert.Equal(t, ErrorKindTimeout, outcomes[0].ErrorKind)
	assert.Equal(t, "Tool 'slow_tool' timed out after 50ms.", outcomes[0].ErrorDetail)
	assert.Equal(t, StatusSuccess, outcomes[1].Status)
}

func TestExecutorBounded_ToolHonouringContextTimesOut(t *testing.T) {
	waiting := &funcTool{
		name: "waiting_tool",
		fn: func(ctx context.Context, args map[string]any) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
	e := NewExecutor(newRegistry(t, waiting), 20*time.Millisecond)

	outcomes := e.Execute(context.Background(), steps("waiting_tool"), nil)

	require.Len(t, outcomes, 1)
	assert.Equal(t, ErrorKindTimeout, outcomes[0].ErrorKind)
	assert.Equal(t, "Tool 'waiting_tool' timed out after 20ms.", outcomes[0].ErrorDetail)
}

func TestExecutorBounded_FastToolsUnaffected(t *testing.T) {
	e := NewExecutor(newRegistry(t, constTool("a", "A"), panickingTool("p")), time.Second)

	outcomes := e.Execute(context.Background(), steps("a", "p", "missing"), nil)

	require.Len(t, outcomes, 3)
	assert.Equal(t, StatusSuccess, outcomes[0].Status)
	assert.Equal(t, "A", outcomes[0].Output)
	assert.Equal(t, ErrorKindExecution, outcomes[1].ErrorKind)
	assert.Equal(t, ErrorKindNotFound, outcomes[2].ErrorKind)
}

func TestExecutorBounded_ParentCancellationIsNotATimeout(t *testing.T) {
	waiting := &funcTool{
		name: "waiting_tool",
		fn: func(ctx context.Context, args map[string]any) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
	e := NewExecutor(newRegistry(t, waiting), time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	outcomes := e.Execute(ctx, steps("waiting_tool", "waiting_tool"), nil)

	require.Len(t, outcomes, 2)
	for _, o := range outcomes {
		assert.Equal(t, StatusError, o.Status)
		assert.Equal(t, ErrorKindExecution, o.ErrorKind)
		assert.Equal(t, "context canceled", o.ErrorDetail)
	}
}
