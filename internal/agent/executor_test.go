package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hession/opsmate/internal/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failingTool(name string, err error) *funcTool {
	return &funcTool{
		name: name,
		fn: func(ctx context.Context, args map[string]any) (string, error) {
			return "", err
		},
	}
}

func panickingTool(name string) *funcTool {
	return &funcTool{
		name: name,
		fn: func(ctx context.Context, args map[string]any) (string, error) {
			panic("unexpected response shape")
		},
	}
}

func TestExecutor_PreservesLengthAndOrder(t *testing.T) {
	registry := newRegistry(t,
		constTool("ok", "fine"),
		failingTool("bad", errors.New("boom")),
		panickingTool("crash"),
	)
	e := NewExecutor(registry, 0)

	for n := 0; n <= 6; n++ {
		names := make([]string, n)
		for i := range names {
			names[i] = []string{"ok", "bad", "missing", "crash"}[i%4]
		}
		plan := steps(names...)

		outcomes := e.Execute(context.Background(), plan, nil)

		require.Len(t, outcomes, n)
		for i := range plan {
			assert.Equal(t, plan[i].Index, outcomes[i].Index)
			assert.Equal(t, plan[i].ToolName, outcomes[i].ToolName)
		}
	}
}

func TestExecutor_IdentityFollowsIndexNotDeclaredStep(t *testing.T) {
	declared := 7
	plan := []PlanStep{
		{Index: 1, DeclaredStep: &declared, ToolName: "ok"},
		{Index: 2, DeclaredStep: &declared, ToolName: "ok"},
	}
	outcomes := NewExecutor(newRegistry(t, constTool("ok", "x")), 0).Execute(context.Background(), plan, nil)

	require.Len(t, outcomes, 2)
	assert.Equal(t, 1, outcomes[0].Index)
	assert.Equal(t, 2, outcomes[1].Index)
}

func TestExecutor_UnknownToolDoesNotInvokeAndContinues(t *testing.T) {
	weather := weatherStub()
	other := constTool("news_tool", "headlines")
	e := NewExecutor(newRegistry(t, weather, other), 0)

	plan := steps("time_machine", "news_tool")
	outcomes := e.Execute(context.Background(), plan, nil)

	require.Len(t, outcomes, 2)
	assert.Equal(t, StatusError, outcomes[0].Status)
	assert.Equal(t, "Tool 'time_machine' not found.", outcomes[0].ErrorDetail)
	assert.Equal(t, ErrorKindNotFound, outcomes[0].ErrorKind)
	assert.Empty(t, outcomes[0].Output)
	assert.Equal(t, 0, weather.callCount())

	assert.Equal(t, StatusSuccess, outcomes[1].Status)
	assert.Equal(t, "headlines", outcomes[1].Output)
	assert.Equal(t, 1, other.callCount())
}

func TestExecutor_ProviderFailures(t *testing.T) {
	tests := []struct {
		name       string
		tool       *funcTool
		wantDetail string
	}{
		{"returned error", failingTool("t", errors.New("network unreachable")), "network unreachable"},
		{"wrapped error", failingTool("t", fmt.Errorf("forecast failed: %w", errors.New("EOF"))), "forecast failed: EOF"},
		{"empty error message", failingTool("t", errors.New("")), "Tool 't' failed."},
		{"panic", panickingTool("t"), "unexpected response shape"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			after := constTool("after", "still ran")
			e := NewExecutor(newRegistry(t, tt.tool, after), 0)

			outcomes := e.Execute(context.Background(), steps("t", "after"), nil)

			require.Len(t, outcomes, 2)
			assert.Equal(t, StatusError, outcomes[0].Status)
			assert.Equal(t, ErrorKindExecution, outcomes[0].ErrorKind)
			assert.Equal(t, tt.wantDetail, outcomes[0].ErrorDetail)
			assert.NotEmpty(t, outcomes[0].ErrorDetail)

			assert.Equal(t, StatusSuccess, outcomes[1].Status)
			assert.Equal(t, "still ran", outcomes[1].Output)
		})
	}
}

func TestExecutor_InvalidArgumentsAreStepErrors(t *testing.T) {
	weather := weatherStub()
	e := NewExecutor(newRegistry(t, weather), 0)

	plan := []PlanStep{
		{Index: 1, ToolName: "weather_tool", Arguments: map[string]any{}},
		{Index: 2, ToolName: "weather_tool", Arguments: map[string]any{"city": "Delhi", "units": "metric"}},
		{Index: 3, ToolName: "weather_tool", Arguments: map[string]any{"city": "Delhi"}},
	}
	outcomes := e.Execute(context.Background(), plan, nil)

	require.Len(t, outcomes, 3)
	assert.Equal(t, StatusError, outcomes[0].Status)
	assert.Contains(t, outcomes[0].ErrorDetail, "city")
	assert.Equal(t, StatusError, outcomes[1].Status)
	assert.Contains(t, outcomes[1].ErrorDetail, "units")
	assert.Equal(t, StatusSuccess, outcomes[2].Status)
	assert.Equal(t, 1, weather.callCount())
}

func TestExecutor_CoercibleArgumentsReachProvider(t *testing.T) {
	news := &funcTool{
		name: "news_tool",
		params: []tools.ParameterDef{
			{Name: "query", Type: "string"},
			{Name: "count", Type: "integer"},
		},
		fn: func(ctx context.Context, args map[string]any) (string, error) {
			return fmt.Sprintf("%v headlines", args["count"]), nil
		},
	}
	e := NewExecutor(newRegistry(t, news), 0)

	outcomes := e.Execute(context.Background(), []PlanStep{
		{Index: 1, ToolName: "news_tool", Arguments: map[string]any{"count": "3"}},
	}, nil)

	require.Len(t, outcomes, 1)
	assert.Equal(t, StatusSuccess, outcomes[0].Status)
	assert.Equal(t, "3 headlines", outcomes[0].Output)
	require.Equal(t, 1, news.callCount())
	assert.Equal(t, map[string]any{"count": "3"}, news.calls[0])
}

func TestExecutor_MalformedStepFailsAlone(t *testing.T) {
	weather := weatherStub()
	e := NewExecutor(newRegistry(t, weather), 0)

	plan := []PlanStep{
		{Index: 1, ToolName: "weather_tool", Arguments: map[string]any{}, Malformed: "arguments must be an object, got string"},
		{Index: 2, ToolName: "weather_tool", Arguments: map[string]any{"city": "Delhi"}},
	}
	outcomes := e.Execute(context.Background(), plan, nil)

	require.Len(t, outcomes, 2)
	assert.Equal(t, StatusError, outcomes[0].Status)
	assert.Equal(t, ErrorKindExecution, outcomes[0].ErrorKind)
	assert.Equal(t, "Tool 'weather_tool' failed: arguments must be an object, got string.", outcomes[0].ErrorDetail)
	assert.Equal(t, StatusSuccess, outcomes[1].Status)
	assert.Equal(t, 1, weather.callCount())
}

func TestExecutor_StepHandlerOrder(t *testing.T) {
	e := NewExecutor(newRegistry(t, constTool("a", "A"), constTool("b", "B")), 0)

	var events []string
	e.Execute(context.Background(), steps("a", "missing", "b"), func(step PlanStep, outcome *StepOutcome) {
		if outcome == nil {
			events = append(events, fmt.Sprintf("start %d %s", step.Index, step.ToolName))
			return
		}
		events = append(events, fmt.Sprintf("end %d %s", outcome.Index, outcome.Status))
	})

	assert.Equal(t, []string{
		"start 1 a", "end 1 success",
		"start 2 missing", "end 2 error",
		"start 3 b", "end 3 success",
	}, events)
}

func TestExecutor_EmptyPlan(t *testing.T) {
	outcomes := NewExecutor(newRegistry(t), 0).Execute(context.Background(), nil, nil)
	assert.NotNil(t, outcomes)
	assert.Empty(t, outcomes)
}

func TestStepOutcome_MarshalJSON(t *testing.T) {
	data, err := StepOutcome{Index: 1, ToolName: "w", Status: StatusSuccess, Output: "ok"}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"step":1,"tool":"w","status":"success","output":"ok"}`, string(data))

	data, err = StepOutcome{Index: 2, ToolName: "x", Status: StatusSuccess, Output: ""}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"step":2,"tool":"x","status":"success","output":""}`, string(data))

	data, err = StepOutcome{Index: 3, ToolName: "t", Status: StatusError, ErrorDetail: "Tool 't' not found.", ErrorKind: ErrorKindNotFound}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"step":3,"tool":"t","status":"error","error":"Tool 't' not found.","error_kind":"not_found"}`, string(data))
}

var _ tools.Tool = (*funcTool)(nil)
