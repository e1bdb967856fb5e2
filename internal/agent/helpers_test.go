package agent

import (
	"context"
	"sync"
	"testing"

	"github.com/hession/opsmate/internal/llm"
	"github.com/hession/opsmate/internal/tools"
	"github.com/stretchr/testify/require"
)

// scriptedLLM returns canned completions in order, then the empty-JSON sentinel.
type scriptedLLM struct {
	mu         sync.Mutex
	replies    []string
	calls      [][]llm.Message
	structured []bool
}

func newScriptedLLM(replies ...string) *scriptedLLM {
	return &scriptedLLM{replies: replies}
}

func (s *scriptedLLM) Complete(ctx context.Context, messages []llm.Message, structured bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, messages)
	s.structured = append(s.structured, structured)
	if len(s.replies) == 0 {
		return llm.EmptyJSON
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply
}

// funcTool is a provider whose behaviour is supplied by the test.
type funcTool struct {
	name   string
	desc   string
	params []tools.ParameterDef
	fn     func(ctx context.Context, args map[string]any) (string, error)

	mu    sync.Mutex
	calls []map[string]any
}

func (f *funcTool) Name() string                     { return f.name }
func (f *funcTool) Description() string              { return f.desc }
func (f *funcTool) Parameters() []tools.ParameterDef { return f.params }

func (f *funcTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, args)
	f.mu.Unlock()
	return f.fn(ctx, args)
}

func (f *funcTool) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func constTool(name, output string) *funcTool {
	return &funcTool{
		name: name,
		desc: "returns " + output,
		fn: func(ctx context.Context, args map[string]any) (string, error) {
			return output, nil
		},
	}
}

func weatherStub() *funcTool {
	return &funcTool{
		name: "weather_tool",
		desc: "Fetches current weather for a given city name. Args: city (str)",
		params: []tools.ParameterDef{
			{Name: "city", Type: "string", Description: "The name of the city to get weather for", Required: true},
		},
		fn: func(ctx context.Context, args map[string]any) (string, error) {
			return "Current weather in " + args["city"].(string) + ": 20°C, Wind: 5 km/h", nil
		},
	}
}

func newRegistry(t *testing.T, ts ...tools.Tool) *tools.Registry {
	t.Helper()
	r, err := tools.NewRegistry(ts...)
	require.NoError(t, err)
	return r
}

func steps(names ...string) []PlanStep {
	plan := make([]PlanStep, len(names))
	for i, name := range names {
		plan[i] = PlanStep{Index: i + 1, ToolName: name, Arguments: map[string]any{}}
	}
	return plan
}
