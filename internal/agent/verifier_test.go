package agent

import (
	"context"
	"testing"

	"github.com/hession/opsmate/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVerification(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantShape  AnswerShape
		wantStmts  []string
		wantResult bool
	}{
		{"answer points", `{"answer_points":["a","b"],"success":true}`, AnswerShapeAnswerPoints, []string{"a", "b"}, true},
		{"points win over final answer", `{"answer_points":["a"],"final_answer":"f"}`, AnswerShapeAnswerPoints, []string{"a"}, false},
		{"final answer fallback", `{"final_answer":"It is sunny.","success":true}`, AnswerShapeFinalAnswer, []string{"It is sunny."}, true},
		{"empty points use final answer", `{"answer_points":[],"final_answer":"f"}`, AnswerShapeFinalAnswer, []string{"f"}, false},
		{"non-string point", `{"answer_points":["a",3]}`, AnswerShapeAnswerPoints, []string{"a", "3"}, false},
		{"sentinel", `{}`, AnswerShapeNone, []string{NoAnswer}, false},
		{"empty points only", `{"answer_points":[],"success":true}`, AnswerShapeNone, []string{NoAnswer}, true},
		{"blank final answer", `{"final_answer":"  "}`, AnswerShapeNone, []string{NoAnswer}, false},
		{"non-bool success", `{"answer_points":["a"],"success":"yes"}`, AnswerShapeAnswerPoints, []string{"a"}, false},
		{"not json", `Sure! Here is the answer`, AnswerShapeNone, []string{NoAnswer}, false},
		{"list", `["a"]`, AnswerShapeNone, []string{NoAnswer}, false},
		{"null", `null`, AnswerShapeNone, []string{NoAnswer}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ParseVerification(tt.raw)
			assert.Equal(t, tt.raw, v.Raw)
			assert.Equal(t, tt.wantShape, v.Shape)
			assert.Equal(t, tt.wantStmts, v.Result.Statements)
			assert.Equal(t, tt.wantResult, v.Result.Succeeded)
		})
	}
}

func TestVerification_Answer(t *testing.T) {
	assert.Equal(t, "- a\n- b", ParseVerification(`{"answer_points":["a","b"]}`).Answer())
	assert.Equal(t, "plain", ParseVerification(`{"final_answer":"plain"}`).Answer())
	assert.Equal(t, NoAnswer, ParseVerification(`{}`).Answer())
}

func TestUserMessage(t *testing.T) {
	outcomes := []StepOutcome{
		{Index: 1, ToolName: "weather_tool", Status: StatusSuccess, Output: "20°C <sunny> & calm"},
		{Index: 2, ToolName: "time_machine", Status: StatusError, ErrorDetail: "Tool 'time_machine' not found.", ErrorKind: ErrorKindNotFound},
	}

	assert.Equal(t,
		`Query: weather in Delhi`+"\n"+
			`Results: [{"step":1,"tool":"weather_tool","status":"success","output":"20°C <sunny> & calm"},`+
			`{"step":2,"tool":"time_machine","status":"error","error":"Tool 'time_machine' not found.","error_kind":"not_found"}]`,
		UserMessage("weather in Delhi", outcomes))

	assert.Equal(t, "Query: q\nResults: []", UserMessage("q", nil))
}

func TestVerifier_Verify(t *testing.T) {
	raw := `{"answer_points":["It is 20°C in Delhi."],"success":true}`
	completer := newScriptedLLM(raw)
	v := NewVerifier(completer, "You are the Verifier Agent.")

	outcomes := []StepOutcome{{Index: 1, ToolName: "weather_tool", Status: StatusSuccess, Output: "x"}}
	got := v.Verify(context.Background(), "weather in Delhi", outcomes)

	assert.Equal(t, raw, got.Raw)
	assert.Equal(t, []string{"It is 20°C in Delhi."}, got.Result.Statements)
	assert.True(t, got.Result.Succeeded)

	require.Len(t, completer.calls, 1)
	assert.True(t, completer.structured[0])
	msgs := completer.calls[0]
	require.Len(t, msgs, 2)
	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "You are the Verifier Agent.")
	assert.Contains(t, msgs[0].Content, `"answer_points"`)
	assert.Contains(t, msgs[0].Content, `"success": true`)
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: UserMessage("weather in Delhi", outcomes)}, msgs[1])
}

func TestVerifier_BackendFailureDegrades(t *testing.T) {
	v := NewVerifier(newScriptedLLM(llm.EmptyJSON), "instr")

	got := v.Verify(context.Background(), "q", nil)
	assert.Equal(t, llm.EmptyJSON, got.Raw)
	assert.Equal(t, AnswerShapeNone, got.Shape)
	assert.Equal(t, []string{NoAnswer}, got.Result.Statements)
	assert.False(t, got.Result.Succeeded)
}
