package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hession/opsmate/internal/llm"
	"github.com/hession/opsmate/internal/logger"
)

// NoAnswer is the statement used when a completion carries no usable answer.
const NoAnswer = "No answer provided."

const answerFormatInstruction = `Return JSON strictly.
Format the answer as a list of strings called "answer_points", where each string is a bullet point.

Return JSON:
{
  "answer_points": [
    "Point 1...",
    "Point 2..."
  ],
  "success": true
}`

// AnswerShape identifies which recognized layout a verifier completion used
type AnswerShape string

const (
	AnswerShapeNone         AnswerShape = "none"
	AnswerShapeAnswerPoints AnswerShape = "answer_points"
	AnswerShapeFinalAnswer  AnswerShape = "final_answer"
)

// Verification is the verifier's output. Raw is the completion text, unmodified.
type Verification struct {
	Raw    string
	Result VerificationResult
	Shape  AnswerShape
}

// Answer renders the statements for display. Answer points become a
// bulleted list; a final answer or the placeholder is returned as is.
func (v *Verification) Answer() string {
	if v.Shape != AnswerShapeAnswerPoints {
		return strings.Join(v.Result.Statements, "\n")
	}
	lines := make([]string, len(v.Result.Statements))
	for i, s := range v.Result.Statements {
		lines[i] = "- " + s
	}
	return strings.Join(lines, "\n")
}

// Verifier asks the model to reconcile the request with step outcomes.
type Verifier struct {
	llm         llm.Completer
	instruction string
}

// NewVerifier creates a verifier
func NewVerifier(completer llm.Completer, instruction string) *Verifier {
	return &Verifier{
		llm:         completer,
		instruction: strings.TrimSpace(instruction),
	}
}

// SystemPrompt builds the verifier's system message.
func (v *Verifier) SystemPrompt() string {
	return v.instruction + "\n\n" + answerFormatInstruction
}

// UserMessage frames the request and all outcomes for the model.
func UserMessage(request string, outcomes []StepOutcome) string {
	if outcomes == nil {
		outcomes = []StepOutcome{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// StepOutcome marshalling cannot fail.
	_ = enc.Encode(outcomes)
	return fmt.Sprintf("Query: %s\nResults: %s", request, strings.TrimRight(buf.String(), "\n"))
}

// Verify never fails; malformed completions degrade to the placeholder answer.
func (v *Verifier) Verify(ctx context.Context, request string, outcomes []StepOutcome) *Verification {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: v.SystemPrompt()},
		{Role: llm.RoleUser, Content: UserMessage(request, outcomes)},
	}

	raw := v.llm.Complete(ctx, messages, true)
	verification := ParseVerification(raw)
	if verification.Shape == AnswerShapeNone {
		logger.L().Warn().Str("raw", raw).Msg("verification has no answer")
	}
	return verification
}

// ParseVerification extracts the answer from a verifier completion.
// "answer_points" wins over "final_answer"; with neither the result holds
// the placeholder statement.
func ParseVerification(raw string) *Verification {
	v := &Verification{
		Raw:   raw,
		Shape: AnswerShapeNone,
		Result: VerificationResult{
			Statements: []string{NoAnswer},
		},
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil || data == nil {
		return v
	}

	if ok, isBool := data["success"].(bool); isBool {
		v.Result.Succeeded = ok
	}

	if points, ok := data["answer_points"].([]any); ok && len(points) > 0 {
		statements := make([]string, 0, len(points))
		for _, p := range points {
			if s, ok := p.(string); ok {
				statements = append(statements, s)
			} else {
				statements = append(statements, fmt.Sprint(p))
			}
		}
		v.Shape = AnswerShapeAnswerPoints
		v.Result.Statements = statements
		return v
	}

	if answer, ok := data["final_answer"].(string); ok && strings.TrimSpace(answer) != "" {
		v.Shape = AnswerShapeFinalAnswer
		v.Result.Statements = []string{answer}
	}
	return v
}
