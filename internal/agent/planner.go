package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hession/opsmate/internal/llm"
	"github.com/hession/opsmate/internal/logger"
	"github.com/hession/opsmate/internal/tools"
)

const planFormatInstruction = `Return the plan STRICTLY as a JSON object with a key "plan" containing the list of steps.
Example format:
{
  "plan": [
    {
      "step": 1,
      "tool": "tool_name",
      "args": {"arg": "value"},
      "reasoning": "explanation"
    }
  ]
}

Return ONLY the JSON object.`

// PlanShape identifies which recognized layout a plan completion used
type PlanShape string

const (
	PlanShapeUnrecognized PlanShape = ""
	PlanShapePlanKey      PlanShape = "plan"
	PlanShapeStepsKey     PlanShape = "steps"
	PlanShapeList         PlanShape = "list"
)

// PlanResult parsed planner completion
type PlanResult struct {
	// Steps is nil when no plan could be parsed.
	Steps   []PlanStep
	Shape   PlanShape
	Raw     string
	Problem string // why Steps is nil
}

// OK reports whether the completion yielded at least one step.
func (r *PlanResult) OK() bool {
	return r != nil && len(r.Steps) > 0
}

// Planner asks the model to decompose a request into tool calls.
type Planner struct {
	llm         llm.Completer
	registry    *tools.Registry
	instruction string
}

// NewPlanner creates a planner over the given registry
func NewPlanner(completer llm.Completer, registry *tools.Registry, instruction string) *Planner {
	return &Planner{
		llm:         completer,
		registry:    registry,
		instruction: strings.TrimSpace(instruction),
	}
}

// SystemPrompt builds the planner's system message.
func (p *Planner) SystemPrompt() string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	// Encoding plain structs of strings cannot fail.
	_ = enc.Encode(p.registry.GetSchemas())

	var sb strings.Builder
	sb.WriteString(p.instruction)
	sb.WriteString("\nAvailable Tools: ")
	sb.WriteString(strings.TrimRight(buf.String(), "\n"))
	sb.WriteString("\n\n")
	sb.WriteString(planFormatInstruction)
	return sb.String()
}

// Plan requests a plan for request. It never fails: a completion that
// cannot be parsed yields a result with nil Steps.
func (p *Planner) Plan(ctx context.Context, request string) *PlanResult {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: p.SystemPrompt()},
		{Role: llm.RoleUser, Content: request},
	}

	raw := p.llm.Complete(ctx, messages, true)
	result := ParsePlan(raw)
	if result.Steps == nil {
		logger.L().Warn().Str("problem", result.Problem).Str("raw", raw).Msg("plan parse failed")
	} else {
		logger.L().Debug().Int("steps", len(result.Steps)).Str("shape", string(result.Shape)).Msg("plan parsed")
	}
	return result
}

// ParsePlan parses a planner completion. Accepted layouts are an object
// with a "plan" key (preferred) or "steps" key, or a bare list of steps.
func ParsePlan(raw string) *PlanResult {
	result := &PlanResult{Raw: raw}

	var top any
	if err := json.Unmarshal([]byte(raw), &top); err != nil {
		result.Problem = fmt.Sprintf("invalid JSON: %v", err)
		return result
	}

	var list any
	switch v := top.(type) {
	case map[string]any:
		if l, ok := v["plan"]; ok {
			result.Shape, list = PlanShapePlanKey, l
		} else if l, ok := v["steps"]; ok {
			result.Shape, list = PlanShapeStepsKey, l
		} else {
			result.Problem = "object has neither a \"plan\" nor a \"steps\" key"
			return result
		}
	case []any:
		result.Shape, list = PlanShapeList, v
	default:
		result.Problem = fmt.Sprintf("unexpected JSON %T", top)
		return result
	}

	elems, ok := list.([]any)
	if !ok {
		result.Problem = fmt.Sprintf("%q is not a list", result.Shape)
		return result
	}

	steps := make([]PlanStep, 0, len(elems))
	for i, elem := range elems {
		steps = append(steps, parseStep(i+1, elem))
	}
	result.Steps = steps
	return result
}

// parseStep maps one plan element. A malformed element still becomes a step
// so that it fails on its own at execution time.
func parseStep(index int, elem any) PlanStep {
	step := PlanStep{Index: index, Arguments: map[string]any{}}

	obj, ok := elem.(map[string]any)
	if !ok {
		step.Malformed = fmt.Sprintf("step must be an object, got %s", jsonType(elem))
		return step
	}

	step.ToolName = toolName(obj)

	for _, key := range []string{"args", "arguments"} {
		v, ok := obj[key]
		if !ok {
			continue
		}
		switch args := v.(type) {
		case nil:
		case map[string]any:
			step.Arguments = args
		default:
			step.Malformed = fmt.Sprintf("arguments must be an object, got %s", jsonType(v))
		}
		break
	}

	// Rationale is informational; a non-string value is dropped.
	for _, key := range []string{"reasoning", "rationale"} {
		if s, ok := obj[key].(string); ok {
			step.Rationale = s
			break
		}
	}

	step.DeclaredStep = declaredStep(obj["step"])
	return step
}

// toolName returns the first present name key. Non-string names are kept in
// printed form and resolve like any other unknown name.
func toolName(obj map[string]any) string {
	for _, key := range []string{"tool", "tool_name"} {
		switch v := obj[key].(type) {
		case nil:
			continue
		case string:
			return v
		default:
			b, err := json.Marshal(v)
			if err != nil {
				return fmt.Sprint(v)
			}
			return string(b)
		}
	}
	return ""
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}

func declaredStep(v any) *int {
	var n int
	switch x := v.(type) {
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) {
			return nil
		}
		n = int(x)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return nil
		}
		n = i
	default:
		return nil
	}
	return &n
}
