package agent

import (
	"bytes"
	"encoding/json"
)

// PlanStep one planned tool invocation
type PlanStep struct {
	// Index is the 1-based position in the plan and the step's identity downstream.
	Index int
	// DeclaredStep is the model's own "step" value, kept for display only.
	DeclaredStep *int
	ToolName     string
	Arguments    map[string]any
	Rationale    string
	// Malformed describes an element the model got wrong, such as arguments
	// that are not an object. The step is kept and fails when executed.
	Malformed string
}

// DisplayStep returns the number to show the operator for this step.
func (s PlanStep) DisplayStep() int {
	if s.DeclaredStep != nil {
		return *s.DeclaredStep
	}
	return s.Index
}

// Status outcome status of a step
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ErrorKind classifies a failed step
type ErrorKind string

const (
	ErrorKindNone      ErrorKind = ""
	ErrorKindNotFound  ErrorKind = "not_found" // tool name not registered
	ErrorKindExecution ErrorKind = "execution" // provider failed or panicked
	ErrorKindTimeout   ErrorKind = "timeout"   // step timeout expired
)

// StepOutcome record of one execution attempt
type StepOutcome struct {
	Index       int
	ToolName    string
	Status      Status
	Output      string // set iff Status == StatusSuccess
	ErrorDetail string // set iff Status == StatusError
	ErrorKind   ErrorKind
}

// Succeeded reports whether the step produced output.
func (o StepOutcome) Succeeded() bool {
	return o.Status == StatusSuccess
}

type outcomeJSON struct {
	Step      int       `json:"step"`
	Tool      string    `json:"tool"`
	Status    Status    `json:"status"`
	Output    *string   `json:"output,omitempty"`
	Error     *string   `json:"error,omitempty"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
}

// MarshalJSON emits output for successes and error fields for failures, never both.
func (o StepOutcome) MarshalJSON() ([]byte, error) {
	out := outcomeJSON{
		Step:   o.Index,
		Tool:   o.ToolName,
		Status: o.Status,
	}
	if o.Status == StatusSuccess {
		output := o.Output
		out.Output = &output
	} else {
		detail := o.ErrorDetail
		out.Error = &detail
		out.ErrorKind = o.ErrorKind
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func successOutcome(step PlanStep, output string) StepOutcome {
	return StepOutcome{
		Index:    step.Index,
		ToolName: step.ToolName,
		Status:   StatusSuccess,
		Output:   output,
	}
}

func errorOutcome(step PlanStep, kind ErrorKind, detail string) StepOutcome {
	return StepOutcome{
		Index:       step.Index,
		ToolName:    step.ToolName,
		Status:      StatusError,
		ErrorDetail: detail,
		ErrorKind:   kind,
	}
}

// VerificationResult final synthesis of a run
type VerificationResult struct {
	Statements []string
	// Succeeded is the model's own assessment and is advisory only.
	Succeeded bool
}
