package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/hession/opsmate/internal/agent"
	"github.com/hession/opsmate/internal/tools"
)

const (
	colorReset   = "\033[0m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
	colorRed     = "\033[31m"
	colorGray    = "\033[90m"
)

// Renderer prints pipeline progress to the console.
type Renderer struct {
	out     io.Writer
	preview int
}

// NewRenderer creates a renderer. preview caps how much step output is shown.
func NewRenderer(out io.Writer, preview int) *Renderer {
	if preview <= 0 {
		preview = 200
	}
	return &Renderer{out: out, preview: preview}
}

// Welcome prints the banner with the registered tools
func (r *Renderer) Welcome(registry *tools.Registry) {
	fmt.Fprintf(r.out, "\n%s🤖 OpsMate v%s%s - AI Operations Assistant\n", colorCyan, Version, colorReset)
	fmt.Fprintf(r.out, "%sAvailable Tools:%s\n", colorYellow, colorReset)
	for _, name := range registry.Names() {
		fmt.Fprintf(r.out, "  • %s\n", name)
	}
	fmt.Fprintf(r.out, "%sType exit or quit to leave%s\n\n", colorGray, colorReset)
}

// State announces the stages the operator waits on
func (r *Renderer) State(run *agent.Run, from, to agent.State) {
	switch to {
	case agent.StatePlanning:
		fmt.Fprintf(r.out, "%s🧭 Planning:%s %s\n", colorBlue, colorReset, run.Request)
	case agent.StateVerifying:
		fmt.Fprintf(r.out, "%sVerifying results...%s\n", colorMagenta, colorReset)
	}
}

// Plan prints the execution plan, or why there is none
func (r *Renderer) Plan(run *agent.Run, result *agent.PlanResult) {
	if !result.OK() {
		if result.Steps == nil {
			fmt.Fprintf(r.out, "%s❌ Error parsing plan JSON%s\n", colorRed, colorReset)
		}
		fmt.Fprintf(r.out, "%s❌ Failed to generate a plan.%s\n", colorRed, colorReset)
		return
	}

	fmt.Fprintf(r.out, "\n%s📋 Execution Plan%s\n", colorBlue, colorReset)
	for _, step := range result.Steps {
		fmt.Fprintf(r.out, "  %sStep %d%s: Use %s%s%s\n", colorYellow, step.DisplayStep(), colorReset, colorCyan, step.ToolName, colorReset)
		if step.Rationale != "" {
			fmt.Fprintf(r.out, "  %s> %s%s\n", colorGray, step.Rationale, colorReset)
		}
	}
	fmt.Fprintln(r.out)
}

// Step prints step start and result
func (r *Renderer) Step(step agent.PlanStep, outcome *agent.StepOutcome) {
	if outcome == nil {
		fmt.Fprintf(r.out, "%sExecuting Step %d:%s Use %s%s%s\n", colorYellow, step.DisplayStep(), colorReset, colorCyan, step.ToolName, colorReset)
		return
	}
	if outcome.Succeeded() {
		fmt.Fprintf(r.out, "%s✅ Result:%s %s\n", colorGreen, colorReset, truncateForDisplay(outcome.Output, r.preview))
		return
	}
	fmt.Fprintf(r.out, "%s❌ Error:%s %s\n", colorRed, colorReset, outcome.ErrorDetail)
}

// Answer prints the final answer
func (r *Renderer) Answer(run *agent.Run, v *agent.Verification) {
	fmt.Fprintf(r.out, "\n%s✨ Final Answer%s\n", colorGreen, colorReset)
	fmt.Fprintln(r.out, v.Answer())
	if v.Shape == agent.AnswerShapeNone {
		fmt.Fprintf(r.out, "%sRaw Response: %s%s\n", colorGray, v.Raw, colorReset)
	}
	fmt.Fprintln(r.out)
}

// truncateForDisplay flattens text to one line and caps it at maxLen runes.
func truncateForDisplay(text string, maxLen int) string {
	text = strings.ReplaceAll(text, "\r\n", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.TrimSpace(text)

	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen]) + "..."
}
