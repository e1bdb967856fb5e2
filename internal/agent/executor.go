package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hession/opsmate/internal/logger"
	"github.com/hession/opsmate/internal/tools"
	"github.com/rs/zerolog"
)

// StepHandler is notified around each step: once with a nil outcome before
// the tool runs and once with the recorded outcome after.
type StepHandler func(step PlanStep, outcome *StepOutcome)

// Executor runs plan steps against the registry, one at a time, in order.
type Executor struct {
	registry    *tools.Registry
	stepTimeout time.Duration
}

// NewExecutor creates an executor. A positive stepTimeout bounds each invocation.
func NewExecutor(registry *tools.Registry, stepTimeout time.Duration) *Executor {
	return &Executor{
		registry:    registry,
		stepTimeout: stepTimeout,
	}
}

// Execute returns exactly one outcome per step, in plan order.
// A failing step is recorded and never stops the remaining steps.
func (e *Executor) Execute(ctx context.Context, plan []PlanStep, onStep StepHandler) []StepOutcome {
	outcomes := make([]StepOutcome, 0, len(plan))
	for _, step := range plan {
		if onStep != nil {
			onStep(step, nil)
		}

		outcome := e.executeStep(ctx, step)

		var ev *zerolog.Event
		if outcome.Succeeded() {
			ev = logger.L().Info()
		} else {
			ev = logger.L().Warn().Str("error_kind", string(outcome.ErrorKind)).Str("error", outcome.ErrorDetail)
		}
		ev.Int("step", step.Index).Str("tool", step.ToolName).Str("status", string(outcome.Status)).Msg("step executed")

		outcomes = append(outcomes, outcome)
		if onStep != nil {
			onStep(step, &outcomes[len(outcomes)-1])
		}
	}
	return outcomes
}

func (e *Executor) executeStep(ctx context.Context, step PlanStep) StepOutcome {
	tool, ok := e.registry.Get(step.ToolName)
	if !ok {
		return errorOutcome(step, ErrorKindNotFound, fmt.Sprintf("Tool '%s' not found.", step.ToolName))
	}

	if step.Malformed != "" {
		return errorOutcome(step, ErrorKindExecution, fmt.Sprintf("Tool '%s' failed: %s.", step.ToolName, step.Malformed))
	}

	if err := tools.ValidateArgs(tool, step.Arguments); err != nil {
		return errorOutcome(step, ErrorKindExecution, err.Error())
	}

	if e.stepTimeout <= 0 {
		output, err := invoke(ctx, tool, step.Arguments)
		if err != nil {
			return errorOutcome(step, ErrorKindExecution, errorDetail(step, err))
		}
		return successOutcome(step, output)
	}
	return e.executeBounded(ctx, tool, step)
}

type invokeResult struct {
	output string
	err    error
}

// executeBounded runs the tool in its own goroutine so an invocation that
// ignores ctx cannot hold the plan past the deadline. Such a goroutine is
// abandoned and finishes in the background.
func (e *Executor) executeBounded(ctx context.Context, tool tools.Tool, step PlanStep) StepOutcome {
	stepCtx, cancel := context.WithTimeout(ctx, e.stepTimeout)
	defer cancel()

	done := make(chan invokeResult, 1)
	go func() {
		output, err := invoke(stepCtx, tool, step.Arguments)
		done <- invokeResult{output: output, err: err}
	}()

	timedOut := func() bool {
		return errors.Is(stepCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil
	}

	select {
	case res := <-done:
		if res.err == nil {
			return successOutcome(step, res.output)
		}
		if timedOut() {
			return errorOutcome(step, ErrorKindTimeout, timeoutDetail(step, e.stepTimeout))
		}
		return errorOutcome(step, ErrorKindExecution, errorDetail(step, res.err))
	case <-stepCtx.Done():
		if timedOut() {
			return errorOutcome(step, ErrorKindTimeout, timeoutDetail(step, e.stepTimeout))
		}
		return errorOutcome(step, ErrorKindExecution, errorDetail(step, ctx.Err()))
	}
}

// invoke calls the tool, converting a panic into an error.
func invoke(ctx context.Context, tool tools.Tool, args map[string]any) (output string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return tool.Invoke(ctx, args)
}

func errorDetail(step PlanStep, err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fmt.Sprintf("Tool '%s' failed.", step.ToolName)
}

func timeoutDetail(step PlanStep, d time.Duration) string {
	return fmt.Sprintf("Tool '%s' timed out after %s.", step.ToolName, d)
}
