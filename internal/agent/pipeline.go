package agent

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hession/opsmate/internal/config"
	"github.com/hession/opsmate/internal/llm"
	"github.com/hession/opsmate/internal/logger"
	"github.com/hession/opsmate/internal/tools"
)

// State pipeline state
type State string

const (
	StateIdle      State = "idle"
	StatePlanning  State = "planning"
	StateAborted   State = "aborted"
	StateExecuting State = "executing"
	StateVerifying State = "verifying"
	StateDone      State = "done"
)

// Terminal reports whether no further transitions follow.
func (s State) Terminal() bool {
	return s == StateAborted || s == StateDone
}

// Run is one pass of plan, execute and verify for a single request.
type Run struct {
	ID           uuid.UUID
	Request      string
	State        State
	PlanResult   *PlanResult
	Plan         []PlanStep
	Outcomes     []StepOutcome
	Verification *Verification
	StartedAt    time.Time
	Duration     time.Duration
}

// Pipeline drives requests through the planner, executor and verifier.
// It holds no per-request state and may be reused.
type Pipeline struct {
	planner  *Planner
	executor *Executor
	verifier *Verifier

	planHandler   func(run *Run, result *PlanResult)
	stepHandler   StepHandler
	answerHandler func(run *Run, verification *Verification)
	stateHandler  func(run *Run, from, to State)
}

type pipelineOptions struct {
	plannerPrompt  string
	verifierPrompt string
	stepTimeout    time.Duration
}

// Option pipeline configuration option
type Option func(*Pipeline, *pipelineOptions)

// WithPrompts overrides the planner and verifier role instructions
func WithPrompts(prompts config.LanguagePrompts) Option {
	return func(_ *Pipeline, o *pipelineOptions) {
		if prompts.Planner != "" {
			o.plannerPrompt = prompts.Planner
		}
		if prompts.Verifier != "" {
			o.verifierPrompt = prompts.Verifier
		}
	}
}

// WithStepTimeout bounds every tool invocation; zero leaves them unbounded
func WithStepTimeout(d time.Duration) Option {
	return func(_ *Pipeline, o *pipelineOptions) {
		o.stepTimeout = d
	}
}

// WithPlanHandler sets the handler called once planning finishes, parsed or not
func WithPlanHandler(handler func(run *Run, result *PlanResult)) Option {
	return func(p *Pipeline, _ *pipelineOptions) {
		p.planHandler = handler
	}
}

// WithStepHandler sets the handler called around each step
func WithStepHandler(handler StepHandler) Option {
	return func(p *Pipeline, _ *pipelineOptions) {
		p.stepHandler = handler
	}
}

// WithAnswerHandler sets the handler called with the verification
func WithAnswerHandler(handler func(run *Run, verification *Verification)) Option {
	return func(p *Pipeline, _ *pipelineOptions) {
		p.answerHandler = handler
	}
}

// WithStateHandler sets the handler called on every state transition
func WithStateHandler(handler func(run *Run, from, to State)) Option {
	return func(p *Pipeline, _ *pipelineOptions) {
		p.stateHandler = handler
	}
}

// NewPipeline creates a pipeline sharing one model client and registry across stages
func NewPipeline(completer llm.Completer, registry *tools.Registry, opts ...Option) *Pipeline {
	defaults := config.DefaultPromptConfig().GetPrompts()
	o := &pipelineOptions{
		plannerPrompt:  defaults.Planner,
		verifierPrompt: defaults.Verifier,
	}

	p := &Pipeline{}
	for _, opt := range opts {
		opt(p, o)
	}

	p.planner = NewPlanner(completer, registry, o.plannerPrompt)
	p.executor = NewExecutor(registry, o.stepTimeout)
	p.verifier = NewVerifier(completer, o.verifierPrompt)
	return p
}

// Run processes one request. It always returns a run in a terminal state;
// a request that yields no plan ends Aborted.
func (p *Pipeline) Run(ctx context.Context, request string) *Run {
	run := &Run{
		ID:        uuid.New(),
		Request:   request,
		State:     StateIdle,
		StartedAt: time.Now(),
	}
	log := logger.L().With().Str("run_id", run.ID.String()).Logger()
	log.Info().Str("request", request).Msg("run started")

	defer func() {
		run.Duration = time.Since(run.StartedAt)
		log.Info().Str("state", string(run.State)).Dur("duration", run.Duration).Msg("run finished")
	}()

	p.transition(run, StatePlanning)
	result := p.planner.Plan(ctx, request)
	run.PlanResult = result
	run.Plan = result.Steps
	if p.planHandler != nil {
		p.planHandler(run, result)
	}
	if !result.OK() {
		problem := result.Problem
		if problem == "" {
			problem = "plan is empty"
		}
		log.Warn().Str("problem", problem).Msg("no plan, aborting")
		p.transition(run, StateAborted)
		return run
	}

	p.transition(run, StateExecuting)
	run.Outcomes = p.executor.Execute(ctx, run.Plan, p.stepHandler)

	p.transition(run, StateVerifying)
	run.Verification = p.verifier.Verify(ctx, request, run.Outcomes)
	if p.answerHandler != nil {
		p.answerHandler(run, run.Verification)
	}

	p.transition(run, StateDone)
	return run
}

func (p *Pipeline) transition(run *Run, to State) {
	from := run.State
	if from.Terminal() {
		return
	}
	run.State = to
	logger.L().Debug().Str("run_id", run.ID.String()).Str("from", string(from)).Str("to", string(to)).Msg("state")
	if p.stateHandler != nil {
		p.stateHandler(run, from, to)
	}
}
