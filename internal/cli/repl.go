package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	prompt "github.com/c-bata/go-prompt"
	"github.com/hession/opsmate/internal/agent"
	"github.com/hession/opsmate/internal/config"
	"github.com/hession/opsmate/internal/llm"
	"github.com/hession/opsmate/internal/logger"
	"github.com/hession/opsmate/internal/tools"
)

const Version = "0.1.0"

// Session owns one pipeline and renders every run it performs.
type Session struct {
	pipeline *agent.Pipeline
	registry *tools.Registry
	renderer *Renderer
}

// NewSession wires a pipeline to console rendering
func NewSession(completer llm.Completer, registry *tools.Registry, cfg *config.Config, prompts config.LanguagePrompts, out io.Writer) *Session {
	renderer := NewRenderer(out, cfg.Pipeline.OutputPreviewChars)
	pipeline := agent.NewPipeline(completer, registry,
		agent.WithPrompts(prompts),
		agent.WithStepTimeout(time.Duration(cfg.Pipeline.StepTimeoutSeconds)*time.Second),
		agent.WithStateHandler(renderer.State),
		agent.WithPlanHandler(renderer.Plan),
		agent.WithStepHandler(renderer.Step),
		agent.WithAnswerHandler(renderer.Answer),
	)
	return &Session{
		pipeline: pipeline,
		registry: registry,
		renderer: renderer,
	}
}

// Ask runs one request through the pipeline
func (s *Session) Ask(ctx context.Context, query string) *agent.Run {
	return s.pipeline.Run(ctx, query)
}

// NewCompleter builds the model backend selected in config
func NewCompleter(cfg *config.Config) (llm.Completer, error) {
	m := cfg.Model
	switch strings.ToLower(strings.TrimSpace(m.Backend)) {
	case config.BackendLangChain:
		client, err := llm.NewLangChain(m.APIKey, m.BaseURL, m.Model, m.Temperature, m.MaxTokens)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize langchain backend: %w", err)
		}
		return client, nil
	default:
		timeout := time.Duration(m.TimeoutSeconds) * time.Second
		return llm.New(m.APIKey, m.BaseURL, m.Model, m.Temperature, m.MaxTokens, timeout), nil
	}
}

// Run answers query when given, otherwise starts the interactive loop
func Run(cfg *config.Config, query string) error {
	if !cfg.IsAPIKeyConfigured() {
		return fmt.Errorf("model API key not configured: set GROQ_API_KEY or OPENAI_API_KEY in the environment or config/.secrets")
	}

	completer, err := NewCompleter(cfg)
	if err != nil {
		return err
	}

	registry, err := tools.NewDefaultRegistry(cfg)
	if err != nil {
		return fmt.Errorf("failed to create tool registry: %w", err)
	}

	promptCfg, err := config.LoadPromptConfig()
	if err != nil {
		return fmt.Errorf("failed to load prompt config: %w", err)
	}

	session := NewSession(completer, registry, cfg, promptCfg.GetPrompts(), os.Stdout)
	logger.L().Info().
		Str("backend", cfg.Model.Backend).
		Str("model", cfg.Model.Model).
		Strs("tools", registry.Names()).
		Msg("session ready")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if strings.TrimSpace(query) != "" {
		session.Ask(ctx, query)
		return nil
	}

	session.renderer.Welcome(registry)
	runLoop(ctx, session, readPrompt())
	fmt.Printf("%sGoodbye! 👋%s\n", colorCyan, colorReset)
	return nil
}

// readPrompt returns a line reader backed by go-prompt with in-session history.
func readPrompt() func() string {
	var history []string
	return func() string {
		line := prompt.Input("👤 User (or 'exit'): ", completeExit,
			prompt.OptionHistory(history),
			prompt.OptionPrefixTextColor(prompt.Cyan),
			prompt.OptionTitle("opsmate"),
		)
		if strings.TrimSpace(line) != "" {
			history = append(history, line)
		}
		return line
	}
}

var exitSuggestions = []prompt.Suggest{
	{Text: "exit", Description: "Leave OpsMate"},
	{Text: "quit", Description: "Leave OpsMate"},
}

func completeExit(d prompt.Document) []prompt.Suggest {
	word := d.GetWordBeforeCursor()
	if word == "" {
		return nil
	}
	return prompt.FilterHasPrefix(exitSuggestions, word, true)
}

// runLoop asks each non-blank line until an exit keyword or cancellation.
func runLoop(ctx context.Context, session *Session, read func() string) {
	for ctx.Err() == nil {
		input := strings.TrimSpace(read())
		if input == "" {
			continue
		}
		if isExit(input) {
			return
		}
		session.Ask(ctx, input)
	}
}

func isExit(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "exit", "quit":
		return true
	}
	return false
}
