package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hession/opsmate/internal/cli"
	"github.com/hession/opsmate/internal/config"
	"github.com/hession/opsmate/internal/logger"
	"github.com/hession/opsmate/internal/tools"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Close()
		os.Exit(1)
	}
	logger.Close()
}

func newRootCmd() *cobra.Command {
	var configDir string

	rootCmd := &cobra.Command{
		Use:   "opsmate [query...]",
		Short: "OpsMate - AI Operations Assistant",
		Long: `OpsMate turns a natural-language task into a plan of tool calls,
runs them, and verifies the results into a final answer.

Tools:
  • Weather (Open-Meteo)
  • GitHub repository search
  • News (GNews)
  • Wikipedia
  • Stock quotes (NSE/BSE and more)
  • Web search (DuckDuckGo or SearXNG)

With a query it answers once; without one it starts an interactive session.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if configDir != "" {
				config.SetConfigDir(configDir)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return cli.Run(cfg, strings.Join(args, " "))
		},
	}
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ./config)")

	// config subcommand
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cfg.String())

			path, _ := config.ConfigPath()
			fmt.Fprintf(out, "\nConfig file path: %s\n", path)
			return nil
		},
	}

	// tools subcommand
	toolsCmd := &cobra.Command{
		Use:   "tools",
		Short: "List available tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			registry, err := tools.NewDefaultRegistry(cfg)
			if err != nil {
				return err
			}
			printTools(cmd.OutOrStdout(), registry)
			return nil
		},
	}

	// version subcommand
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "OpsMate v%s\n", version)
		},
	}

	rootCmd.AddCommand(configCmd, toolsCmd, versionCmd)
	return rootCmd
}

// loadConfig loads configuration and starts file logging
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(logger.Config{
		LogDir:     cfg.LogDir(),
		Level:      logger.ParseLevel(cfg.Log.Level),
		MaxDays:    cfg.Log.MaxDays,
		ConsoleOut: cfg.Log.Console,
	}); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logConfigInfo(cfg)
	return cfg, nil
}

// logConfigInfo records the effective configuration without credentials
func logConfigInfo(cfg *config.Config) {
	logger.L().Info().
		Str("backend", cfg.Model.Backend).
		Str("base_url", cfg.Model.BaseURL).
		Str("model", cfg.Model.Model).
		Bool("api_key_set", cfg.IsAPIKeyConfigured()).
		Float64("temperature", cfg.Model.Temperature).
		Int("max_tokens", cfg.Model.MaxTokens).
		Str("web_search", cfg.WebSearch.Provider).
		Int("step_timeout_seconds", cfg.Pipeline.StepTimeoutSeconds).
		Msg("configuration loaded")
}

func printTools(out io.Writer, registry *tools.Registry) {
	for _, tool := range registry.List() {
		fmt.Fprintf(out, "%-16s %s\n", tool.Name(), tool.Description())
	}
}
