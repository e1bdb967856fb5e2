package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PromptConfig prompt configuration structure
type PromptConfig struct {
	Language string                     `yaml:"language"`
	Prompts  map[string]LanguagePrompts `yaml:"prompts"`
}

// LanguagePrompts role instructions for a specific language.
// The JSON output contracts are appended by the agent and are not configurable.
type LanguagePrompts struct {
	Planner  string `yaml:"planner"`
	Verifier string `yaml:"verifier"`
}

// DefaultPromptConfig returns default prompt configuration
func DefaultPromptConfig() *PromptConfig {
	return &PromptConfig{
		Language: "en",
		Prompts: map[string]LanguagePrompts{
			"en": {
				Planner: "You are a Planner Agent. Your job is to break down the user's task into a step-by-step plan.",
				Verifier: `You are the Verifier Agent.
Review the execution results against the original query.
Synthesize a final natural language answer.`,
			},
		},
	}
}

// PromptConfigPath returns the prompt config file path
func PromptConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "prompt.yaml"), nil
}

// LoadPromptConfig loads prompt configuration from file, defaulting when absent
func LoadPromptConfig() (*PromptConfig, error) {
	configPath, err := PromptConfigPath()
	if err != nil {
		return DefaultPromptConfig(), nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultPromptConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt config: %w", err)
	}

	cfg := DefaultPromptConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse prompt config: %w", err)
	}

	return cfg, nil
}

// GetPrompts returns prompts for the configured language, filling gaps from English
func (p *PromptConfig) GetPrompts() LanguagePrompts {
	defaults := DefaultPromptConfig().Prompts["en"]
	prompts, ok := p.Prompts[p.Language]
	if !ok {
		prompts = p.Prompts["en"]
	}
	if prompts.Planner == "" {
		prompts.Planner = defaults.Planner
	}
	if prompts.Verifier == "" {
		prompts.Verifier = defaults.Verifier
	}
	return prompts
}
