package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// configDir is the configuration directory path
	// Can be set via SetConfigDir before loading config
	configDir     string
	configDirInit bool
)

// SetConfigDir sets a custom configuration directory
// Must be called before any config loading functions
func SetConfigDir(dir string) {
	configDir = dir
	configDirInit = true
}

// GetConfigDir returns the configuration directory
// Priority: 1. Manually set via SetConfigDir, 2. ./config in current directory
func GetConfigDir() string {
	if !configDirInit {
		cwd, err := os.Getwd()
		if err == nil {
			configDir = filepath.Join(cwd, "config")
		}
		configDirInit = true
	}
	return configDir
}

const (
	BackendHTTP      = "http"
	BackendLangChain = "langchain"

	DefaultBaseURL = "https://api.groq.com/openai"
	OpenAIBaseURL  = "https://api.openai.com"
	DefaultModel   = "llama-3.3-70b-versatile"
)

// Config application configuration structure
type Config struct {
	Model     ModelConfig     `yaml:"model"`
	Tools     ToolsConfig     `yaml:"tools"`
	WebSearch WebSearchConfig `yaml:"web_search"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Log       LogConfig       `yaml:"log"`
}

// ModelConfig LLM model configuration
type ModelConfig struct {
	Backend        string  `yaml:"backend"` // "http" | "langchain"
	APIKey         string  `yaml:"api_key"`
	BaseURL        string  `yaml:"base_url"`
	Model          string  `yaml:"model"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// ToolsConfig settings shared by the capability providers
type ToolsConfig struct {
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	UserAgent      string `yaml:"user_agent"`
	GitHubToken    string `yaml:"github_token"`
	GNewsAPIKey    string `yaml:"gnews_api_key"`
	NewsCountry    string `yaml:"news_country"`
	NewsLanguage   string `yaml:"news_language"`
}

// WebSearchConfig web search configuration
type WebSearchConfig struct {
	Provider     string `yaml:"provider"`
	BaseURL      string `yaml:"base_url"`
	APIKey       string `yaml:"api_key"`
	DefaultLimit int    `yaml:"default_limit"`
}

// PipelineConfig orchestration settings
type PipelineConfig struct {
	// StepTimeoutSeconds bounds each tool invocation; 0 disables the bound.
	StepTimeoutSeconds int `yaml:"step_timeout_seconds"`
	// OutputPreviewChars caps per-step output shown on the console.
	OutputPreviewChars int `yaml:"output_preview_chars"`
}

// LogConfig logging configuration
type LogConfig struct {
	Level   string `yaml:"level"`
	Dir     string `yaml:"dir"`
	MaxDays int    `yaml:"max_days"`
	Console bool   `yaml:"console"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Backend:        BackendHTTP,
			APIKey:         "",
			BaseURL:        "",
			Model:          DefaultModel,
			Temperature:    0.2,
			MaxTokens:      2048,
			TimeoutSeconds: 120,
		},
		Tools: ToolsConfig{
			TimeoutSeconds: 15,
			UserAgent:      "OpsMate/0.1",
			NewsCountry:    "in",
			NewsLanguage:   "en",
		},
		WebSearch: WebSearchConfig{
			Provider:     "duckduckgo",
			BaseURL:      "https://api.duckduckgo.com",
			DefaultLimit: 5,
		},
		Pipeline: PipelineConfig{
			StepTimeoutSeconds: 0,
			OutputPreviewChars: 200,
		},
		Log: LogConfig{
			Level:   "info",
			MaxDays: 7,
		},
	}
}

// ConfigDir returns the configuration directory path
func ConfigDir() (string, error) {
	dir := GetConfigDir()
	if dir == "" {
		return "", fmt.Errorf("failed to determine config directory")
	}
	return dir, nil
}

// LogDir returns the log directory path, honouring log.dir when set
func (c *Config) LogDir() string {
	if strings.TrimSpace(c.Log.Dir) != "" {
		return c.Log.Dir
	}
	dir := GetConfigDir()
	if dir == "" {
		return "logs"
	}
	return filepath.Join(dir, "logs")
}

// ConfigPath returns the configuration file path
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load loads configuration from file and merges with secrets
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// First run: persist defaults without any credentials.
		if err := Save(cfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	secrets, err := LoadSecrets()
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets: %w", err)
	}
	cfg.applySecrets(secrets)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applySecrets fills credentials and the model endpoint that the config file left empty.
func (c *Config) applySecrets(s *Secrets) {
	if c.Model.APIKey == "" {
		c.Model.APIKey = s.GetModelAPIKey()
	}
	if c.Model.BaseURL == "" {
		c.Model.BaseURL = s.GetModelBaseURL()
	}
	if c.Model.Model == "llama3-70b-8192" {
		c.Model.Model = DefaultModel
	}
	if c.Tools.GitHubToken == "" {
		c.Tools.GitHubToken = s.GetGitHubToken()
	}
	if c.Tools.GNewsAPIKey == "" {
		c.Tools.GNewsAPIKey = s.GetGNewsAPIKey()
	}
	if c.WebSearch.APIKey == "" {
		c.WebSearch.APIKey = s.GetWebSearchAPIKey()
	}
}

// Save saves configuration to file
func Save(cfg *Config) error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	content := "# OpsMate Configuration File\n# Credentials belong in config/.secrets or the environment.\n\n" + string(data)

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Model.Backend)) {
	case "", BackendHTTP, BackendLangChain:
	default:
		return fmt.Errorf("config error: model.backend must be %q or %q", BackendHTTP, BackendLangChain)
	}
	if c.Model.BaseURL == "" {
		return fmt.Errorf("config error: model.base_url cannot be empty")
	}
	if c.Model.Model == "" {
		return fmt.Errorf("config error: model.model cannot be empty")
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		return fmt.Errorf("config error: model.temperature must be between 0 and 2")
	}
	if c.Model.MaxTokens <= 0 {
		return fmt.Errorf("config error: model.max_tokens must be greater than 0")
	}
	if c.Model.TimeoutSeconds <= 0 {
		return fmt.Errorf("config error: model.timeout_seconds must be greater than 0")
	}

	if c.Tools.TimeoutSeconds <= 0 {
		return fmt.Errorf("config error: tools.timeout_seconds must be greater than 0")
	}

	provider := strings.ToLower(strings.TrimSpace(c.WebSearch.Provider))
	if provider == "searxng" && strings.TrimSpace(c.WebSearch.BaseURL) == "" {
		return fmt.Errorf("config error: web_search.base_url cannot be empty for searxng provider")
	}
	if c.WebSearch.DefaultLimit <= 0 {
		return fmt.Errorf("config error: web_search.default_limit must be greater than 0")
	}

	if c.Pipeline.StepTimeoutSeconds < 0 {
		return fmt.Errorf("config error: pipeline.step_timeout_seconds cannot be negative")
	}
	if c.Pipeline.OutputPreviewChars <= 0 {
		return fmt.Errorf("config error: pipeline.output_preview_chars must be greater than 0")
	}

	return nil
}

// IsAPIKeyConfigured checks if API key is configured
func (c *Config) IsAPIKeyConfigured() bool {
	return c.Model.APIKey != ""
}

// String returns string representation of config (hides sensitive info)
func (c *Config) String() string {
	return fmt.Sprintf(`OpsMate Configuration:
  Model:
    Backend: %s
    API Key: %s
    Base URL: %s
    Model: %s
    Temperature: %.1f
    Max Tokens: %d
    Timeout Seconds: %d
  Tools:
    Timeout Seconds: %d
    User Agent: %s
    GitHub Token: %s
    GNews API Key: %s
  Web Search:
    Provider: %s
    Base URL: %s
    API Key: %s
    Default Limit: %d
  Pipeline:
    Step Timeout Seconds: %d
    Output Preview Chars: %d
  Log:
    Level: %s
    Dir: %s`,
		c.Model.Backend,
		redactAPIKey(c.Model.APIKey),
		c.Model.BaseURL,
		c.Model.Model,
		c.Model.Temperature,
		c.Model.MaxTokens,
		c.Model.TimeoutSeconds,
		c.Tools.TimeoutSeconds,
		c.Tools.UserAgent,
		redactAPIKey(c.Tools.GitHubToken),
		redactAPIKey(c.Tools.GNewsAPIKey),
		c.WebSearch.Provider,
		c.WebSearch.BaseURL,
		redactAPIKey(c.WebSearch.APIKey),
		c.WebSearch.DefaultLimit,
		c.Pipeline.StepTimeoutSeconds,
		c.Pipeline.OutputPreviewChars,
		c.Log.Level,
		c.LogDir(),
	)
}

func redactAPIKey(value string) string {
	if value == "" {
		return "(not configured)"
	}
	if len(value) > 8 {
		return value[:8] + "..."
	}
	return "***"
}
