package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// Secret keys, read from the environment first and then from the .secrets file.
const (
	KeyGroqAPIKey      = "GROQ_API_KEY"
	KeyOpenAIAPIKey    = "OPENAI_API_KEY"
	KeyLLMBaseURL      = "LLM_BASE_URL"
	KeyGNewsAPIKey     = "GNEWS_API_KEY"
	KeyGitHubToken     = "GITHUB_TOKEN"
	KeyWebSearchAPIKey = "WEB_SEARCH_API_KEY"
)

// placeholder values shipped in sample env files
var placeholders = map[string]bool{
	"optional_github_token_here": true,
	"your_api_key_here":          true,
}

// Secrets sensitive configuration loaded from the .secrets file and the environment
type Secrets struct {
	values map[string]string
	getenv func(string) string
}

// NewSecrets creates a new Secrets instance backed by the process environment
func NewSecrets() *Secrets {
	return &Secrets{
		values: make(map[string]string),
		getenv: os.Getenv,
	}
}

// SecretsPath returns the secrets file path
func SecretsPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".secrets"), nil
}

// LoadSecrets loads secrets from the .secrets file. A missing file is not an error.
func LoadSecrets() (*Secrets, error) {
	secrets := NewSecrets()

	secretsPath, err := SecretsPath()
	if err != nil {
		return secrets, nil
	}

	file, err := os.Open(secretsPath)
	if os.IsNotExist(err) {
		return secrets, nil
	}
	if err != nil {
		return secrets, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)
			secrets.values[key] = value
		}
	}

	return secrets, scanner.Err()
}

// Get returns the value for a key; the environment wins over the file
func (s *Secrets) Get(key string) string {
	if s == nil {
		return ""
	}
	var value string
	if s.getenv != nil {
		value = strings.TrimSpace(s.getenv(key))
	}
	if value == "" && s.values != nil {
		value = s.values[key]
	}
	if placeholders[value] {
		return ""
	}
	return value
}

// GetOrDefault returns the value for a key, or the default value if not found
func (s *Secrets) GetOrDefault(key, defaultValue string) string {
	if value := s.Get(key); value != "" {
		return value
	}
	return defaultValue
}

// Has checks if a key has a usable value
func (s *Secrets) Has(key string) bool {
	return s.Get(key) != ""
}

// GetModelAPIKey returns the Groq key, falling back to the OpenAI key
func (s *Secrets) GetModelAPIKey() string {
	return s.GetOrDefault(KeyGroqAPIKey, s.Get(KeyOpenAIAPIKey))
}

// GetModelBaseURL resolves the chat-completions base URL:
// LLM_BASE_URL, then Groq when its key is present, then OpenAI when only its key is present.
func (s *Secrets) GetModelBaseURL() string {
	if u := s.Get(KeyLLMBaseURL); u != "" {
		return u
	}
	if s.Has(KeyGroqAPIKey) {
		return DefaultBaseURL
	}
	if s.Has(KeyOpenAIAPIKey) {
		return OpenAIBaseURL
	}
	return DefaultBaseURL
}

// GetGNewsAPIKey returns the GNews API key
func (s *Secrets) GetGNewsAPIKey() string {
	return s.Get(KeyGNewsAPIKey)
}

// GetGitHubToken returns the GitHub token used to lift search rate limits
func (s *Secrets) GetGitHubToken() string {
	return s.Get(KeyGitHubToken)
}

// GetWebSearchAPIKey returns the Web Search API key from secrets
func (s *Secrets) GetWebSearchAPIKey() string {
	return s.Get(KeyWebSearchAPIKey)
}
