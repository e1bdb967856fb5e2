package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearCredentialEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		KeyGroqAPIKey, KeyOpenAIAPIKey, KeyLLMBaseURL,
		KeyGNewsAPIKey, KeyGitHubToken, KeyWebSearchAPIKey,
	} {
		t.Setenv(key, "")
	}
}

func secretsFrom(file map[string]string, env map[string]string) *Secrets {
	return &Secrets{
		values: file,
		getenv: func(k string) string { return env[k] },
	}
}

func TestSecrets_EnvironmentWins(t *testing.T) {
	s := secretsFrom(
		map[string]string{KeyGNewsAPIKey: "from-file"},
		map[string]string{KeyGNewsAPIKey: "from-env"},
	)
	assert.Equal(t, "from-env", s.GetGNewsAPIKey())

	s = secretsFrom(map[string]string{KeyGNewsAPIKey: "from-file"}, nil)
	assert.Equal(t, "from-file", s.GetGNewsAPIKey())
}

func TestSecrets_Placeholders(t *testing.T) {
	s := secretsFrom(map[string]string{KeyGitHubToken: "optional_github_token_here"}, nil)
	assert.Empty(t, s.GetGitHubToken())
	assert.False(t, s.Has(KeyGitHubToken))
}

func TestSecrets_ModelEndpointResolution(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantKey string
		wantURL string
	}{
		{
			name:    "groq key",
			env:     map[string]string{KeyGroqAPIKey: "gsk"},
			wantKey: "gsk",
			wantURL: DefaultBaseURL,
		},
		{
			name:    "openai key only",
			env:     map[string]string{KeyOpenAIAPIKey: "sk"},
			wantKey: "sk",
			wantURL: OpenAIBaseURL,
		},
		{
			name:    "both keys prefer groq",
			env:     map[string]string{KeyGroqAPIKey: "gsk", KeyOpenAIAPIKey: "sk"},
			wantKey: "gsk",
			wantURL: DefaultBaseURL,
		},
		{
			name:    "explicit base url",
			env:     map[string]string{KeyOpenAIAPIKey: "sk", KeyLLMBaseURL: "http://localhost:11434"},
			wantKey: "sk",
			wantURL: "http://localhost:11434",
		},
		{
			name:    "nothing configured",
			env:     nil,
			wantKey: "",
			wantURL: DefaultBaseURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := secretsFrom(nil, tt.env)
			assert.Equal(t, tt.wantKey, s.GetModelAPIKey())
			assert.Equal(t, tt.wantURL, s.GetModelBaseURL())
		})
	}
}

func TestLoadSecrets_ParsesFile(t *testing.T) {
	clearCredentialEnv(t)
	dir := t.TempDir()
	SetConfigDir(dir)
	content := "# comment\n\nexport GITHUB_TOKEN=ghp_abc\nWEB_SEARCH_API_KEY = 'xyz'\nmalformed line\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".secrets"), []byte(content), 0600))

	s, err := LoadSecrets()
	require.NoError(t, err)
	assert.Equal(t, "ghp_abc", s.GetGitHubToken())
	assert.Equal(t, "xyz", s.GetWebSearchAPIKey())
	assert.False(t, s.Has("malformed line"))
}

func TestLoadSecrets_MissingFile(t *testing.T) {
	clearCredentialEnv(t)
	SetConfigDir(t.TempDir())

	s, err := LoadSecrets()
	require.NoError(t, err)
	assert.Empty(t, s.GetModelAPIKey())
}

func TestNilSecrets(t *testing.T) {
	var s *Secrets
	assert.Empty(t, s.Get(KeyGroqAPIKey))
	assert.Equal(t, "d", s.GetOrDefault(KeyGroqAPIKey, "d"))
}

func TestPromptConfig(t *testing.T) {
	dir := t.TempDir()
	SetConfigDir(dir)

	p, err := LoadPromptConfig()
	require.NoError(t, err)
	assert.Contains(t, p.GetPrompts().Planner, "Planner Agent")
	assert.Contains(t, p.GetPrompts().Verifier, "Verifier Agent")

	yamlContent := "language: fr\nprompts:\n  fr:\n    planner: \"Tu es un planificateur.\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prompt.yaml"), []byte(yamlContent), 0644))

	p, err = LoadPromptConfig()
	require.NoError(t, err)
	assert.Equal(t, "Tu es un planificateur.", p.GetPrompts().Planner)
	assert.Contains(t, p.GetPrompts().Verifier, "Verifier Agent", "missing entries fall back to English")
}
