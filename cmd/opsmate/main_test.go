package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hession/opsmate/internal/config"
	"github.com/hession/opsmate/internal/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogConfigInfo(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Model.APIKey = "test-api-key-12345"
	cfg.Model.BaseURL = "https://api.test.com"

	// Should not panic
	logConfigInfo(cfg)
}

func TestLogConfigInfo_EmptyAPIKey(t *testing.T) {
	cfg := config.DefaultConfig()

	// Should not panic
	logConfigInfo(cfg)
}

func TestVersion(t *testing.T) {
	assert.Equal(t, "0.1.0", version)
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestVersionCommand(t *testing.T) {
	assert.Equal(t, "OpsMate v0.1.0\n", execute(t, "version"))
}

func TestToolsCommand(t *testing.T) {
	out := execute(t, "--config-dir", t.TempDir(), "tools")

	for _, name := range []string{"weather_tool", "github_tool", "news_tool", "wikipedia_tool", "stock_tool", "web_search_tool"} {
		assert.Contains(t, out, name)
	}
}

func TestConfigCommand(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk-secret-value-123456")
	dir := t.TempDir()

	out := execute(t, "--config-dir", dir, "config")

	assert.NotContains(t, out, "gsk-secret-value-123456")
	assert.Contains(t, out, "Config file path: ")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "config.yaml"))
}

func TestPrintTools(t *testing.T) {
	registry, err := tools.NewDefaultRegistry(config.DefaultConfig())
	require.NoError(t, err)

	var out bytes.Buffer
	printTools(&out, registry)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, registry.Len())
	assert.True(t, strings.HasPrefix(lines[0], "weather_tool "))
}
