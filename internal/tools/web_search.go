package tools

import (
	"context"
	"fmt"

	"github.com/hession/opsmate/internal/websearch"
)

// WebSearchTool searches the web using a configured provider.
type WebSearchTool struct {
	provider     websearch.Provider
	defaultLimit int
}

// NewWebSearchTool creates a web search tool over provider.
func NewWebSearchTool(provider websearch.Provider, defaultLimit int) *WebSearchTool {
	if defaultLimit <= 0 {
		defaultLimit = 5
	}
	return &WebSearchTool{
		provider:     provider,
		defaultLimit: defaultLimit,
	}
}

func (t *WebSearchTool) Name() string {
	return "web_search_tool"
}

func (t *WebSearchTool) Description() string {
	return "Searches the web for general information not covered by the other tools and returns a list of sources. Args: query (str), limit (optional int)"
}

func (t *WebSearchTool) Parameters() []ParameterDef {
	return []ParameterDef{
		{
			Name:        "query",
			Type:        "string",
			Description: "Search query",
			Required:    true,
		},
		{
			Name:        "limit",
			Type:        "integer",
			Description: "Number of results to return (default from config)",
		},
	}
}

func (t *WebSearchTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	query := stringArg(args, "query")
	if query == "" {
		return "", fmt.Errorf("missing required parameter: query")
	}

	limit := intArg(args, "limit", t.defaultLimit)
	if limit <= 0 {
		limit = t.defaultLimit
	}

	resp, err := t.provider.Search(ctx, query, limit)
	if err != nil {
		return "", err
	}
	return resp.Format(), nil
}
