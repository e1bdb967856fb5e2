package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// GitHubTool searches GitHub repositories, most starred first.
type GitHubTool struct {
	http    httpDoer
	token   string
	baseURL string
}

// NewGitHubTool creates a GitHub search tool. token may be empty.
func NewGitHubTool(opts HTTPOptions, token string) *GitHubTool {
	return &GitHubTool{
		http:    newHTTPDoer(opts),
		token:   strings.TrimSpace(token),
		baseURL: "https://api.github.com",
	}
}

func (t *GitHubTool) Name() string {
	return "github_tool"
}

func (t *GitHubTool) Description() string {
	return "Searches for GitHub repositories and returns details (stars, description). Args: query (str)"
}

func (t *GitHubTool) Parameters() []ParameterDef {
	return []ParameterDef{
		{
			Name:        "query",
			Type:        "string",
			Description: "The search query for repositories",
			Required:    true,
		},
	}
}

type githubSearchResponse struct {
	Items []struct {
		FullName    string  `json:"full_name"`
		Stars       int     `json:"stargazers_count"`
		Description *string `json:"description"`
		HTMLURL     string  `json:"html_url"`
	} `json:"items"`
}

func (t *GitHubTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	query := stringArg(args, "query")
	if query == "" {
		return "", fmt.Errorf("missing required parameter: query")
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("sort", "stars")
	params.Set("order", "desc")
	params.Set("per_page", "3")

	headers := map[string]string{"Accept": "application/vnd.github.v3+json"}
	if t.token != "" {
		headers["Authorization"] = "token " + t.token
	}

	var payload githubSearchResponse
	status, body, err := t.http.getJSON(ctx, t.baseURL+"/search/repositories?"+params.Encode(), headers, &payload)
	if err != nil {
		return "", fmt.Errorf("github search failed: %w", err)
	}
	if status != 200 {
		return fmt.Sprintf("Error searching GitHub: %d - %s", status, snippet(body)), nil
	}
	if len(payload.Items) == 0 {
		return fmt.Sprintf("No repositories found for query: %s", query), nil
	}

	repos := make([]string, 0, len(payload.Items))
	for _, item := range payload.Items {
		desc := "None"
		if item.Description != nil {
			desc = *item.Description
		}
		repos = append(repos, fmt.Sprintf("Name: %s\nStars: %d\nDescription: %s\nURL: %s\n",
			item.FullName, item.Stars, desc, item.HTMLURL))
	}
	return strings.Join(repos, "\n---\n"), nil
}
