// Package websearch queries public search backends and normalizes their results.
package websearch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	defaultUserAgent = "OpsMate/0.1"
	defaultTimeout   = 15 * time.Second
	defaultLimit     = 5
)

// Result is a single search result entry.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Source  string `json:"source"`
}

// Response is a normalized search response.
type Response struct {
	Query    string   `json:"query"`
	Provider string   `json:"provider"`
	Results  []Result `json:"results"`
}

// Format renders the response as numbered plain-text entries.
func (r Response) Format() string {
	if len(r.Results) == 0 {
		return fmt.Sprintf("No web results found for: %s", r.Query)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Web results for '%s' (%s):", r.Query, r.Provider)
	for i, res := range r.Results {
		fmt.Fprintf(&sb, "\n%d. %s\n   %s", i+1, res.Title, res.URL)
		if res.Snippet != "" && res.Snippet != res.Title {
			fmt.Fprintf(&sb, "\n   %s", res.Snippet)
		}
	}
	return sb.String()
}

// Provider performs web searches.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, limit int) (Response, error)
}

// Options selects and configures a provider.
type Options struct {
	Provider  string // "duckduckgo" (default, alias "ddg") or "searxng"
	BaseURL   string
	APIKey    string
	UserAgent string
	Timeout   time.Duration
}

// New creates the provider named in opts, falling back to DuckDuckGo.
func New(opts Options) Provider {
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "searxng":
		return NewSearXNGProvider(opts.BaseURL, opts.UserAgent, opts.APIKey, opts.Timeout)
	default:
		return NewDuckDuckGoProvider(opts.BaseURL, opts.UserAgent, opts.Timeout)
	}
}

// client holds what every backend needs to issue a request.
type client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

func newClient(baseURL, fallbackURL, userAgent string, timeout time.Duration) client {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = fallbackURL
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = defaultUserAgent
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		http:      &http.Client{Timeout: timeout},
	}
}

func (c client) do(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("search request failed with status %d", resp.StatusCode)
	}
	return resp, nil
}

func normalize(query string, limit int) (string, int, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", 0, fmt.Errorf("query cannot be empty")
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	return query, limit, nil
}
