package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// SearXNGProvider queries a SearXNG instance's JSON API.
type SearXNGProvider struct {
	client
	apiKey string
}

func NewSearXNGProvider(baseURL, userAgent, apiKey string, timeout time.Duration) *SearXNGProvider {
	return &SearXNGProvider{
		client: newClient(baseURL, "http://localhost:8080", userAgent, timeout),
		apiKey: strings.TrimSpace(apiKey),
	}
}

func (p *SearXNGProvider) Name() string {
	return "searxng"
}

type searxngResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

func (p *SearXNGProvider) Search(ctx context.Context, query string, limit int) (Response, error) {
	query, limit, err := normalize(query, limit)
	if err != nil {
		return Response{}, err
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("categories", "general")
	params.Set("language", "auto")
	params.Set("safesearch", "1")
	params.Set("count", strconv.Itoa(limit))
	if p.apiKey != "" {
		params.Set("apikey", p.apiKey)
	}

	resp, err := p.do(ctx, p.baseURL+"/search?"+params.Encode())
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	var payload searxngResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Response{}, fmt.Errorf("failed to decode response: %w", err)
	}

	results := make([]Result, 0, limit)
	for _, res := range payload.Results {
		if len(results) >= limit {
			break
		}
		results = append(results, Result{
			Title:   strings.TrimSpace(res.Title),
			URL:     strings.TrimSpace(res.URL),
			Snippet: strings.TrimSpace(res.Content),
			Source:  p.Name(),
		})
	}

	return Response{Query: query, Provider: p.Name(), Results: results}, nil
}
