package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DuckDuckGoProvider uses the DuckDuckGo instant answer API.
// It returns abstracts and related topics rather than a full result page.
type DuckDuckGoProvider struct {
	client
}

func NewDuckDuckGoProvider(baseURL, userAgent string, timeout time.Duration) *DuckDuckGoProvider {
	return &DuckDuckGoProvider{client: newClient(baseURL, "https://api.duckduckgo.com", userAgent, timeout)}
}

func (p *DuckDuckGoProvider) Name() string {
	return "duckduckgo"
}

type ddgTopic struct {
	Text     string     `json:"Text"`
	FirstURL string     `json:"FirstURL"`
	Topics   []ddgTopic `json:"Topics"`
}

type ddgResponse struct {
	Heading       string     `json:"Heading"`
	AbstractText  string     `json:"AbstractText"`
	AbstractURL   string     `json:"AbstractURL"`
	Answer        string     `json:"Answer"`
	Results       []ddgTopic `json:"Results"`
	RelatedTopics []ddgTopic `json:"RelatedTopics"`
}

func (p *DuckDuckGoProvider) Search(ctx context.Context, query string, limit int) (Response, error) {
	query, limit, err := normalize(query, limit)
	if err != nil {
		return Response{}, err
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")

	resp, err := p.do(ctx, p.baseURL+"/?"+params.Encode())
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	var payload ddgResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Response{}, fmt.Errorf("failed to decode response: %w", err)
	}

	c := collector{limit: limit, source: p.Name(), seen: make(map[string]bool)}
	if payload.AbstractText != "" {
		title := payload.Heading
		if title == "" {
			title = payload.AbstractText
		}
		c.add(title, payload.AbstractURL, payload.AbstractText)
	}
	c.walk(payload.Results)
	c.walk(payload.RelatedTopics)

	return Response{Query: query, Provider: p.Name(), Results: c.results}, nil
}

// collector accumulates unique results up to a limit.
type collector struct {
	limit   int
	source  string
	seen    map[string]bool
	results []Result
}

func (c *collector) full() bool {
	return len(c.results) >= c.limit
}

func (c *collector) add(title, link, text string) {
	link = strings.TrimSpace(link)
	if c.full() || link == "" || c.seen[link] {
		return
	}
	c.seen[link] = true
	c.results = append(c.results, Result{
		Title:   strings.TrimSpace(title),
		URL:     link,
		Snippet: strings.TrimSpace(text),
		Source:  c.source,
	})
}

// walk flattens nested topic groups depth-first.
func (c *collector) walk(topics []ddgTopic) {
	for _, topic := range topics {
		if c.full() {
			return
		}
		if len(topic.Topics) > 0 {
			c.walk(topic.Topics)
			continue
		}
		c.add(topic.Text, topic.FirstURL, topic.Text)
	}
}
