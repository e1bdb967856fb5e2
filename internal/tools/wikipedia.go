package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

const summarySentences = 3

// WikipediaTool looks up the best-matching article and returns its opening sentences.
type WikipediaTool struct {
	http    httpDoer
	baseURL string
}

// NewWikipediaTool creates a Wikipedia tool
func NewWikipediaTool(opts HTTPOptions) *WikipediaTool {
	return &WikipediaTool{
		http:    newHTTPDoer(opts),
		baseURL: "https://en.wikipedia.org",
	}
}

func (t *WikipediaTool) Name() string {
	return "wikipedia_tool"
}

func (t *WikipediaTool) Description() string {
	return "Searches Wikipedia for a summary of a topic. Args: query (str)"
}

func (t *WikipediaTool) Parameters() []ParameterDef {
	return []ParameterDef{
		{
			Name:        "query",
			Type:        "string",
			Description: "The topic to search for on Wikipedia",
			Required:    true,
		},
	}
}

type wikiSearchResponse struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

type wikiSummaryResponse struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Extract string `json:"extract"`
}

func (t *WikipediaTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	query := stringArg(args, "query")
	if query == "" {
		return "", fmt.Errorf("missing required parameter: query")
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", query)
	params.Set("srlimit", "10")
	params.Set("format", "json")

	var search wikiSearchResponse
	status, body, err := t.http.getJSON(ctx, t.baseURL+"/w/api.php?"+params.Encode(), nil, &search)
	if err != nil {
		return "", fmt.Errorf("wikipedia search failed: %w", err)
	}
	if status != 200 {
		return fmt.Sprintf("Error searching Wikipedia: %d - %s", status, snippet(body)), nil
	}
	if len(search.Query.Search) == 0 {
		return fmt.Sprintf("No Wikipedia results found for: %s", query), nil
	}

	title := search.Query.Search[0].Title
	summaryURL := t.baseURL + "/api/rest_v1/page/summary/" + url.PathEscape(strings.ReplaceAll(title, " ", "_"))

	var summary wikiSummaryResponse
	status, body, err = t.http.getJSON(ctx, summaryURL, nil, &summary)
	if err != nil {
		return "", fmt.Errorf("wikipedia summary failed: %w", err)
	}
	switch {
	case status == 404:
		return fmt.Sprintf("Wikipedia page not found for: %s", query), nil
	case status != 200:
		return fmt.Sprintf("Error fetching Wikipedia summary: %d - %s", status, snippet(body)), nil
	}

	if summary.Type == "disambiguation" {
		options := make([]string, 0, 5)
		for _, r := range search.Query.Search[1:] {
			if len(options) == 5 {
				break
			}
			options = append(options, r.Title)
		}
		return fmt.Sprintf("Wikipedia query is ambiguous. Possible options: %s", strings.Join(options, ", ")), nil
	}
	if strings.TrimSpace(summary.Extract) == "" {
		return fmt.Sprintf("Wikipedia page not found for: %s", query), nil
	}

	return fmt.Sprintf("Wikipedia Summary for '%s':\n%s", title, firstSentences(summary.Extract, summarySentences)), nil
}

// firstSentences returns the first n sentences of text.
// A sentence ends at '.', '!' or '?' followed by whitespace or end of text.
func firstSentences(text string, n int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	count := 0
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		count++
		if count == n {
			return string(runes[:i+1])
		}
	}
	return text
}
