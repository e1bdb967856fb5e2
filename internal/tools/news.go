package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// NewsSettings configures the GNews provider
type NewsSettings struct {
	APIKey   string
	Country  string
	Language string
}

// NewsTool fetches headlines from GNews.
type NewsTool struct {
	http     httpDoer
	settings NewsSettings
	baseURL  string
}

// NewNewsTool creates a news tool
func NewNewsTool(opts HTTPOptions, settings NewsSettings) *NewsTool {
	if strings.TrimSpace(settings.Country) == "" {
		settings.Country = "in"
	}
	if strings.TrimSpace(settings.Language) == "" {
		settings.Language = "en"
	}
	settings.APIKey = strings.TrimSpace(settings.APIKey)
	return &NewsTool{
		http:     newHTTPDoer(opts),
		settings: settings,
		baseURL:  "https://gnews.io/api/v4",
	}
}

func (t *NewsTool) Name() string {
	return "news_tool"
}

func (t *NewsTool) Description() string {
	return "Fetches top news from India (GNews). Args: query (optional str), count (int, default 5)"
}

func (t *NewsTool) Parameters() []ParameterDef {
	return []ParameterDef{
		{
			Name:        "query",
			Type:        "string",
			Description: "Specific topic to search for (optional)",
		},
		{
			Name:        "count",
			Type:        "integer",
			Description: "Number of stories (default 5)",
		},
	}
}

type gnewsResponse struct {
	Articles []struct {
		Title  string `json:"title"`
		URL    string `json:"url"`
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

func (t *NewsTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	if t.settings.APIKey == "" {
		return "Error: GNEWS_API_KEY is not configured", nil
	}

	query := stringArg(args, "query")
	count := intArg(args, "count", 5)
	if count <= 0 {
		count = 5
	}

	params := url.Values{}
	params.Set("token", t.settings.APIKey)
	params.Set("lang", t.settings.Language)
	params.Set("max", strconv.Itoa(count))

	endpoint := t.baseURL + "/top-headlines"
	if query != "" {
		endpoint = t.baseURL + "/search"
		params.Set("q", query)
	} else {
		params.Set("country", t.settings.Country)
	}

	var payload gnewsResponse
	status, body, err := t.http.getJSON(ctx, endpoint+"?"+params.Encode(), nil, &payload)
	if err != nil {
		return "", fmt.Errorf("news request failed: %w", err)
	}
	if status != 200 {
		return fmt.Sprintf("Error from GNews API: %s", gnewsErrors(body)), nil
	}
	if len(payload.Articles) == 0 {
		return "No news found.", nil
	}

	lines := make([]string, 0, len(payload.Articles))
	for _, art := range payload.Articles {
		source := art.Source.Name
		if source == "" {
			source = "Unknown"
		}
		lines = append(lines, fmt.Sprintf("- [%s] %s (%s)", source, art.Title, art.URL))
	}
	return strings.Join(lines, "\n"), nil
}

// gnewsErrors extracts the "errors" field GNews sends on failure.
func gnewsErrors(body []byte) string {
	var e struct {
		Errors any `json:"errors"`
	}
	if err := json.Unmarshal(body, &e); err != nil || e.Errors == nil {
		return "Unknown error"
	}
	switch v := e.Errors.(type) {
	case string:
		return v
	case []any:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, "; ")
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}
