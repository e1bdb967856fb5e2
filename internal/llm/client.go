package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hession/opsmate/internal/logger"
)

// EmptyJSON is returned by every backend when a completion cannot be obtained.
// It parses as a valid, semantically empty object.
const EmptyJSON = "{}"

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message message structure
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer sends role-tagged messages to a language model and returns the raw completion.
//
// Complete never fails: transport and backend errors are logged and reported as EmptyJSON.
// With structured set, the backend is asked for a single JSON object and any
// surrounding code fence is removed from the returned text.
type Completer interface {
	Complete(ctx context.Context, messages []Message, structured bool) string
}

// Client OpenAI-compatible chat-completions client
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
}

type responseFormat struct {
	Type string `json:"type"`
}

// chatRequest chat request
type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

// chatResponse API response
type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int     `json:"index"`
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error,omitempty"`
}

// New creates a new LLM client
func New(apiKey, baseURL, model string, temperature float64, maxTokens int, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		apiKey:      apiKey,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		model:       ResolveModel(model),
		temperature: temperature,
		maxTokens:   maxTokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ResolveModel maps retired model ids to their replacements.
func ResolveModel(model string) string {
	if model == "llama3-70b-8192" {
		return "llama-3.3-70b-versatile"
	}
	return model
}

// APIBase returns the versioned API root ("…/v1") for a configured base URL.
func APIBase(baseURL string) string {
	base := strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if strings.HasSuffix(base, "/v1") {
		return base
	}
	return base + "/v1"
}

// Complete implements Completer.
func (c *Client) Complete(ctx context.Context, messages []Message, structured bool) string {
	start := time.Now()
	content, err := c.chat(ctx, messages, structured)
	if err != nil {
		logger.L().Error().Err(err).
			Str("model", c.model).
			Bool("structured", structured).
			Msg("llm call failed")
		return EmptyJSON
	}
	logger.L().Debug().
		Str("model", c.model).
		Dur("elapsed", time.Since(start)).
		Int("chars", len(content)).
		Msg("llm call completed")
	return finalize(content, structured)
}

// chat internal chat implementation
func (c *Client) chat(ctx context.Context, messages []Message, structured bool) (string, error) {
	reqBody := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	if structured {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to serialize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, APIBase(c.baseURL)+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("API returned error (status %d): %s", resp.StatusCode, string(body))
	}

	return c.handleResponse(resp.Body)
}

// handleResponse handles normal response
func (c *Client) handleResponse(body io.Reader) (string, error) {
	var resp chatResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Error != nil {
		return "", fmt.Errorf("API error: %s", resp.Error.Message)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("API returned empty response")
	}

	return resp.Choices[0].Message.Content, nil
}

// finalize applies the structured-mode post-processing shared by all backends.
func finalize(content string, structured bool) string {
	if !structured {
		return content
	}
	content = StripCodeFence(content)
	if content == "" {
		return EmptyJSON
	}
	return content
}

// StripCodeFence removes a leading ``` / ```json marker and a trailing ``` marker.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		// language tag, e.g. ```json
		if i := strings.IndexAny(s, "\n{["); i >= 0 {
			tag := strings.TrimSpace(s[:i])
			if !strings.ContainsAny(tag, " \t") {
				s = s[i:]
			}
		} else {
			s = strings.TrimPrefix(s, "json")
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
