package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultUserAgent = "OpsMate/0.1"
	defaultTimeout   = 15 * time.Second
	maxResponseBytes = 2 << 20
)

// HTTPOptions are shared by providers that call a JSON HTTP API.
type HTTPOptions struct {
	Client    *http.Client
	UserAgent string
}

// httpDoer performs GET requests with a fixed client and user agent.
type httpDoer struct {
	client    *http.Client
	userAgent string
}

func newHTTPDoer(opts HTTPOptions) httpDoer {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = defaultUserAgent
	}
	return httpDoer{client: client, userAgent: ua}
}

// get fetches url and returns the status code and a size-limited body.
func (d httpDoer) get(ctx context.Context, url string, headers map[string]string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// getJSON fetches url and decodes a 2xx body into out.
// A non-2xx status is returned with a nil error and out left untouched.
func (d httpDoer) getJSON(ctx context.Context, url string, headers map[string]string, out any) (int, []byte, error) {
	status, body, err := d.get(ctx, url, headers)
	if err != nil {
		return status, body, err
	}
	if status < 200 || status >= 300 {
		return status, body, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return status, body, fmt.Errorf("failed to decode response: %w", err)
	}
	return status, body, nil
}

// snippet shortens an upstream error body for inclusion in a result.
func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	runes := []rune(s)
	if len(runes) > 200 {
		s = string(runes[:200]) + "..."
	}
	return s
}
