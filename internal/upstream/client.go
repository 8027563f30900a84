// Package upstream provides the HTTP client for the NFT data provider
// (UnleashNFTs / bitsCrunch API).
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chord233/nft-smart-assistant/internal/config"
	"github.com/chord233/nft-smart-assistant/internal/observability/metrics"
)

// StatusError is returned when the provider responds with a non-2xx status.
// It preserves the upstream status code and message for logging; callers
// must not echo Message to end users outside the raw-data panel.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream returned HTTP %d: %s", e.StatusCode, e.Message)
}

// Getter is the interface consumed by the relay domains.
type Getter interface {
	Get(ctx context.Context, path string, params url.Values) (json.RawMessage, error)
}

// Client issues authenticated GET calls against the provider. It applies a
// fixed per-call timeout and performs no retries and no caching.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a provider client from configuration.
func New(cfg config.UpstreamConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Get issues a GET request to the given provider path with the given query
// parameters and returns the raw response body. The body is returned
// untouched so callers can preserve it byte-for-byte.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	endpoint := endpointLabel(path)

	u := c.baseURL + "/" + strings.TrimPrefix(path, "/")
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building upstream request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(endpoint, "error")
		return nil, fmt.Errorf("calling upstream: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordUpstreamRequest(endpoint, "error")
		return nil, fmt.Errorf("reading upstream response: %w", err)
	}

	metrics.RecordUpstreamRequest(endpoint, fmt.Sprintf("%d", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Message:    extractMessage(body),
		}
	}

	return json.RawMessage(body), nil
}

// extractMessage pulls a human-readable message out of an error body.
// The provider is not consistent: some errors come as {"error": {...}},
// some as {"message": ...}, some as plain text.
func extractMessage(body []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Error.Message != "" {
			return envelope.Error.Message
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

// endpointLabel reduces a provider path to its first segment to keep
// metric label cardinality bounded.
func endpointLabel(path string) string {
	path = strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(path, '/'); i > 0 {
		return path[:i]
	}
	return path
}
