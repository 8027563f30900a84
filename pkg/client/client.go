// Package client provides a Go client for the NFT smart assistant API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Client is an NFT smart assistant API client
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// New creates a new assistant API client. The relay requires no
// authentication; the provider API key lives server-side.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// RiskSummary is the normalized risk verdict the relay derives from the
// provider payload.
type RiskSummary struct {
	OverallRiskScore          float64  `json:"overall_risk_score"`
	RiskPercent               float64  `json:"risk_percent"`
	RiskTier                  string   `json:"risk_tier"`
	WashTradingDetected       bool     `json:"wash_trading_detected"`
	FakeCollectionProbability float64  `json:"fake_collection_probability"`
	RugPullRisk               string   `json:"rugpull_risk"`
	Summary                   string   `json:"summary"`
	Recommendations           []string `json:"recommendations"`
}

// RiskReport is the response for the single-capability risk endpoints
type RiskReport struct {
	RequestID string          `json:"request_id"`
	Chain     string          `json:"chain"`
	Address   string          `json:"address"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
}

// ComprehensiveReport is the response for the comprehensive risk endpoint
type ComprehensiveReport struct {
	RequestID     string                     `json:"request_id"`
	Chain         string                     `json:"chain"`
	Address       string                     `json:"address"`
	Sections      map[string]json.RawMessage `json:"sections"`
	Summary       *RiskSummary               `json:"summary"`
	PartialErrors map[string]string          `json:"partial_errors,omitempty"`
	Timestamp     string                     `json:"timestamp"`
}

// MarketData is the response for the market metric endpoints
type MarketData struct {
	RequestID string            `json:"request_id"`
	Chain     string            `json:"chain"`
	Metrics   string            `json:"metrics,omitempty"`
	Metric    string            `json:"metric,omitempty"`
	TimeRange string            `json:"time_range"`
	Currency  string            `json:"currency"`
	Data      json.RawMessage   `json:"data"`
	Errors    map[string]string `json:"errors,omitempty"`
	Timestamp string            `json:"timestamp"`
}

// Blockchains is the response for the blockchain listing endpoint
type Blockchains struct {
	RequestID string          `json:"request_id"`
	SortBy    string          `json:"sort_by"`
	Offset    int             `json:"offset"`
	Limit     int             `json:"limit"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
}

// Health is the response for the health endpoint
type Health struct {
	Status          string   `json:"status"`
	Timestamp       string   `json:"timestamp"`
	SupportedChains []string `json:"supported_chains"`
}

// Chains is the response for the chain listing endpoint
type Chains struct {
	SupportedChains []string `json:"supported_chains"`
	DefaultChain    string   `json:"default_chain"`
}

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Health checks server liveness and returns the supported chain list
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var resp Health
	if err := c.get(ctx, "/api/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Chains lists the chains the relay accepts
func (c *Client) Chains(ctx context.Context) (*Chains, error) {
	var resp Chains
	if err := c.get(ctx, "/api/chains", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ComprehensiveRisk fetches the merged multi-capability risk report for a contract.
// tokenID may be empty for collection-level analysis.
func (c *Client) ComprehensiveRisk(ctx context.Context, chain, address, tokenID string) (*ComprehensiveReport, error) {
	var resp ComprehensiveReport
	path := fmt.Sprintf("/api/risk/comprehensive/%s/%s", url.PathEscape(chain), url.PathEscape(address))
	if err := c.get(ctx, path, tokenParams(tokenID), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FakeCollectionRisk fetches the forgery analysis for a collection
func (c *Client) FakeCollectionRisk(ctx context.Context, chain, address string) (*RiskReport, error) {
	return c.riskReport(ctx, "fake-collection", chain, address, "")
}

// WashTradingRisk fetches the wash trading analysis for a contract
func (c *Client) WashTradingRisk(ctx context.Context, chain, address, tokenID string) (*RiskReport, error) {
	return c.riskReport(ctx, "wash-trading", chain, address, tokenID)
}

// RugPullRisk fetches the rug pull analysis for a collection
func (c *Client) RugPullRisk(ctx context.Context, chain, address string) (*RiskReport, error) {
	return c.riskReport(ctx, "rug-pull", chain, address, "")
}

// FraudMap fetches chain-wide fraud activity data
func (c *Client) FraudMap(ctx context.Context, chain string) (*RiskReport, error) {
	var resp RiskReport
	path := fmt.Sprintf("/api/risk/fraud-map/%s", url.PathEscape(chain))
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) riskReport(ctx context.Context, capability, chain, address, tokenID string) (*RiskReport, error) {
	var resp RiskReport
	path := fmt.Sprintf("/api/risk/%s/%s/%s", capability, url.PathEscape(chain), url.PathEscape(address))
	if err := c.get(ctx, path, tokenParams(tokenID), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MarketMetrics fetches a single market metric for a chain. Empty metric,
// timeRange, or currency fall back to server defaults.
func (c *Client) MarketMetrics(ctx context.Context, chain, metric, timeRange, currency string) (*MarketData, error) {
	var resp MarketData
	path := "/api/market/metrics/" + url.PathEscape(chain)
	if err := c.get(ctx, path, marketParams(metric, timeRange, currency), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MultipleMetrics fetches several market metrics concurrently; metrics is
// comma-separated. Per-metric failures are reported in the Errors field.
func (c *Client) MultipleMetrics(ctx context.Context, chain, metrics, timeRange, currency string) (*MarketData, error) {
	var resp MarketData
	path := "/api/market/multiple-metrics/" + url.PathEscape(chain)
	if err := c.get(ctx, path, marketParams(metrics, timeRange, currency), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// WashTradeMetrics fetches wash trade volume data for a chain
func (c *Client) WashTradeMetrics(ctx context.Context, chain, timeRange, currency string) (*MarketData, error) {
	var resp MarketData
	path := "/api/market/washtrade/" + url.PathEscape(chain)
	if err := c.get(ctx, path, marketParams("", timeRange, currency), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListBlockchains fetches provider blockchain metadata
func (c *Client) ListBlockchains(ctx context.Context, sortBy string, offset, limit int) (*Blockchains, error) {
	var resp Blockchains
	params := url.Values{}
	if sortBy != "" {
		params.Set("sort_by", sortBy)
	}
	if offset > 0 {
		params.Set("offset", fmt.Sprintf("%d", offset))
	}
	if limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", limit))
	}
	if err := c.get(ctx, "/api/blockchains", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func tokenParams(tokenID string) url.Values {
	if tokenID == "" {
		return nil
	}
	params := url.Values{}
	params.Set("token_id", tokenID)
	return params
}

func marketParams(metric, timeRange, currency string) url.Values {
	params := url.Values{}
	if metric != "" {
		params.Set("metrics", metric)
	}
	if timeRange != "" {
		params.Set("time_range", timeRange)
	}
	if currency != "" {
		params.Set("currency", currency)
	}
	return params
}

func (c *Client) get(ctx context.Context, path string, params url.Values, result any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.parseError(resp)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func (c *Client) parseError(resp *http.Response) error {
	var errResp struct {
		Error APIError `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil || errResp.Error.Code == "" {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	return &errResp.Error
}
