// Package domain contains the relay logic for market metrics.
package domain

import "encoding/json"

// MetricsRequest asks for one market metric on a chain.
type MetricsRequest struct {
	Chain     string
	Metric    string
	TimeRange string
	Currency  string
}

// MultipleMetricsRequest asks for several market metrics at once.
type MultipleMetricsRequest struct {
	Chain     string
	Metrics   []string
	TimeRange string
	Currency  string
}

// BlockchainsRequest asks for the provider's blockchain metadata list.
type BlockchainsRequest struct {
	SortBy string
	Offset int
	Limit  int
}

// MetricsResult carries one raw provider payload plus the echoed request
// parameters.
type MetricsResult struct {
	Chain     string
	Metric    string
	TimeRange string
	Currency  string
	Data      json.RawMessage
}

// MultipleMetricsResult carries per-metric raw payloads. Metrics that
// failed upstream appear in Errors instead of MetricValues.
type MultipleMetricsResult struct {
	Chain        string
	Metrics      []string
	TimeRange    string
	Currency     string
	MetricValues map[string]json.RawMessage
	Errors       map[string]string
}

// BlockchainsResult carries the raw blockchain list payload.
type BlockchainsResult struct {
	SortBy string
	Offset int
	Limit  int
	Data   json.RawMessage
}
