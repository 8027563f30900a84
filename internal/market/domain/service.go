package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"github.com/chord233/nft-smart-assistant/internal/chains"
	"github.com/chord233/nft-smart-assistant/internal/observability/metrics"
	"github.com/chord233/nft-smart-assistant/internal/upstream"
	"github.com/chord233/nft-smart-assistant/internal/validation"
)

// Common errors returned by the market service.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnsupportedChain = errors.New("unsupported chain")
	ErrUpstream         = errors.New("upstream unavailable")
)

// washTradeMetric is the provider metric behind the washtrade endpoint.
const washTradeMetric = "washtrade_volume"

// Service is the market relay interface consumed by HTTP transport.
type Service interface {
	Metrics(ctx context.Context, req MetricsRequest) (*MetricsResult, error)
	MultipleMetrics(ctx context.Context, req MultipleMetricsRequest) (*MultipleMetricsResult, error)
	WashTrade(ctx context.Context, req MetricsRequest) (*MetricsResult, error)
	Blockchains(ctx context.Context, req BlockchainsRequest) (*BlockchainsResult, error)
}

type service struct {
	client    upstream.Getter
	supported *chains.Set
}

// NewService creates the market relay service.
func NewService(client upstream.Getter, supported *chains.Set) *service {
	return &service{
		client:    client,
		supported: supported,
	}
}

func (s *service) validate(chain, metric, timeRange, currency string) error {
	if !s.supported.Contains(chain) {
		return fmt.Errorf("%w: %s", ErrUnsupportedChain, chain)
	}
	if err := validation.ValidateMetricName(metric); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := validation.ValidateTimeRange(timeRange); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := validation.ValidateCurrency(currency); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// fetchMetric performs one provider market/metrics call. The provider
// takes the numeric blockchain ID and always gets include_washtrade so
// washtrade metrics stay available.
func (s *service) fetchMetric(ctx context.Context, chain, metric, timeRange, currency string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("currency", currency)
	params.Set("blockchain", strconv.Itoa(chains.BlockchainID(chain)))
	params.Set("metrics", metric)
	params.Set("time_range", timeRange)
	params.Set("include_washtrade", "true")

	return s.client.Get(ctx, "market/metrics", params)
}

// Metrics relays a single market metric.
func (s *service) Metrics(ctx context.Context, req MetricsRequest) (*MetricsResult, error) {
	if err := s.validate(req.Chain, req.Metric, req.TimeRange, req.Currency); err != nil {
		metrics.RecordMarketRequest("metrics", "rejected")
		return nil, err
	}

	raw, err := s.fetchMetric(ctx, req.Chain, req.Metric, req.TimeRange, req.Currency)
	if err != nil {
		metrics.RecordMarketRequest("metrics", "error")
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	metrics.RecordMarketRequest("metrics", "ok")
	return &MetricsResult{
		Chain:     req.Chain,
		Metric:    req.Metric,
		TimeRange: req.TimeRange,
		Currency:  req.Currency,
		Data:      raw,
	}, nil
}

// WashTrade relays the wash trade volume metric.
func (s *service) WashTrade(ctx context.Context, req MetricsRequest) (*MetricsResult, error) {
	req.Metric = washTradeMetric
	result, err := s.Metrics(ctx, req)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// MultipleMetrics fetches each requested metric with its own provider
// call, all in flight at once. A failing metric does not block the
// others; it is reported per-metric instead.
func (s *service) MultipleMetrics(ctx context.Context, req MultipleMetricsRequest) (*MultipleMetricsResult, error) {
	if len(req.Metrics) == 0 {
		metrics.RecordMarketRequest("multiple_metrics", "rejected")
		return nil, fmt.Errorf("%w: at least one metric is required", ErrInvalidInput)
	}
	for _, metric := range req.Metrics {
		if err := s.validate(req.Chain, metric, req.TimeRange, req.Currency); err != nil {
			metrics.RecordMarketRequest("multiple_metrics", "rejected")
			return nil, err
		}
	}

	type metricResult struct {
		metric string
		raw    json.RawMessage
		err    error
	}

	results := make(chan metricResult, len(req.Metrics))
	var wg sync.WaitGroup
	for _, metric := range req.Metrics {
		wg.Add(1)
		go func(metric string) {
			defer wg.Done()
			raw, err := s.fetchMetric(ctx, req.Chain, metric, req.TimeRange, req.Currency)
			results <- metricResult{metric: metric, raw: raw, err: err}
		}(metric)
	}
	wg.Wait()
	close(results)

	result := &MultipleMetricsResult{
		Chain:        req.Chain,
		Metrics:      req.Metrics,
		TimeRange:    req.TimeRange,
		Currency:     req.Currency,
		MetricValues: make(map[string]json.RawMessage, len(req.Metrics)),
	}
	for res := range results {
		if res.err != nil {
			if result.Errors == nil {
				result.Errors = make(map[string]string)
			}
			result.Errors[res.metric] = res.err.Error()
			continue
		}
		result.MetricValues[res.metric] = res.raw
	}

	if len(result.MetricValues) == 0 {
		metrics.RecordMarketRequest("multiple_metrics", "error")
		return nil, fmt.Errorf("%w: all metric calls failed", ErrUpstream)
	}

	status := "ok"
	if len(result.Errors) > 0 {
		status = "partial"
	}
	metrics.RecordMarketRequest("multiple_metrics", status)
	return result, nil
}

// Blockchains relays the provider's blockchain metadata list.
func (s *service) Blockchains(ctx context.Context, req BlockchainsRequest) (*BlockchainsResult, error) {
	params := url.Values{}
	params.Set("sort_by", req.SortBy)
	params.Set("offset", strconv.Itoa(req.Offset))
	params.Set("limit", strconv.Itoa(req.Limit))

	raw, err := s.client.Get(ctx, "blockchains", params)
	if err != nil {
		metrics.RecordMarketRequest("blockchains", "error")
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	metrics.RecordMarketRequest("blockchains", "ok")
	return &BlockchainsResult{
		SortBy: req.SortBy,
		Offset: req.Offset,
		Limit:  req.Limit,
		Data:   raw,
	}, nil
}
