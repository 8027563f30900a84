package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/chord233/nft-smart-assistant/internal/chains"
	"github.com/chord233/nft-smart-assistant/internal/normalize"
	"github.com/chord233/nft-smart-assistant/internal/observability/metrics"
	"github.com/chord233/nft-smart-assistant/internal/upstream"
	"github.com/chord233/nft-smart-assistant/internal/validation"
)

// Common errors returned by the risk service.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnsupportedChain = errors.New("unsupported chain")
	ErrUpstream         = errors.New("upstream unavailable")
)

// Provider path templates per capability. The chain slot takes the
// provider's numeric blockchain ID, not the chain name.
const (
	pathRiskReport = "nft/%d/%s/risk-report"
	pathWashTrade  = "nft/%d/%s/washtrade"
	pathForgery    = "collection/%d/%s/forgery"
	pathRugPull    = "collection/%d/%s/rugpull"
	pathFraudMap   = "fraud/%d/map"
)

// Service is the risk relay interface consumed by HTTP transport.
type Service interface {
	Comprehensive(ctx context.Context, req AnalysisRequest) (*ComprehensiveReport, error)
	FakeCollection(ctx context.Context, req AnalysisRequest) (*Report, error)
	WashTrading(ctx context.Context, req AnalysisRequest) (*Report, error)
	RugPull(ctx context.Context, req AnalysisRequest) (*Report, error)
	FraudMap(ctx context.Context, chain string) (*Report, error)
}

type service struct {
	client    upstream.Getter
	supported *chains.Set
}

// NewService creates the risk relay service.
func NewService(client upstream.Getter, supported *chains.Set) *service {
	return &service{
		client:    client,
		supported: supported,
	}
}

// validate rejects bad requests before any network call happens.
func (s *service) validate(req AnalysisRequest) error {
	if !s.supported.Contains(req.Chain) {
		return fmt.Errorf("%w: %s", ErrUnsupportedChain, req.Chain)
	}
	if err := validation.ValidateAddress(req.Chain, req.ContractAddress); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := validation.ValidateTokenID(req.TokenID); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// relay performs one provider call for a single-call capability.
func (s *service) relay(ctx context.Context, capability, pathTemplate string, req AnalysisRequest) (*Report, error) {
	if err := s.validate(req); err != nil {
		metrics.RecordRiskAnalysis(capability, "rejected")
		return nil, err
	}

	path := fmt.Sprintf(pathTemplate, chains.BlockchainID(req.Chain), req.ContractAddress)
	params := url.Values{}
	if req.TokenID != "" {
		params.Set("token_id", req.TokenID)
	}

	raw, err := s.client.Get(ctx, path, params)
	if err != nil {
		metrics.RecordRiskAnalysis(capability, "error")
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	metrics.RecordRiskAnalysis(capability, "ok")
	return &Report{
		Chain:   req.Chain,
		Address: req.ContractAddress,
		Data:    raw,
	}, nil
}

// FakeCollection relays the fake-collection signal.
func (s *service) FakeCollection(ctx context.Context, req AnalysisRequest) (*Report, error) {
	return s.relay(ctx, "fake_collection", pathForgery, req)
}

// WashTrading relays the wash-trading signal.
func (s *service) WashTrading(ctx context.Context, req AnalysisRequest) (*Report, error) {
	return s.relay(ctx, "wash_trading", pathWashTrade, req)
}

// RugPull relays the rug-pull prediction.
func (s *service) RugPull(ctx context.Context, req AnalysisRequest) (*Report, error) {
	return s.relay(ctx, "rug_pull", pathRugPull, req)
}

// FraudMap relays the aggregate fraud map for a chain; it takes no
// contract address.
func (s *service) FraudMap(ctx context.Context, chain string) (*Report, error) {
	if !s.supported.Contains(chain) {
		metrics.RecordRiskAnalysis("fraud_map", "rejected")
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedChain, chain)
	}

	path := fmt.Sprintf(pathFraudMap, chains.BlockchainID(chain))
	raw, err := s.client.Get(ctx, path, nil)
	if err != nil {
		metrics.RecordRiskAnalysis("fraud_map", "error")
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	metrics.RecordRiskAnalysis("fraud_map", "ok")
	return &Report{Chain: chain, Data: raw}, nil
}

// subResult carries the outcome of one comprehensive sub-call.
type subResult struct {
	section string
	raw     json.RawMessage
	err     error
}

// Comprehensive issues the risk-report, wash-trading, and forgery calls
// concurrently. Each sub-call's failure is isolated: the report carries
// whatever settled successfully plus a per-field error entry for the
// rest. Only when every sub-call fails is the whole operation an error.
func (s *service) Comprehensive(ctx context.Context, req AnalysisRequest) (*ComprehensiveReport, error) {
	if err := s.validate(req); err != nil {
		metrics.RecordRiskAnalysis("comprehensive", "rejected")
		return nil, err
	}

	id := chains.BlockchainID(req.Chain)
	calls := []struct {
		section string
		path    string
	}{
		{SectionRiskReport, fmt.Sprintf(pathRiskReport, id, req.ContractAddress)},
		{SectionWashTrading, fmt.Sprintf(pathWashTrade, id, req.ContractAddress)},
		{SectionForgery, fmt.Sprintf(pathForgery, id, req.ContractAddress)},
	}

	results := make(chan subResult, len(calls))
	var wg sync.WaitGroup
	for _, call := range calls {
		wg.Add(1)
		go func(section, path string) {
			defer wg.Done()
			raw, err := s.client.Get(ctx, path, nil)
			results <- subResult{section: section, raw: raw, err: err}
		}(call.section, call.path)
	}
	wg.Wait()
	close(results)

	report := &ComprehensiveReport{
		Chain:    req.Chain,
		Address:  req.ContractAddress,
		Sections: make(map[string]json.RawMessage, len(calls)),
	}
	for res := range results {
		if res.err != nil {
			if report.PartialErrors == nil {
				report.PartialErrors = make(map[string]string)
			}
			report.PartialErrors[res.section] = res.err.Error()
			continue
		}
		report.Sections[res.section] = res.raw
	}

	if len(report.Sections) == 0 {
		metrics.RecordRiskAnalysis("comprehensive", "error")
		return nil, fmt.Errorf("%w: all provider calls failed", ErrUpstream)
	}

	report.Summary = s.summarize(report)

	status := "ok"
	if len(report.PartialErrors) > 0 {
		status = "partial"
	}
	metrics.RecordRiskAnalysis("comprehensive", status)
	return report, nil
}

// summarize normalizes the risk-report payload and folds in signals from
// the auxiliary sections where the main payload lacked them.
func (s *service) summarize(report *ComprehensiveReport) normalize.CanonicalResult {
	canonical := normalize.Normalize(report.Sections[SectionRiskReport])

	if raw, ok := report.Sections[SectionWashTrading]; ok && !canonical.WashTradingDetected {
		canonical.WashTradingDetected = normalize.Normalize(raw).WashTradingDetected
	}
	if raw, ok := report.Sections[SectionForgery]; ok && canonical.FakeCollectionProbability == 0 {
		canonical.FakeCollectionProbability = normalize.Normalize(raw).FakeCollectionProbability
	}

	return canonical
}
