// Package domain contains the relay logic for the risk capabilities.
package domain

import (
	"encoding/json"

	"github.com/chord233/nft-smart-assistant/internal/normalize"
)

// AnalysisRequest identifies the contract a caller wants analyzed.
// TokenID is collected by display surfaces but unused by most
// capabilities; it is validated and forwarded where the provider
// accepts it.
type AnalysisRequest struct {
	Chain           string `json:"chain"`
	ContractAddress string `json:"contract_address"`
	TokenID         string `json:"token_id,omitempty"`
}

// Report is the result of a single-call risk capability. Data holds the
// provider payload untouched so the raw-data view reproduces it
// byte-for-byte.
type Report struct {
	Chain   string          `json:"chain"`
	Address string          `json:"address,omitempty"`
	Data    json.RawMessage `json:"data"`
}

// ComprehensiveReport is the result of the comprehensive analysis, which
// issues several independent provider calls. Each sub-payload is kept
// raw under its capability key; failed sub-calls are reported per-field
// in PartialErrors instead of aborting the whole analysis.
type ComprehensiveReport struct {
	Chain         string                     `json:"chain"`
	Address       string                     `json:"address"`
	Sections      map[string]json.RawMessage `json:"sections"`
	Summary       normalize.CanonicalResult  `json:"summary"`
	PartialErrors map[string]string          `json:"partial_errors,omitempty"`
}

// Section keys in ComprehensiveReport.Sections.
const (
	SectionRiskReport  = "risk_report"
	SectionWashTrading = "wash_trading"
	SectionForgery     = "forgery"
)
