// Package normalize reconciles the provider's drifting response shapes
// into a single display-ready result. Field names vary across endpoint
// families and API versions, so every value is resolved through an
// ordered fallback chain of candidate locations; every lookup has a
// defined default and the input payload is never modified.
package normalize

import (
	"encoding/json"
	"strings"
)

// Tier is the three-level risk classification.
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// Threshold constants come from observed provider behavior; they are
// deliberately kept as literals rather than derived.
const (
	tierHighThreshold   = 0.7
	tierMediumThreshold = 0.4
	washTradeThreshold  = 0.5
)

// PlaceholderSummary is shown when no narrative field is present.
const PlaceholderSummary = "No analysis available for this contract."

// CanonicalResult is the schema-stable projection of a risk payload.
// It is created fresh per request and never mutated after construction.
type CanonicalResult struct {
	OverallRiskScore          float64  `json:"overall_risk_score"`
	RiskPercent               float64  `json:"risk_percent"`
	RiskTier                  Tier     `json:"risk_tier"`
	WashTradingDetected       bool     `json:"wash_trading_detected"`
	FakeCollectionProbability float64  `json:"fake_collection_probability"`
	RugPullRisk               Tier     `json:"rugpull_risk"`
	Summary                   string   `json:"summary"`
	Recommendations           []string `json:"recommendations"`
}

// scorePaths is the fallback chain for the overall risk score. Order
// matters: nested assessment scores win over flat ones.
var scorePaths = []string{
	"overall_assessment.overall_risk_score",
	"overall_risk_score",
	"risk_score",
}

// rugScorePaths is the fallback chain for the numeric rug-pull score.
// The string field "rugpull_risk" is consulted only when every numeric
// candidate is absent.
var rugScorePaths = []string{
	"social_analysis.risk_score",
	"overall_assessment.overall_risk_score",
	"risk_score",
}

// fakeScorePaths is the fallback chain for the fake-collection probability.
var fakeScorePaths = []string{
	"metadata_analysis.risk_score",
	"fake_score",
	"fake_collection_probability",
}

// Normalize projects an arbitrary provider payload into a CanonicalResult.
// It never fails: an unparseable or empty payload yields the zero result
// with the placeholder summary.
func Normalize(raw json.RawMessage) CanonicalResult {
	var doc map[string]any
	if len(raw) > 0 {
		// Best effort; a non-object payload normalizes like an empty one.
		_ = json.Unmarshal(raw, &doc)
	}

	score, _ := firstFloat(doc, scorePaths...)

	result := CanonicalResult{
		OverallRiskScore:    score,
		RiskPercent:         score * 100,
		RiskTier:            TierForScore(score),
		WashTradingDetected: washTradingDetected(doc),
		RugPullRisk:         rugPullTier(doc),
		Summary:             summaryText(doc),
		Recommendations:     recommendations(doc),
	}
	result.FakeCollectionProbability, _ = firstFloat(doc, fakeScorePaths...)
	return result
}

// TierForScore maps a [0,1] risk score onto the three-level tier. Both
// comparisons are strict: exactly 0.7 is medium, exactly 0.4 is low.
func TierForScore(score float64) Tier {
	switch {
	case score > tierHighThreshold:
		return TierHigh
	case score > tierMediumThreshold:
		return TierMedium
	default:
		return TierLow
	}
}

func washTradingDetected(doc map[string]any) bool {
	if score, ok := firstFloat(doc, "trading_analysis.risk_score"); ok && score > washTradeThreshold {
		return true
	}
	if b, ok := boolAt(doc, "is_wash_trading"); ok && b {
		return true
	}
	if b, ok := boolAt(doc, "wash_trading_detected"); ok && b {
		return true
	}
	return false
}

func rugPullTier(doc map[string]any) Tier {
	if score, ok := firstFloat(doc, rugScorePaths...); ok {
		return TierForScore(score)
	}
	if s, ok := stringAt(doc, "rugpull_risk"); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "high":
			return TierHigh
		case "medium":
			return TierMedium
		}
	}
	return TierLow
}

func summaryText(doc map[string]any) string {
	if s, ok := stringAt(doc, "executive_summary"); ok && strings.TrimSpace(s) != "" {
		return s
	}
	if s, ok := stringAt(doc, "analysis"); ok && strings.TrimSpace(s) != "" {
		return s
	}
	if factors := stringsAt(doc, "risk_factors"); len(factors) > 0 {
		return strings.Join(factors, ", ")
	}
	return PlaceholderSummary
}

func recommendations(doc map[string]any) []string {
	if recs := stringsAt(doc, "overall_assessment.recommendations"); len(recs) > 0 {
		return recs
	}
	if recs := stringsAt(doc, "recommendations"); len(recs) > 0 {
		return recs
	}
	return []string{}
}

// valueAt walks a dotted path through nested JSON objects.
func valueAt(doc map[string]any, path string) (any, bool) {
	if doc == nil {
		return nil, false
	}
	parts := strings.Split(path, ".")
	var current any = doc
	for _, part := range parts {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// firstFloat returns the first numeric value found along the given paths.
func firstFloat(doc map[string]any, paths ...string) (float64, bool) {
	for _, path := range paths {
		v, ok := valueAt(doc, path)
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, true
		case json.Number:
			if f, err := n.Float64(); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func boolAt(doc map[string]any, path string) (bool, bool) {
	v, ok := valueAt(doc, path)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

func stringAt(doc map[string]any, path string) (string, bool) {
	v, ok := valueAt(doc, path)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// stringsAt reads a list of strings, skipping non-string entries.
func stringsAt(doc map[string]any, path string) []string {
	v, ok := valueAt(doc, path)
	if !ok {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
