package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_NestedAssessmentScore(t *testing.T) {
	raw := json.RawMessage(`{"overall_assessment":{"overall_risk_score":0.85}}`)

	result := Normalize(raw)

	assert.Equal(t, 0.85, result.OverallRiskScore)
	assert.Equal(t, 85.0, result.RiskPercent)
	assert.Equal(t, TierHigh, result.RiskTier)
}

func TestNormalize_FlatRiskScore(t *testing.T) {
	raw := json.RawMessage(`{"risk_score":0.3}`)

	result := Normalize(raw)

	assert.Equal(t, 0.3, result.OverallRiskScore)
	assert.Equal(t, 30.0, result.RiskPercent)
	assert.Equal(t, TierLow, result.RiskTier)
}

func TestNormalize_EmptyPayload(t *testing.T) {
	result := Normalize(json.RawMessage(`{}`))

	assert.Equal(t, 0.0, result.OverallRiskScore)
	assert.Equal(t, TierLow, result.RiskTier)
	assert.Equal(t, PlaceholderSummary, result.Summary)
	assert.NotNil(t, result.Recommendations)
	assert.Empty(t, result.Recommendations)
	assert.False(t, result.WashTradingDetected)
}

func TestNormalize_NilAndGarbagePayloads(t *testing.T) {
	for _, raw := range []json.RawMessage{nil, json.RawMessage(``), json.RawMessage(`[1,2,3]`), json.RawMessage(`not json`)} {
		result := Normalize(raw)
		assert.Equal(t, TierLow, result.RiskTier)
		assert.Equal(t, PlaceholderSummary, result.Summary)
	}
}

func TestNormalize_FallbackPrecedence(t *testing.T) {
	// The nested assessment score must win over the flat one
	raw := json.RawMessage(`{"overall_assessment":{"overall_risk_score":0.9},"risk_score":0.1}`)

	result := Normalize(raw)

	assert.Equal(t, 0.9, result.OverallRiskScore)
	assert.Equal(t, TierHigh, result.RiskTier)
}

func TestNormalize_RugPullStringFallback(t *testing.T) {
	// No numeric score anywhere; the string field decides the tier
	raw := json.RawMessage(`{"rugpull_risk":"medium"}`)

	result := Normalize(raw)

	assert.Equal(t, TierMedium, result.RugPullRisk)
}

func TestNormalize_RugPullNumericWinsOverString(t *testing.T) {
	raw := json.RawMessage(`{"social_analysis":{"risk_score":0.9},"rugpull_risk":"low"}`)

	result := Normalize(raw)

	assert.Equal(t, TierHigh, result.RugPullRisk)
}

func TestTierForScore_Boundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  Tier
	}{
		{0.0, TierLow},
		{0.4, TierLow},  // boundary is strict
		{0.41, TierMedium},
		{0.7, TierMedium}, // boundary is strict
		{0.71, TierHigh},
		{1.0, TierHigh},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TierForScore(tt.score), "score %v", tt.score)
	}
}

func TestNormalize_WashTradingSignals(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"score above threshold", `{"trading_analysis":{"risk_score":0.51}}`, true},
		{"score at threshold", `{"trading_analysis":{"risk_score":0.5}}`, false},
		{"explicit boolean", `{"is_wash_trading":true}`, true},
		{"alternate boolean", `{"wash_trading_detected":true}`, true},
		{"boolean false", `{"is_wash_trading":false}`, false},
		{"no signal", `{}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Normalize(json.RawMessage(tt.raw))
			assert.Equal(t, tt.want, result.WashTradingDetected)
		})
	}
}

func TestNormalize_SummaryFallbacks(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"executive summary wins", `{"executive_summary":"exec","analysis":"ana"}`, "exec"},
		{"analysis next", `{"analysis":"ana"}`, "ana"},
		{"risk factors joined", `{"risk_factors":["high velocity","new deployer"]}`, "high velocity, new deployer"},
		{"blank executive summary skipped", `{"executive_summary":"  ","analysis":"ana"}`, "ana"},
		{"placeholder", `{}`, PlaceholderSummary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Normalize(json.RawMessage(tt.raw))
			assert.Equal(t, tt.want, result.Summary)
		})
	}
}

func TestNormalize_Recommendations(t *testing.T) {
	raw := json.RawMessage(`{"overall_assessment":{"recommendations":["avoid","verify ownership"]},"recommendations":["flat"]}`)

	result := Normalize(raw)

	assert.Equal(t, []string{"avoid", "verify ownership"}, result.Recommendations)

	flat := Normalize(json.RawMessage(`{"recommendations":["flat"]}`))
	assert.Equal(t, []string{"flat"}, flat.Recommendations)
}

func TestNormalize_FakeCollectionProbability(t *testing.T) {
	raw := json.RawMessage(`{"metadata_analysis":{"risk_score":0.66},"fake_score":0.2}`)

	result := Normalize(raw)

	assert.Equal(t, 0.66, result.FakeCollectionProbability)
}

func TestNormalize_DoesNotModifyInput(t *testing.T) {
	original := `{"risk_score":0.3,"risk_factors":["a"]}`
	raw := json.RawMessage(original)

	Normalize(raw)

	assert.Equal(t, original, string(raw))
}
