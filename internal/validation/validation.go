// Package validation provides input validation for relay requests.
// Everything here runs before any upstream call is made.
package validation

import (
	"errors"
	"regexp"
	"strings"

	"github.com/chord233/nft-smart-assistant/internal/chains"
)

// ErrEmptyAddress is returned for an empty contract address. Handlers must
// reject the request without touching the network.
var ErrEmptyAddress = errors.New("contract address is required")

var (
	evmAddressRegex    = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)
	solanaAddressRegex = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)
	tokenIDRegex       = regexp.MustCompile(`^[0-9]+$`)
	queryTokenRegex    = regexp.MustCompile(`^[a-z0-9_]+$`)
)

// ValidateAddress validates a contract address for the given chain.
func ValidateAddress(chain, address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return ErrEmptyAddress
	}

	switch chains.AddressFamily(chain) {
	case chains.FamilySolana:
		if !solanaAddressRegex.MatchString(address) {
			return errors.New("invalid address: expected a base58 Solana address")
		}
	default:
		if !evmAddressRegex.MatchString(address) {
			return errors.New("invalid address: expected 0x followed by 40 hex characters")
		}
	}
	return nil
}

// ValidateTokenID validates an optional token ID. Empty is allowed; most
// capabilities collect it without using it.
func ValidateTokenID(tokenID string) error {
	if tokenID == "" {
		return nil
	}
	if !tokenIDRegex.MatchString(tokenID) {
		return errors.New("invalid token id: must be a numeric string")
	}
	return nil
}

// ValidateTimeRange validates a market time_range query value. The value
// is forwarded to the provider as-is, so only the character set is
// constrained here.
func ValidateTimeRange(timeRange string) error {
	if timeRange == "" {
		return nil
	}
	if len(timeRange) > 8 || !queryTokenRegex.MatchString(timeRange) {
		return errors.New("invalid time_range")
	}
	return nil
}

// ValidateCurrency validates a market currency query value.
func ValidateCurrency(currency string) error {
	if currency == "" {
		return nil
	}
	if len(currency) > 8 || !queryTokenRegex.MatchString(currency) {
		return errors.New("invalid currency")
	}
	return nil
}

// ValidateMetricName validates a single market metric name.
func ValidateMetricName(metric string) error {
	if metric == "" {
		return errors.New("metric name is required")
	}
	if len(metric) > 64 || !queryTokenRegex.MatchString(metric) {
		return errors.New("invalid metric name")
	}
	return nil
}

// SplitMetrics parses a comma-separated metrics query value into a list of
// trimmed metric names, dropping empties.
func SplitMetrics(metricsParam string) []string {
	parts := strings.Split(metricsParam, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
