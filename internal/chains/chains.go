// Package chains holds the supported-chain set and the mapping from chain
// names to the provider's numeric blockchain IDs.
package chains

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/chord233/nft-smart-assistant/internal/upstream"
)

// DefaultChain is the chain preselected by display surfaces.
const DefaultChain = "ethereum"

// defaultNames is the fallback set used when the provider's blockchain
// list cannot be fetched at startup.
var defaultNames = []string{"ethereum", "polygon", "bsc", "avalanche", "linea", "solana"}

// blockchainIDs maps chain names to the provider's blockchain IDs.
var blockchainIDs = map[string]int{
	"ethereum":  1,
	"polygon":   137,
	"bsc":       57,
	"avalanche": 43114,
	"linea":     59144,
	"solana":    900,
}

// Family is the address format family of a chain.
type Family string

const (
	FamilyEVM    Family = "evm"
	FamilySolana Family = "solana"
)

// Set is the immutable supported-chain set. It is built once at startup
// and injected wherever chain checks are needed; nothing mutates it after
// construction.
type Set struct {
	names  []string
	lookup map[string]bool
}

// NewSet creates a chain set from the given names. Unknown names (no
// blockchain ID mapping) are dropped since the relay could not build an
// upstream request for them anyway.
func NewSet(names []string) *Set {
	s := &Set{lookup: make(map[string]bool)}
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || s.lookup[name] {
			continue
		}
		if _, known := blockchainIDs[name]; !known {
			continue
		}
		s.names = append(s.names, name)
		s.lookup[name] = true
	}
	sort.Strings(s.names)
	return s
}

// DefaultSet returns the hardcoded fallback chain set.
func DefaultSet() *Set {
	return NewSet(defaultNames)
}

// Names returns a copy of the chain names.
func (s *Set) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Contains reports whether the chain is supported.
func (s *Set) Contains(name string) bool {
	return s.lookup[strings.ToLower(name)]
}

// BlockchainID returns the provider's numeric ID for a chain name,
// defaulting to Ethereum mainnet for unknown names.
func BlockchainID(name string) int {
	if id, ok := blockchainIDs[strings.ToLower(name)]; ok {
		return id
	}
	return 1
}

// AddressFamily returns the address format family for a chain.
func AddressFamily(name string) Family {
	if strings.ToLower(name) == "solana" {
		return FamilySolana
	}
	return FamilyEVM
}

// LoadFromUpstream builds the supported-chain set from the provider's
// blockchain list. On any failure it logs a warning and returns the
// default set; startup never fails on an unreachable provider.
func LoadFromUpstream(ctx context.Context, client upstream.Getter, logger *slog.Logger) *Set {
	params := url.Values{}
	params.Set("sort_by", "blockchain_name")
	params.Set("offset", "0")
	params.Set("limit", "30")

	raw, err := client.Get(ctx, "blockchains", params)
	if err != nil {
		logger.Warn("fetching blockchain list failed, using default chain set", "error", err)
		return DefaultSet()
	}

	names := parseBlockchainNames(raw)
	if len(names) == 0 {
		logger.Warn("blockchain list empty or unparseable, using default chain set")
		return DefaultSet()
	}

	set := NewSet(names)
	if len(set.Names()) == 0 {
		logger.Warn("no known chains in blockchain list, using default chain set")
		return DefaultSet()
	}
	return set
}

// parseBlockchainNames extracts chain names from the provider's blockchain
// list payload. The list shape has drifted across API versions, so both
// the wrapped and the bare forms are probed.
func parseBlockchainNames(raw json.RawMessage) []string {
	var payload struct {
		Blockchains []blockchainEntry `json:"blockchains"`
		Data        []blockchainEntry `json:"data"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}

	entries := payload.Blockchains
	if len(entries) == 0 {
		entries = payload.Data
	}

	var names []string
	for _, e := range entries {
		if name := e.name(); name != "" {
			names = append(names, name)
		}
	}
	return names
}

type blockchainEntry struct {
	Metadata *struct {
		Name string `json:"name"`
	} `json:"metadata"`
	BlockchainName string `json:"blockchain_name"`
	Name           string `json:"name"`
}

func (e blockchainEntry) name() string {
	if e.Metadata != nil && e.Metadata.Name != "" {
		return e.Metadata.Name
	}
	if e.BlockchainName != "" {
		return e.BlockchainName
	}
	return e.Name
}
