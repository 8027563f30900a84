package transport

import (
	"encoding/json"

	"github.com/chord233/nft-smart-assistant/internal/normalize"
)

// Envelope is the relay response shape. Every relay endpoint wraps the
// raw provider payload the same way; Data is kept as raw bytes so the
// provider JSON survives unmodified.
type Envelope struct {
	RequestID     string                     `json:"request_id"`
	Chain         string                     `json:"chain,omitempty"`
	Address       string                     `json:"address,omitempty"`
	Data          json.RawMessage            `json:"data,omitempty"`
	Sections      map[string]json.RawMessage `json:"sections,omitempty"`
	Summary       *normalize.CanonicalResult `json:"summary,omitempty"`
	PartialErrors map[string]string          `json:"partial_errors,omitempty"`
	Timestamp     string                     `json:"timestamp"`
}
