// Package transport provides HTTP handlers for the risk capabilities.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/chord233/nft-smart-assistant/internal/risk/domain"
)

// Service defines the risk service interface for HTTP transport.
type Service interface {
	Comprehensive(ctx context.Context, req domain.AnalysisRequest) (*domain.ComprehensiveReport, error)
	FakeCollection(ctx context.Context, req domain.AnalysisRequest) (*domain.Report, error)
	WashTrading(ctx context.Context, req domain.AnalysisRequest) (*domain.Report, error)
	RugPull(ctx context.Context, req domain.AnalysisRequest) (*domain.Report, error)
	FraudMap(ctx context.Context, chain string) (*domain.Report, error)
}

// Handler handles HTTP requests for risk analysis.
type Handler struct {
	svc Service
}

// NewHandler creates a new risk HTTP handler.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the risk routes on a chi router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/comprehensive/{chain}/{address}", h.handleComprehensive)
	r.Get("/fake-collection/{chain}/{address}", h.handleFakeCollection)
	r.Get("/wash-trading/{chain}/{address}", h.handleWashTrading)
	r.Get("/rug-pull/{chain}/{address}", h.handleRugPull)
	r.Get("/fraud-map/{chain}", h.handleFraudMap)
}

func analysisRequest(r *http.Request) domain.AnalysisRequest {
	return domain.AnalysisRequest{
		Chain:           chi.URLParam(r, "chain"),
		ContractAddress: chi.URLParam(r, "address"),
		TokenID:         r.URL.Query().Get("token_id"),
	}
}

func (h *Handler) handleComprehensive(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Comprehensive(r.Context(), analysisRequest(r))
	if err != nil {
		writeServiceError(w, err, "Failed to run comprehensive analysis")
		return
	}

	writeJSON(w, http.StatusOK, Envelope{
		RequestID:     uuid.New().String(),
		Chain:         report.Chain,
		Address:       report.Address,
		Sections:      report.Sections,
		Summary:       &report.Summary,
		PartialErrors: report.PartialErrors,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) handleFakeCollection(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.FakeCollection(r.Context(), analysisRequest(r))
	if err != nil {
		writeServiceError(w, err, "Failed to get fake-collection signal")
		return
	}
	writeReport(w, report)
}

func (h *Handler) handleWashTrading(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.WashTrading(r.Context(), analysisRequest(r))
	if err != nil {
		writeServiceError(w, err, "Failed to get wash-trading signal")
		return
	}
	writeReport(w, report)
}

func (h *Handler) handleRugPull(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.RugPull(r.Context(), analysisRequest(r))
	if err != nil {
		writeServiceError(w, err, "Failed to get rug-pull prediction")
		return
	}
	writeReport(w, report)
}

func (h *Handler) handleFraudMap(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.FraudMap(r.Context(), chi.URLParam(r, "chain"))
	if err != nil {
		writeServiceError(w, err, "Failed to get fraud map")
		return
	}
	writeReport(w, report)
}

func writeReport(w http.ResponseWriter, report *domain.Report) {
	writeJSON(w, http.StatusOK, Envelope{
		RequestID: uuid.New().String(),
		Chain:     report.Chain,
		Address:   report.Address,
		Data:      report.Data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// writeServiceError maps domain errors onto HTTP statuses. Upstream
// failures get a generic message; the original provider message is only
// ever logged, never echoed to the caller.
func writeServiceError(w http.ResponseWriter, err error, upstreamMessage string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, domain.ErrUnsupportedChain):
		writeError(w, http.StatusBadRequest, "UNSUPPORTED_CHAIN", err.Error())
	case errors.Is(err, domain.ErrUpstream):
		writeError(w, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", upstreamMessage)
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", upstreamMessage)
	}
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
