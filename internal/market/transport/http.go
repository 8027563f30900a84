// Package transport provides HTTP handlers for the market capabilities.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/chord233/nft-smart-assistant/internal/market/domain"
	"github.com/chord233/nft-smart-assistant/internal/validation"
)

// Defaults applied when the caller omits query parameters; they match
// the provider's own defaults.
const (
	defaultMetric    = "volume"
	defaultTimeRange = "24h"
	defaultCurrency  = "usd"
	defaultSortBy    = "blockchain_name"
	defaultLimit     = 30
)

// Service defines the market service interface for HTTP transport.
type Service interface {
	Metrics(ctx context.Context, req domain.MetricsRequest) (*domain.MetricsResult, error)
	MultipleMetrics(ctx context.Context, req domain.MultipleMetricsRequest) (*domain.MultipleMetricsResult, error)
	WashTrade(ctx context.Context, req domain.MetricsRequest) (*domain.MetricsResult, error)
	Blockchains(ctx context.Context, req domain.BlockchainsRequest) (*domain.BlockchainsResult, error)
}

// Handler handles HTTP requests for market data.
type Handler struct {
	svc Service
}

// NewHandler creates a new market HTTP handler.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the market routes on a chi router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/metrics/{chain}", h.handleMetrics)
	r.Get("/multiple-metrics/{chain}", h.handleMultipleMetrics)
	r.Get("/washtrade/{chain}", h.handleWashTrade)
}

// RegisterBlockchainRoutes registers the blockchain list route; it lives
// outside the /api/market prefix.
func (h *Handler) RegisterBlockchainRoutes(r chi.Router) {
	r.Get("/blockchains", h.handleBlockchains)
}

func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.svc.Metrics(r.Context(), domain.MetricsRequest{
		Chain:     chi.URLParam(r, "chain"),
		Metric:    orDefault(q.Get("metrics"), defaultMetric),
		TimeRange: orDefault(q.Get("time_range"), defaultTimeRange),
		Currency:  orDefault(q.Get("currency"), defaultCurrency),
	})
	if err != nil {
		writeServiceError(w, err, "Failed to get market metrics")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"request_id": uuid.New().String(),
		"chain":      result.Chain,
		"metrics":    result.Metric,
		"time_range": result.TimeRange,
		"currency":   result.Currency,
		"data":       result.Data,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) handleMultipleMetrics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.svc.MultipleMetrics(r.Context(), domain.MultipleMetricsRequest{
		Chain:     chi.URLParam(r, "chain"),
		Metrics:   validation.SplitMetrics(orDefault(q.Get("metrics"), "volume,sales")),
		TimeRange: orDefault(q.Get("time_range"), defaultTimeRange),
		Currency:  orDefault(q.Get("currency"), defaultCurrency),
	})
	if err != nil {
		writeServiceError(w, err, "Failed to get multiple metrics")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"request_id": uuid.New().String(),
		"chain":      result.Chain,
		"metrics":    result.Metrics,
		"time_range": result.TimeRange,
		"currency":   result.Currency,
		"data":       map[string]any{"metric_values": result.MetricValues},
		"errors":     result.Errors,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) handleWashTrade(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.svc.WashTrade(r.Context(), domain.MetricsRequest{
		Chain:     chi.URLParam(r, "chain"),
		TimeRange: orDefault(q.Get("time_range"), defaultTimeRange),
		Currency:  orDefault(q.Get("currency"), defaultCurrency),
	})
	if err != nil {
		writeServiceError(w, err, "Failed to get washtrade metrics")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"request_id": uuid.New().String(),
		"chain":      result.Chain,
		"metric":     result.Metric,
		"time_range": result.TimeRange,
		"currency":   result.Currency,
		"data":       result.Data,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) handleBlockchains(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	offset := 0
	if v := q.Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	limit := defaultLimit
	if v := q.Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	result, err := h.svc.Blockchains(r.Context(), domain.BlockchainsRequest{
		SortBy: orDefault(q.Get("sort_by"), defaultSortBy),
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		writeServiceError(w, err, "Failed to get blockchains")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"request_id": uuid.New().String(),
		"sort_by":    result.SortBy,
		"offset":     result.Offset,
		"limit":      result.Limit,
		"data":       result.Data,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

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
