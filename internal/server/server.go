// Package server provides the HTTP server setup and wiring.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/chord233/nft-smart-assistant/internal/chains"
	"github.com/chord233/nft-smart-assistant/internal/config"
	marketDomain "github.com/chord233/nft-smart-assistant/internal/market/domain"
	marketTransport "github.com/chord233/nft-smart-assistant/internal/market/transport"
	"github.com/chord233/nft-smart-assistant/internal/middleware/logging"
	"github.com/chord233/nft-smart-assistant/internal/middleware/ratelimit"
	"github.com/chord233/nft-smart-assistant/internal/middleware/realip"
	"github.com/chord233/nft-smart-assistant/internal/middleware/security"
	"github.com/chord233/nft-smart-assistant/internal/observability/metrics"
	riskDomain "github.com/chord233/nft-smart-assistant/internal/risk/domain"
	riskTransport "github.com/chord233/nft-smart-assistant/internal/risk/transport"
	"github.com/chord233/nft-smart-assistant/internal/upstream"
)

// Server is the HTTP server
type Server struct {
	cfg       *config.Config
	supported *chains.Set
	logger    *slog.Logger
	router    *chi.Mux

	// Services typed via transport interfaces
	riskSvc   riskTransport.Service
	marketSvc marketTransport.Service
}

// New creates a new server. The supported chain set is resolved once at
// startup by the caller and injected here; the server never mutates it.
func New(cfg *config.Config, client upstream.Getter, supported *chains.Set, logger *slog.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		supported: supported,
		logger:    logger,
		router:    chi.NewRouter(),
	}

	// Create domain services
	riskImpl := riskDomain.NewService(client, supported)
	marketImpl := marketDomain.NewService(client, supported)

	// Wrap risk service with logging middleware
	s.riskSvc = riskDomain.LoggingMiddleware(logger)(riskImpl)
	s.marketSvc = marketImpl

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// MetricsHandler returns the metrics HTTP handler for separate metrics server
func (s *Server) MetricsHandler() http.Handler {
	return metrics.Handler()
}

func (s *Server) setupMiddleware() {
	// Order matters! Security middleware runs first to block malicious requests early.

	// 1. Real IP extraction (must be first to set client IP for other middleware)
	s.router.Use(realip.Middleware(realip.Config{
		TrustProxy:     s.cfg.Proxy.TrustProxy,
		TrustedProxies: s.cfg.Proxy.TrustedProxies,
	}))

	// 2. Security filter (blocks malicious patterns, bypasses health checks)
	s.router.Use(security.FilterMiddleware(s.cfg.Security.FilterEnabled))

	// 3. Body size limit
	s.router.Use(security.MaxBodySizeMiddleware(s.cfg.Security.MaxBodySizeMB))

	// 4. Rate limiting (bypasses health checks)
	s.router.Use(ratelimit.Middleware(ratelimit.Config{
		Enabled:        s.cfg.RateLimit.Enabled,
		RequestsPerMin: s.cfg.RateLimit.RequestsPerMin,
		BurstSize:      s.cfg.RateLimit.BurstSize,
		CleanupMinutes: s.cfg.RateLimit.CleanupMinutes,
	}))

	// 5. Standard middleware
	s.router.Use(middleware.RequestID)
	s.router.Use(logging.Middleware(s.logger))
	s.router.Use(metrics.Middleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	// 6. CORS (the API is read-only, so GET/OPTIONS is all browsers need)
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})
}

func (s *Server) setupRoutes() {
	// Health checks
	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/healthz", s.handleHealth)

	// Create HTTP handlers for each domain
	riskHandler := riskTransport.NewHandler(s.riskSvc)
	marketHandler := marketTransport.NewHandler(s.marketSvc)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/chains", s.handleChains)

		r.Route("/risk", func(r chi.Router) {
			riskHandler.RegisterRoutes(r)
		})
		r.Route("/market", func(r chi.Router) {
			marketHandler.RegisterRoutes(r)
		})

		// /api/blockchains lives at the top level, not under /api/market
		marketHandler.RegisterBlockchainRoutes(r)
	})
}

// handleHealth reports liveness plus the supported chain list so callers
// can populate a chain picker from a single startup request.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":           "healthy",
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
		"supported_chains": s.supported.Names(),
	})
}

func (s *Server) handleChains(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"supported_chains": s.supported.Names(),
		"default_chain":    chains.DefaultChain,
	})
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
