// Package metrics provides Prometheus instrumentation for the relay.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Middleware returns HTTP middleware for request metrics.
func Middleware(next http.Handler) http.Handler {
	if !enabled {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			duration := time.Since(start).Seconds()

			// Normalize path to avoid high cardinality from addresses
			path := normalizePath(r.URL.Path)

			httpRequestsTotal.WithLabelValues(
				r.Method,
				path,
				strconv.Itoa(rw.status),
			).Inc()

			httpDuration.WithLabelValues(
				r.Method,
				path,
			).Observe(duration)
		}()

		next.ServeHTTP(rw, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader captures status code.
func (rw *responseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

// normalizePath collapses the chain and contract-address path segments to
// placeholders so each route yields one label value. For example:
//
//	/api/risk/comprehensive/ethereum/0xBC4C... -> /api/risk/comprehensive/{chain}/{address}
//	/api/market/metrics/polygon               -> /api/market/metrics/{chain}
func normalizePath(path string) string {
	switch path {
	case "/api/health", "/api/chains", "/api/blockchains", "/metrics":
		return path
	}

	if rest, ok := strings.CutPrefix(path, "/api/risk/"); ok {
		parts := strings.Split(strings.TrimSuffix(rest, "/"), "/")
		switch len(parts) {
		case 2:
			return "/api/risk/" + parts[0] + "/{chain}"
		case 3:
			return "/api/risk/" + parts[0] + "/{chain}/{address}"
		}
		return path
	}

	if rest, ok := strings.CutPrefix(path, "/api/market/"); ok {
		parts := strings.Split(strings.TrimSuffix(rest, "/"), "/")
		if len(parts) == 2 {
			return "/api/market/" + parts[0] + "/{chain}"
		}
		return path
	}

	return path
}
