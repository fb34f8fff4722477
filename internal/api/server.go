// Package api exposes the browsing services over a thin JSON/HTTP surface.
// Routing and validation are deliberately minimal; the interesting behavior
// lives in the service layer.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/joonhak/tripmarket/internal/logging"
	"github.com/joonhak/tripmarket/internal/metrics"
	"github.com/joonhak/tripmarket/internal/observability"
	"github.com/joonhak/tripmarket/internal/service"
)

// Pinger reports backend connectivity for health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ServerConfig carries the handler dependencies.
type ServerConfig struct {
	Curations *service.CurationService
	Products  *service.ProductService
	Metrics   *metrics.Metrics
	DB        Pinger // optional
	Cache     Pinger // optional
}

// StartHTTPServer builds the mux and starts serving on addr. The returned
// server is already listening; callers own Shutdown.
func StartHTTPServer(addr string, cfg ServerConfig) *http.Server {
	h := &Handler{
		curations: cfg.Curations,
		products:  cfg.Products,
		db:        cfg.DB,
		cache:     cfg.Cache,
	}

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	mux.Handle("GET /metrics", cfg.Metrics.Handler())

	var handler http.Handler = mux
	handler = observability.HTTPMiddleware(handler)
	handler = accessLog(cfg.Metrics)(handler)

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Op().Error("HTTP server error", "error", err)
		}
	}()

	return server
}

// accessLog tags every request with an id, logs it, and records metrics.
func accessLog(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := uuid.NewString()
			w.Header().Set("X-Request-Id", requestID)

			rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			elapsed := time.Since(start)
			m.ObserveHTTP(r.Method, rw.status, elapsed)
			logging.Op().Info("request",
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"status", rw.status,
				"duration_ms", elapsed.Milliseconds(),
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
