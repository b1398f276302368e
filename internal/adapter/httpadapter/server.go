package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/i79-incident-etl/internal/domain"
)

// DatasetProvider returns the most recently published dataset, if any.
type DatasetProvider interface {
	Latest() (domain.Dataset, bool)
}

// Server exposes health, readiness, metrics and the latest dataset over HTTP.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and
// /incidents routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, datasets DatasetProvider, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /incidents", s.incidentsHandler(datasets))

	return s
}

// incidentsHandler serves the latest dataset, or 503 before the first run
// completes.
func (s *Server) incidentsHandler(datasets DatasetProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		ds, ok := datasets.Latest()
		if !ok {
			http.Error(w, "no dataset published yet", http.StatusServiceUnavailable)
			return
		}
		if ds.Incidents == nil {
			ds.Incidents = []domain.Incident{}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(ds); err != nil {
			s.logger.Warn("write incidents response", "error", err)
		}
	}
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
