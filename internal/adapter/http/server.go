package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/transit-ranking-etl/internal/domain"
	"github.com/couchcryptid/transit-ranking-etl/internal/pipeline"
	"github.com/couchcryptid/transit-ranking-etl/internal/render"
)

// Refresher runs refreshes on demand and keeps the latest result.
type Refresher interface {
	sharedobs.ReadinessChecker
	Refresh(ctx context.Context) (pipeline.Run, error)
	Latest() (pipeline.Run, bool)
}

// Server exposes health, readiness, metrics, and the report endpoints.
type Server struct {
	httpServer *http.Server
	refresher  Refresher
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, /report,
// and /refresh routes. writeTimeout must cover a full refresh.
func NewServer(addr string, refresher Refresher, writeTimeout time.Duration, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: writeTimeout,
			IdleTimeout:  60 * time.Second,
		},
		refresher: refresher,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(refresher))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /report", s.handleReport)
	mux.HandleFunc("POST /refresh", s.handleRefresh)

	return s
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

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	run, ok := s.refresher.Latest()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no report available yet"})
		return
	}
	s.writeRun(w, r, http.StatusOK, run)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	run, err := s.refresher.Refresh(r.Context())
	if err != nil {
		status := refreshStatus(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("manual refresh failed", "run_id", run.ID, "status", status, "error", err)
		}
		writeJSON(w, status, map[string]string{"run_id": run.ID, "error": err.Error()})
		return
	}
	s.writeRun(w, r, http.StatusOK, run)
}

func (s *Server) writeRun(w http.ResponseWriter, r *http.Request, status int, run pipeline.Run) {
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		if err := render.Text(w, run); err != nil {
			s.logger.Warn("write text report", "error", err)
		}
		return
	}
	writeJSON(w, status, run)
}

// refreshStatus maps a refresh failure to an HTTP status code.
func refreshStatus(err error) int {
	var authErr *domain.AuthenticationError
	var fetchErr *domain.FetchError
	switch {
	case errors.Is(err, pipeline.ErrRefreshInProgress):
		return http.StatusConflict
	case errors.As(err, &authErr):
		return http.StatusServiceUnavailable
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
