// Package adminhttp exposes a small read-only observability surface over
// the recovery agent: liveness, the current Reporter snapshot and
// Prometheus metrics. Nothing here can mutate Controller state.
package adminhttp

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sequenceiq/ambari-agent/internal/report"
)

// Server is the admin HTTP surface.
type Server struct {
	reporter *report.Reporter
	log      *slog.Logger
}

// New builds a Server over reporter. log may be nil, defaulting to
// slog.Default().
func New(reporter *report.Reporter, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{reporter: reporter, log: log}
}

// Handler builds the mux.Router serving /healthz, /recovery/report and
// /metrics.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	router.HandleFunc("/recovery/report", s.handleReport).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return router
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	snap := s.reporter.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		s.log.Error("failed to encode recovery report", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
