// Package httpapi serves the read-only status endpoints. It is optional:
// the monitor runs it only when a bind address is configured.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/arunkv/aqi-monitor/internal/status"
)

type Server struct {
	Logger *zap.Logger
	Status *status.Store
}

func NewServer(l *zap.Logger, st *status.Store) *Server {
	return &Server{Logger: l, Status: st}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/api/status", s.handleStatus)
	r.Get("/api/last", s.handleLastReading)

	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.Status.Snapshot())
}

func (s *Server) handleLastReading(w http.ResponseWriter, r *http.Request) {
	snap := s.Status.Snapshot()
	if snap.LastReading == nil {
		s.Logger.Info("last_reading_unavailable", zap.Int64("cycles", snap.Cycles))
		http.Error(w, "no reading yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snap.LastReading)
}
