// Package server exposes the read-only query endpoint for the latest
// sealed run and the run history index.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"futurecast/internal/logging"
	"futurecast/internal/store"
)

// Server serves the query API. It never mutates the store.
type Server struct {
	store      *store.RunStore
	httpServer *http.Server
}

// New creates a Server bound to addr.
func New(addr string, st *store.RunStore) *Server {
	s := &Server{store: st}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the route mux. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/scenarios", s.handleScenarios)
	mux.HandleFunc("/api/runs", s.handleRuns)
	mux.HandleFunc("/healthz", s.handleHealthz)
	return mux
}

// handleScenarios serves the scenario results of the latest sealed run
// as a JSON array, or an empty array before the first run completes.
func (s *Server) handleScenarios(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	latest := s.store.Latest()
	if latest == nil {
		w.Write([]byte("[]"))
		return
	}

	if err := json.NewEncoder(w).Encode(latest.Scenarios); err != nil {
		logging.Server("failed to encode scenarios: %v", err)
	}
}

// handleRuns serves the run history index, most recent first.
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	records, err := s.store.Runs(50)
	if err != nil {
		logging.Server("failed to query run index: %v", err)
		http.Error(w, "failed to query run index", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []store.RunRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(records); err != nil {
		logging.Server("failed to encode runs: %v", err)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Start blocks serving requests until Shutdown is called or the
// listener fails.
func (s *Server) Start() error {
	logging.Server("query endpoint listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Server("query endpoint shutting down")
	return s.httpServer.Shutdown(ctx)
}
