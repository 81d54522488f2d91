// Package server exposes the session over a small HTTP JSON API. It is
// presentation glue: every handler delegates to the session and renders the
// result.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mike-a-ellis/docqa/internal/session"
)

// Server wraps the session with HTTP handlers.
type Server struct {
	session *session.Session
	logger  *slog.Logger
}

// New creates a Server over the given session.
func New(sess *session.Session, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		session: sess,
		logger:  logger,
	}
}

// Handler returns the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/upload", s.handleUpload)
	mux.HandleFunc("POST /api/ask", s.handleAsk)
	mux.HandleFunc("POST /api/clear", s.handleClear)
	return mux
}

// ListenAndServe runs the HTTP server until it fails.
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("Starting HTTP server", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// HealthResponse is the JSON body of the health endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Store     string `json:"store"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.session.Status(r.Context())

	response := HealthResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if status.Store.Status == "error" {
		response.Status = "unhealthy"
		response.Store = "disconnected"
		writeJSON(w, http.StatusServiceUnavailable, response)
		return
	}
	response.Status = "healthy"
	response.Store = "connected"
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Status(r.Context()))
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}
