package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		r.Route("/sensors", func(r chi.Router) {
			r.Get("/current", s.handleCurrent)
			r.Get("/{serial}", s.handleHistory)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "method not allowed")
	})

	return r
}

// handleHealth returns the server health status. Readers that can check
// their storage report it; a failed check answers 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	code := http.StatusOK
	body := map[string]any{
		"status":  "ok",
		"version": s.version,
	}

	if hc, ok := s.reader.(HealthChecker); ok {
		body["storage"] = "ok"
		if err := hc.HealthCheck(r.Context()); err != nil {
			s.logger.Warn("storage health check failed", "error", err)
			code = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["storage"] = "unavailable"
		}
	}

	writeJSON(w, code, body)
}
