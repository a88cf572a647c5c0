package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter constructs the chi router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Middleware stack (order matters: request ID first so everything
	// downstream can log it).
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/washer", func(r chi.Router) {
			r.Get("/", s.handleGetWasher)
			r.Get("/attributes", s.handleListAttributes)
			r.Get("/attributes/{key}", s.handleGetAttribute)
			r.Post("/attributes/{key}/query", s.handleQueryAttribute)
			r.Post("/commands/{key}", s.handleSendCommand)
			r.Get("/history", s.handleGetHistory)
		})
	})

	// WebSocket endpoint for real-time state updates.
	wsPath := s.wsCfg.Path
	if wsPath == "" {
		wsPath = "/ws"
	}
	r.Get(wsPath, s.handleWebSocket)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "route not found")
	})

	return r
}
