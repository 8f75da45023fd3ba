package http

import (
	"net/http"

	"github.com/avoronov/keepsync/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
)

// NewRouter constructs the HTTP handler serving the runtime surface:
//
//	POST /api/trigger → fire one pipeline invocation
//	GET  /api/health  → liveness probe
//
// Every request is logged through the request-logging middleware.
func NewRouter(triggerHandler *TriggerHandler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	r.Route("/api", func(r chi.Router) {
		r.Post("/trigger", triggerHandler.Trigger)
		r.Get("/health", triggerHandler.Health)
	})

	return r
}
