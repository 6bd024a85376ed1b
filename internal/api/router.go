// Package api is the producer HTTP API.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/taskbase/taskbase/internal/auth"
	"github.com/taskbase/taskbase/internal/middleware"
)

// Dependencies are the collaborators of the router. Auth is optional; when
// nil the task routes are served without authentication.
type Dependencies struct {
	Tasks  TaskService
	Store  Pinger
	Auth   *auth.Service
	Logger *slog.Logger
}

// NewRouter creates and configures the API router
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "api")

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))

	healthHandler := NewHealthHandler(deps.Store)
	taskHandler := NewTaskHandler(deps.Tasks, logger)

	// Public routes (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	r.Route("/api/v1", func(r chi.Router) {
		if deps.Auth != nil {
			r.Use(middleware.JWTAuth(deps.Auth))
		}

		r.Get("/namespaces", taskHandler.ListNamespaces)
		r.Post("/namespaces/{namespace}/notify", taskHandler.Notify)
		r.Post("/tasks", taskHandler.Push)
	})

	return r
}
