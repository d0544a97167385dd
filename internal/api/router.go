package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/opsdeck/tasksync/internal/extract"
	"github.com/opsdeck/tasksync/internal/store"
	"github.com/opsdeck/tasksync/internal/syncer"
	"github.com/opsdeck/tasksync/internal/tasks"
	"github.com/opsdeck/tasksync/internal/tracker"
)

// NewRouter creates the Chi router with all routes and middleware.
func NewRouter(
	db *store.DB,
	svc *tasks.Service,
	adapter *extract.Adapter,
	gateway *syncer.Gateway,
	reconciler *syncer.Reconciler,
	teamBoard *tracker.TeamBoardClient,
	apiKey string,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (runs on ALL routes including /health)
	r.Use(CORS)
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recovery(logger))

	// Handlers
	healthH := NewHealthHandler(db, teamBoard)
	taskH := NewTaskHandler(svc, adapter)
	syncH := NewSyncHandler(gateway, reconciler)

	// Unauthenticated routes
	r.Get("/health", healthH.Health)

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(apiKey))

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", taskH.List)
			r.Post("/", taskH.Create)
			r.Post("/bulk", taskH.BulkAdd)
			r.Get("/{id}", taskH.Get)
			r.Patch("/{id}", taskH.Update)
			r.Delete("/{id}", taskH.Delete)
			r.Post("/{id}/toggle", taskH.Toggle)
			r.Post("/{id}/sync/{tracker}", syncH.Push)
		})

		r.Post("/reconcile/{tracker}", syncH.Reconcile)
	})

	return r
}
