// Package local is the loopback HTTP surface the UI talks to on-device:
// repository mutations, the pending-clip badge count, and sync controls.
package local

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"secondbrain-backend/application/repository"
	"secondbrain-backend/interfaces/http/rest/middleware"
	"secondbrain-backend/pkg/common"
	"secondbrain-backend/pkg/observability"
	syncengine "secondbrain-backend/sync"
)

// Router creates and configures the agent's loopback router
type Router struct {
	repo    *repository.Repository
	engine  *syncengine.Engine
	metrics *observability.Collector
	logger  *zap.Logger

	// setSyncID persists the new identity (device file) before handing it
	// to the engine.
	setSyncID func(id string) error
}

// NewRouter creates a new loopback router
func NewRouter(
	repo *repository.Repository,
	engine *syncengine.Engine,
	metrics *observability.Collector,
	logger *zap.Logger,
	setSyncID func(id string) error,
) *Router {
	return &Router{
		repo:      repo,
		engine:    engine,
		metrics:   metrics,
		logger:    logger,
		setSyncID: setSyncID,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		common.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	router.Handle("/metrics", promhttp.HandlerFor(
		rt.metrics.Registry(),
		promhttp.HandlerOpts{},
	))

	router.Route("/v1", func(r chi.Router) {
		memoryHandler := NewMemoryHandler(rt.repo, rt.logger)
		r.Route("/memories", func(r chi.Router) {
			r.Post("/", memoryHandler.CreateMemory)
			r.Get("/", memoryHandler.ListMemories)
			r.Get("/{memoryID}", memoryHandler.GetMemory)
			r.Patch("/{memoryID}", memoryHandler.UpdateMemory)
			r.Delete("/{memoryID}", memoryHandler.DeleteMemory)
			r.Post("/bulk-delete", memoryHandler.BulkDeleteMemories)
		})

		taskHandler := NewTaskHandler(rt.repo, rt.logger)
		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", taskHandler.CreateTask)
			r.Get("/", taskHandler.ListTasks)
			r.Patch("/{taskID}", taskHandler.UpdateTask)
			r.Delete("/{taskID}", taskHandler.DeleteTask)
		})

		courseHandler := NewCourseHandler(rt.repo, rt.logger)
		r.Route("/courses", func(r chi.Router) {
			r.Get("/", courseHandler.ListCourses)
			r.Post("/", courseHandler.AddCourse)
		})

		syncHandler := NewSyncControlHandler(rt.engine, rt.setSyncID, rt.logger)
		r.Get("/document", syncHandler.GetDocument)
		r.Put("/sync-id", syncHandler.SetSyncID)
		r.Route("/clips", func(r chi.Router) {
			r.Get("/pending", syncHandler.PendingClips)
			r.Post("/drain", syncHandler.DrainClips)
		})
	})

	return router
}
