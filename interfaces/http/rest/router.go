package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"secondbrain-backend/application/ports"
	"secondbrain-backend/interfaces/http/rest/handlers"
	"secondbrain-backend/interfaces/http/rest/middleware"
	"secondbrain-backend/pkg/common"
	"secondbrain-backend/pkg/observability"
	"secondbrain-backend/pkg/ratelimit"
)

// Router creates and configures the backend HTTP router
type Router struct {
	store      ports.SyncStore
	limiter    ratelimit.RateLimiter
	metrics    *observability.Collector
	logger     *zap.Logger
	enableCORS bool
}

// NewRouter creates a new router instance
func NewRouter(
	store ports.SyncStore,
	limiter ratelimit.RateLimiter,
	metrics *observability.Collector,
	logger *zap.Logger,
	enableCORS bool,
) *Router {
	return &Router{
		store:      store,
		limiter:    limiter,
		metrics:    metrics,
		logger:     logger,
		enableCORS: enableCORS,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.enableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "https://*"},
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	// Metrics
	router.Handle("/metrics", promhttp.HandlerFor(
		rt.metrics.Registry(),
		promhttp.HandlerOpts{},
	))

	// Sync protocol. The share-target extension and every device agent hit
	// these, so they sit behind the rate limiter.
	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(rt.limiter, rt.logger))

		syncHandler := handlers.NewSyncHandler(rt.store, rt.logger)
		r.Get("/sync", syncHandler.GetDocument)
		r.Post("/sync", syncHandler.PutDocument)

		clipHandler := handlers.NewClipHandler(rt.store, rt.logger)
		r.Route("/shared-clips", func(r chi.Router) {
			r.Get("/", clipHandler.ListClips)
			r.Post("/", clipHandler.AppendClip)
			r.Delete("/{key}", clipHandler.DeleteClip)
		})
	})

	return router
}

// healthCheck handles GET /health
func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// readinessCheck handles GET /ready
func (rt *Router) readinessCheck(w http.ResponseWriter, r *http.Request) {
	// The store is wired at startup; if we are serving, we are ready.
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
