// Package router assembles the chi router used by both entry points.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/RedDeadth/Typeimp-Repository/internal/handlers"
	"github.com/RedDeadth/Typeimp-Repository/internal/identity"
	"github.com/RedDeadth/Typeimp-Repository/internal/middleware"
	"github.com/RedDeadth/Typeimp-Repository/internal/observability"
)

// Options toggles optional parts of the router.
type Options struct {
	EnableCORS bool
	// ExposeMetrics serves /metrics. Only the standalone server sets it.
	ExposeMetrics bool
	// Authenticate runs before identity resolution. The standalone server
	// installs bearer token verification here; under Lambda it stays nil.
	Authenticate func(http.Handler) http.Handler
}

// Router creates and configures the HTTP router.
type Router struct {
	notes      *handlers.NoteHandler
	categories *handlers.CategoryHandler
	resolver   identity.Resolver
	metrics    *observability.Metrics
	logger     *zap.Logger
	opts       Options
}

// NewRouter creates a new router instance.
func NewRouter(
	notes *handlers.NoteHandler,
	categories *handlers.CategoryHandler,
	resolver identity.Resolver,
	metrics *observability.Metrics,
	logger *zap.Logger,
	opts Options,
) *Router {
	return &Router{
		notes:      notes,
		categories: categories,
		resolver:   resolver,
		metrics:    metrics,
		logger:     logger,
		opts:       opts,
	}
}

// Setup configures all routes and middleware.
func (rt *Router) Setup() *chi.Mux {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	if rt.metrics != nil {
		router.Use(middleware.Metrics(rt.metrics))
	}
	if rt.opts.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	router.Get("/health", handlers.Health)
	if rt.opts.ExposeMetrics && rt.metrics != nil {
		router.Handle("/metrics", rt.metrics.Handler())
	}

	router.Group(func(r chi.Router) {
		if rt.opts.Authenticate != nil {
			r.Use(rt.opts.Authenticate)
		}
		r.Use(middleware.Identity(rt.resolver, rt.logger))

		r.Route("/notes", func(r chi.Router) {
			r.Get("/", rt.notes.List)
			r.Post("/", rt.notes.Create)
			r.Get("/{id}", rt.notes.Get)
			r.Put("/{id}", rt.notes.Update)
			r.Delete("/{id}", rt.notes.Delete)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", rt.categories.List)
			r.Post("/", rt.categories.Create)
			r.Get("/{id}", rt.categories.Get)
			r.Put("/{id}", rt.categories.Update)
			r.Delete("/{id}", rt.categories.Delete)
			r.Get("/{id}/notes", rt.categories.Notes)
		})
	})

	return router
}
