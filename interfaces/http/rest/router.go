package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"cdm-backend/application/ports"
	"cdm-backend/interfaces/http/rest/handlers"
	"cdm-backend/interfaces/http/rest/middleware"
	"cdm-backend/pkg/common"
)

// Router creates and configures the HTTP router
type Router struct {
	graphs      ports.GraphRepository
	layouts     ports.LayoutRepository
	visits      handlers.VisitStore
	metrics     handlers.MetricStore
	audit       ports.AuditLog
	graphPeers  ports.GraphChannel
	layoutPeers ports.LayoutChannel
	secret      string
	enableCORS  bool
	logger      *zap.Logger
}

// RouterOptions carries the router's dependencies. The peer channels are
// optional; when set, successful writes are relayed to connected clients.
type RouterOptions struct {
	Graphs            ports.GraphRepository
	Layouts           ports.LayoutRepository
	Visits            handlers.VisitStore
	Metrics           handlers.MetricStore
	Audit             ports.AuditLog
	GraphPeers        ports.GraphChannel
	LayoutPeers       ports.LayoutChannel
	EditorTokenSecret string
	EnableCORS        bool
	Logger            *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(opts RouterOptions) *Router {
	return &Router{
		graphs:      opts.Graphs,
		layouts:     opts.Layouts,
		visits:      opts.Visits,
		metrics:     opts.Metrics,
		audit:       opts.Audit,
		graphPeers:  opts.GraphPeers,
		layoutPeers: opts.LayoutPeers,
		secret:      opts.EditorTokenSecret,
		enableCORS:  opts.EnableCORS,
		logger:      opts.Logger,
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
	router.Use(middleware.Identity(rt.secret))

	if rt.enableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	graphHandler := handlers.NewGraphHandler(rt.graphs, rt.audit, rt.graphPeers, rt.logger)
	layoutHandler := handlers.NewLayoutHandler(rt.layouts, rt.layoutPeers, rt.logger)
	telemetryHandler := handlers.NewTelemetryHandler(rt.visits, rt.metrics, rt.audit, rt.logger)

	// Flat per-resource routes, the surface the workspace clients call
	router.Get("/graph/{graphID}", graphHandler.GetGraph)
	router.With(middleware.RequireEditor()).Put("/graph/{graphID}", graphHandler.PutGraph)
	router.Get("/layout/{graphID}", layoutHandler.GetLayout)
	router.With(middleware.RequireEditor()).Put("/layout/{graphID}", layoutHandler.PutLayout)
	router.Post("/visits", telemetryHandler.PostVisit)
	router.Post("/metrics", telemetryHandler.PostMetric)
	router.Get("/audit/events", telemetryHandler.ListAuditEvents)

	// Management surface: listings, scheduling status, telemetry read-back
	router.Route("/api", func(r chi.Router) {
		r.Route("/graphs", func(r chi.Router) {
			r.Get("/", graphHandler.ListGraphs)
			r.Get("/{graphID}", graphHandler.GetGraph)
			r.Get("/{graphID}/blocked", graphHandler.GetBlocked)
			r.With(middleware.RequireEditor()).Put("/{graphID}", graphHandler.PutGraph)
		})

		r.Route("/layouts", func(r chi.Router) {
			r.Get("/{graphID}", layoutHandler.GetLayout)
			r.With(middleware.RequireEditor()).Put("/{graphID}", layoutHandler.PutLayout)
		})

		r.Route("/visits", func(r chi.Router) {
			r.Post("/", telemetryHandler.PostVisit)
			r.Get("/", telemetryHandler.ListVisits)
		})
		r.Route("/metrics", func(r chi.Router) {
			r.Post("/", telemetryHandler.PostMetric)
			r.Get("/", telemetryHandler.ListMetrics)
		})
		r.Get("/audit/events", telemetryHandler.ListAuditEvents)
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (rt *Router) readinessCheck(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
