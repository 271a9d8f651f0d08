package routes

import (
	"net/http"

	"github.com/zatekoja/Providerdiscoveryengine/internal/api/handlers"
	"github.com/zatekoja/Providerdiscoveryengine/internal/api/middleware"
	"github.com/zatekoja/Providerdiscoveryengine/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	discoveryHandler *handlers.DiscoveryHandler
	healthHandler    *handlers.HealthHandler

	metrics *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	discoveryHandler *handlers.DiscoveryHandler,
	healthHandler *handlers.HealthHandler,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:              http.NewServeMux(),
		discoveryHandler: discoveryHandler,
		healthHandler:    healthHandler,
		metrics:          metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)

	// Discovery endpoints
	r.mux.HandleFunc("POST /api/v1/discovery/search", r.discoveryHandler.Search)
	r.mux.HandleFunc("POST /api/v1/discovery/resolve", r.discoveryHandler.Resolve)

	// Middleware applies in reverse order: CORS is outermost so every
	// response, including errors, carries the headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
