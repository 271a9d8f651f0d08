package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports service and dependency health
type HealthHandler struct {
	dependencies map[string]Pinger
}

// NewHealthHandler creates a health handler. Nil dependencies are skipped so
// optional services don't report as down when deliberately not configured.
func NewHealthHandler(dependencies map[string]Pinger) *HealthHandler {
	filtered := make(map[string]Pinger, len(dependencies))
	for name, dep := range dependencies {
		if dep != nil {
			filtered[name] = dep
		}
	}
	return &HealthHandler{dependencies: filtered}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.dependencies))
	for name, dep := range h.dependencies {
		if err := dep.Ping(ctx); err != nil {
			deps[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "up"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}

	respondWithJSON(w, status, map[string]interface{}{
		"status":       overall,
		"dependencies": deps,
	})
}
