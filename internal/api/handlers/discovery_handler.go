package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/Providerdiscoveryengine/internal/application/services"
	"github.com/zatekoja/Providerdiscoveryengine/internal/domain/entities"
	apperrors "github.com/zatekoja/Providerdiscoveryengine/pkg/errors"
)

// DiscoveryEngine is the application surface the handler depends on.
type DiscoveryEngine interface {
	Search(ctx context.Context, req *entities.SearchRequest) (*entities.SearchResponse, error)
	Resolve(ctx context.Context, req *entities.ResolveRequest) ([]services.ResolvedProvider, error)
}

// DiscoveryHandler handles discovery HTTP requests
type DiscoveryHandler struct {
	engine DiscoveryEngine
}

// NewDiscoveryHandler creates a new discovery handler
func NewDiscoveryHandler(engine DiscoveryEngine) *DiscoveryHandler {
	return &DiscoveryHandler{engine: engine}
}

// Search handles POST /api/v1/discovery/search
func (h *DiscoveryHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req entities.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Utterance) == "" {
		respondWithError(w, http.StatusBadRequest, "utterance is required")
		return
	}

	resp, err := h.engine.Search(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err, "search failed")
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}

// Resolve handles POST /api/v1/discovery/resolve
func (h *DiscoveryHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req entities.ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.NameQuery) == "" {
		respondWithError(w, http.StatusBadRequest, "name_query is required")
		return
	}

	matches, err := h.engine.Resolve(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err, "resolve failed")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"matches": matches,
		"count":   len(matches),
	})
}

// respondServiceError maps application errors onto HTTP status codes
func respondServiceError(w http.ResponseWriter, err error, fallback string) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		switch appErr.Type {
		case apperrors.ErrorTypeValidation:
			respondWithError(w, http.StatusBadRequest, appErr.Message)
		case apperrors.ErrorTypeNotFound:
			respondWithError(w, http.StatusNotFound, appErr.Message)
		case apperrors.ErrorTypeUnavailable:
			respondWithError(w, http.StatusServiceUnavailable, appErr.Message)
		default:
			log.Error().Err(err).Msg(fallback)
			respondWithError(w, http.StatusInternalServerError, fallback)
		}
		return
	}
	log.Error().Err(err).Msg(fallback)
	respondWithError(w, http.StatusInternalServerError, fallback)
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
