package handlers

import (
	"net/http"

	"github.com/savdohub/ranking-engine/internal/application/services"
)

// HealthScoreHandler serves listing health scores to seller dashboards
type HealthScoreHandler struct {
	health *services.HealthScoreService
}

// NewHealthScoreHandler creates a new health score handler
func NewHealthScoreHandler(health *services.HealthScoreService) *HealthScoreHandler {
	return &HealthScoreHandler{health: health}
}

// GetHealth handles GET /api/listings/{id}/health
func (h *HealthScoreHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	listingID := r.PathValue("id")
	if listingID == "" {
		respondWithError(w, http.StatusBadRequest, "listing ID is required")
		return
	}

	score, err := h.health.Health(r.Context(), listingID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, score)
}
