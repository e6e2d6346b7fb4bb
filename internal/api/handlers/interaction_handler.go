package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/savdohub/ranking-engine/internal/application/services"
	"github.com/savdohub/ranking-engine/internal/domain/entities"
)

// InteractionHandler ingests interaction events from the surrounding
// application
type InteractionHandler struct {
	tracking *services.InteractionTrackingService
}

// NewInteractionHandler creates a new interaction handler
func NewInteractionHandler(tracking *services.InteractionTrackingService) *InteractionHandler {
	return &InteractionHandler{tracking: tracking}
}

// Track handles POST /api/interactions
func (h *InteractionHandler) Track(w http.ResponseWriter, r *http.Request) {
	var interaction entities.Interaction
	if err := json.NewDecoder(r.Body).Decode(&interaction); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.tracking.Track(r.Context(), &interaction); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}
