package handlers

import (
	"net/http"

	"github.com/savdohub/ranking-engine/internal/application/services"
)

// TagHandler serves per-tag quality scores for recommendation UIs
type TagHandler struct {
	quality *services.TagQualityService
}

// NewTagHandler creates a new tag handler
func NewTagHandler(quality *services.TagQualityService) *TagHandler {
	return &TagHandler{quality: quality}
}

// GetQuality handles GET /api/tags/{tag}/quality
func (h *TagHandler) GetQuality(w http.ResponseWriter, r *http.Request) {
	tag := r.PathValue("tag")
	if tag == "" {
		respondWithError(w, http.StatusBadRequest, "tag is required")
		return
	}

	result, err := h.quality.QualityScore(r.Context(), tag)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}
