package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/savdohub/ranking-engine/internal/application/services"
	"github.com/savdohub/ranking-engine/internal/domain/entities"
)

// ExperimentHandler exposes variant assignment and experiment
// analytics to other product surfaces
type ExperimentHandler struct {
	experiments *services.ExperimentService
}

// NewExperimentHandler creates a new experiment handler
func NewExperimentHandler(experiments *services.ExperimentService) *ExperimentHandler {
	return &ExperimentHandler{experiments: experiments}
}

// Assign handles GET /api/experiments/assign
func (h *ExperimentHandler) Assign(w http.ResponseWriter, r *http.Request) {
	experimentID := r.URL.Query().Get("experiment_id")
	subjectID := r.URL.Query().Get("subject_id")
	experimentType := entities.ExperimentType(r.URL.Query().Get("type"))

	if experimentID == "" || subjectID == "" {
		respondWithError(w, http.StatusBadRequest, "experiment_id and subject_id are required")
		return
	}
	if !experimentType.Valid() {
		respondWithError(w, http.StatusBadRequest, "unknown experiment type")
		return
	}

	variant := h.experiments.Assign(experimentID, subjectID, experimentType)

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"experiment_id": experimentID,
		"subject_id":    subjectID,
		"type":          experimentType,
		"variant":       variant,
	})
}

type exposureRequest struct {
	ExperimentID string            `json:"experiment_id"`
	SubjectID    string            `json:"subject_id"`
	Type         string            `json:"type"`
	ListingID    string            `json:"listing_id"`
	Metadata     map[string]string `json:"metadata"`
}

// RecordExposure handles POST /api/experiments/exposure
func (h *ExperimentHandler) RecordExposure(w http.ResponseWriter, r *http.Request) {
	var req exposureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	experimentType := entities.ExperimentType(req.Type)
	if req.ExperimentID == "" || req.SubjectID == "" || !experimentType.Valid() {
		respondWithError(w, http.StatusBadRequest, "experiment_id, subject_id and a valid type are required")
		return
	}

	h.experiments.RecordExposure(req.ExperimentID, req.SubjectID, experimentType, req.ListingID, req.Metadata)

	respondWithJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

type conversionRequest struct {
	ExperimentID string `json:"experiment_id"`
	SubjectID    string `json:"subject_id"`
	Type         string `json:"type"`
}

// RecordConversion handles POST /api/experiments/conversion
func (h *ExperimentHandler) RecordConversion(w http.ResponseWriter, r *http.Request) {
	var req conversionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	experimentType := entities.ExperimentType(req.Type)
	if req.ExperimentID == "" || req.SubjectID == "" || !experimentType.Valid() {
		respondWithError(w, http.StatusBadRequest, "experiment_id, subject_id and a valid type are required")
		return
	}

	h.experiments.RecordConversion(req.ExperimentID, req.SubjectID, experimentType)

	respondWithJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// GetResults handles GET /api/experiments/{id}/results
func (h *ExperimentHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	experimentID := r.PathValue("id")
	experimentType := entities.ExperimentType(r.URL.Query().Get("type"))

	if experimentID == "" {
		respondWithError(w, http.StatusBadRequest, "experiment ID is required")
		return
	}
	if !experimentType.Valid() {
		respondWithError(w, http.StatusBadRequest, "unknown experiment type")
		return
	}

	results, err := h.experiments.Results(r.Context(), experimentID, experimentType)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"experiment_id": experimentID,
		"type":          experimentType,
		"results":       results,
	})
}
