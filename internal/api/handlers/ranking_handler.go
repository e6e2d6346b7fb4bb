package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/savdohub/ranking-engine/internal/application/services"
	"github.com/savdohub/ranking-engine/internal/domain/entities"
	"github.com/savdohub/ranking-engine/internal/domain/providers"
	"github.com/savdohub/ranking-engine/internal/domain/repositories"
)

const (
	defaultRankLimit = 50
	maxRankLimit     = 100
)

// RankingHandler handles ranking requests
type RankingHandler struct {
	listings            repositories.ListingRepository
	candidates          providers.CandidateSource
	ranking             *services.RankingService
	experiments         *services.ExperimentService
	rankingExperimentID string
}

// NewRankingHandler creates a new ranking handler. candidates may be
// nil; candidate retrieval then falls back to the recency feed.
func NewRankingHandler(listings repositories.ListingRepository, candidates providers.CandidateSource, ranking *services.RankingService, experiments *services.ExperimentService, rankingExperimentID string) *RankingHandler {
	return &RankingHandler{
		listings:            listings,
		candidates:          candidates,
		ranking:             ranking,
		experiments:         experiments,
		rankingExperimentID: rankingExperimentID,
	}
}

type rankRequest struct {
	Query      string   `json:"query"`
	UserID     string   `json:"user_id"`
	ListingIDs []string `json:"listing_ids"`
	Limit      int      `json:"limit"`
}

type rankedItem struct {
	ListingID string             `json:"listing_id"`
	Title     string             `json:"title"`
	Score     float64            `json:"score"`
	Breakdown map[string]float64 `json:"breakdown,omitempty"`
}

// Rank handles POST /api/rank
func (h *RankingHandler) Rank(w http.ResponseWriter, r *http.Request) {
	var req rankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Limit <= 0 {
		req.Limit = defaultRankLimit
	}
	if req.Limit > maxRankLimit {
		req.Limit = maxRankLimit
	}

	candidates, err := h.resolveCandidates(r, &req)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	formula := services.FormulaStandard
	variant := entities.Variant("")
	if req.UserID != "" {
		variant = h.experiments.Assign(h.rankingExperimentID, req.UserID, entities.ExperimentRankingFormula)
		formula = services.FormulaForVariant(variant)
		h.experiments.RecordExposure(h.rankingExperimentID, req.UserID, entities.ExperimentRankingFormula, "", map[string]string{
			"formula": string(formula),
		})
	}

	ranked := h.ranking.Rank(r.Context(), req.Query, candidates, req.UserID, formula)
	if len(ranked) > req.Limit {
		ranked = ranked[:req.Limit]
	}

	items := make([]rankedItem, len(ranked))
	for i, result := range ranked {
		items[i] = rankedItem{
			ListingID: result.Listing.ID,
			Title:     result.Listing.Title,
			Score:     result.Score,
			Breakdown: result.Breakdown,
		}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"query":   req.Query,
		"formula": formula,
		"variant": variant,
		"count":   len(items),
		"results": items,
	})
}

// resolveCandidates picks the candidate set: caller-supplied ids win,
// then the search backend, then the recency feed
func (h *RankingHandler) resolveCandidates(r *http.Request, req *rankRequest) ([]*entities.Listing, error) {
	if len(req.ListingIDs) > 0 {
		return h.listings.GetByIDs(r.Context(), req.ListingIDs)
	}

	if req.Query != "" && h.candidates != nil {
		listings, err := h.candidates.Search(r.Context(), req.Query, req.Limit)
		if err == nil {
			return listings, nil
		}
		// Search backend down: recency feed still gives the engine
		// something to order.
	}

	return h.listings.ListRecent(r.Context(), req.Limit)
}
