package routes

import (
	"net/http"

	"github.com/savdohub/ranking-engine/internal/api/handlers"
	"github.com/savdohub/ranking-engine/internal/api/middleware"
	"github.com/savdohub/ranking-engine/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	rankingHandler     *handlers.RankingHandler
	healthScoreHandler *handlers.HealthScoreHandler
	experimentHandler  *handlers.ExperimentHandler
	interactionHandler *handlers.InteractionHandler
	tagHandler         *handlers.TagHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	rankingHandler *handlers.RankingHandler,
	healthScoreHandler *handlers.HealthScoreHandler,
	experimentHandler *handlers.ExperimentHandler,
	interactionHandler *handlers.InteractionHandler,
	tagHandler *handlers.TagHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux: http.NewServeMux(),

		rankingHandler:     rankingHandler,
		healthScoreHandler: healthScoreHandler,
		experimentHandler:  experimentHandler,
		interactionHandler: interactionHandler,
		tagHandler:         tagHandler,

		cacheMiddleware: cacheMiddleware,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Ranking endpoint
	r.mux.HandleFunc("POST /api/rank", r.rankingHandler.Rank)

	// Listing health endpoint
	r.mux.HandleFunc("GET /api/listings/{id}/health", r.healthScoreHandler.GetHealth)

	// Experiment endpoints
	r.mux.HandleFunc("GET /api/experiments/assign", r.experimentHandler.Assign)
	r.mux.HandleFunc("POST /api/experiments/exposure", r.experimentHandler.RecordExposure)
	r.mux.HandleFunc("POST /api/experiments/conversion", r.experimentHandler.RecordConversion)
	r.mux.HandleFunc("GET /api/experiments/{id}/results", r.experimentHandler.GetResults)

	// Interaction ingestion endpoint
	r.mux.HandleFunc("POST /api/interactions", r.interactionHandler.Track)

	// Tag quality endpoint
	r.mux.HandleFunc("GET /api/tags/{tag}/quality", r.tagHandler.GetQuality)

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so cached responses also get CORS headers.

	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(*observability.GetLogger())(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	handler = middleware.ResponseOptimization(handler)

	handler = middleware.CORSMiddleware(handler)

	return handler
}
