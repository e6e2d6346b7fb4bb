package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/savdohub/ranking-engine/internal/adapters/cache"
	"github.com/savdohub/ranking-engine/internal/adapters/database"
	"github.com/savdohub/ranking-engine/internal/adapters/events"
	"github.com/savdohub/ranking-engine/internal/adapters/search"
	"github.com/savdohub/ranking-engine/internal/api/handlers"
	"github.com/savdohub/ranking-engine/internal/api/middleware"
	"github.com/savdohub/ranking-engine/internal/api/routes"
	"github.com/savdohub/ranking-engine/internal/application/services"
	"github.com/savdohub/ranking-engine/internal/domain/providers"
	"github.com/savdohub/ranking-engine/internal/infrastructure/clients/postgres"
	"github.com/savdohub/ranking-engine/internal/infrastructure/clients/redis"
	"github.com/savdohub/ranking-engine/internal/infrastructure/clients/typesense"
	"github.com/savdohub/ranking-engine/internal/infrastructure/observability"
	"github.com/savdohub/ranking-engine/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	var shutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err = observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			zlog.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					zlog.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			zlog.Info().Msg("OpenTelemetry initialized")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()
	zlog.Info().Msg("PostgreSQL client initialized")

	// Initialize Redis client. The engine degrades without it: no quality
	// snapshot cache, no HTTP cache, no event bus.
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		zlog.Warn().Err(err).Msg("failed to initialize Redis client, continuing without cache")
		redisClient = nil
	} else {
		defer redisClient.Close()
		zlog.Info().Msg("Redis client initialized")
	}

	// Initialize Typesense client. Without it candidate retrieval falls
	// back to the recency feed.
	typesenseClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		zlog.Warn().Err(err).Msg("failed to initialize Typesense client, using recency feed for candidates")
		typesenseClient = nil
	} else {
		zlog.Info().Msg("Typesense client initialized")
	}

	// Initialize adapters
	listingAdapter := database.NewListingAdapter(pgClient)
	tagSignalAdapter := database.NewTagSignalAdapter(pgClient)
	interactionAdapter := database.NewInteractionAdapter(pgClient)
	experimentAdapter := database.NewExperimentAdapter(pgClient)

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient)
		zlog.Info().Msg("event bus initialized")
	} else {
		zlog.Info().Msg("event bus disabled (Redis not available)")
	}

	// Drop stale quality snapshots when interactions move the aggregates
	var cacheInvalidation *services.CacheInvalidationService
	if cacheProvider != nil && eventBus != nil {
		cacheInvalidation = services.NewCacheInvalidationService(cacheProvider, eventBus)
		if err := cacheInvalidation.Start(); err != nil {
			zlog.Warn().Err(err).Msg("failed to start cache invalidation service")
			cacheInvalidation = nil
		}
	}

	var candidateSource providers.CandidateSource
	if typesenseClient != nil {
		candidateSource = search.NewTypesenseAdapter(typesenseClient)
	}

	// Initialize services
	signalReadTimeout := time.Duration(cfg.Engine.SignalReadTimeoutMs) * time.Millisecond

	var relevanceService *services.TextRelevanceService
	if cfg.Engine.SynonymsPath != "" {
		relevanceService, err = services.NewTextRelevanceServiceFromFile(cfg.Engine.SynonymsPath)
		if err != nil {
			zlog.Warn().Err(err).Str("path", cfg.Engine.SynonymsPath).Msg("failed to load synonyms file, using built-in table")
			relevanceService = services.NewTextRelevanceService()
		}
	} else {
		relevanceService = services.NewTextRelevanceService()
	}

	qualityService := services.NewTagQualityService(
		tagSignalAdapter,
		cacheProvider,
		signalReadTimeout,
		cfg.Engine.QualityCacheTTLSeconds,
	)
	qualityService.SetMetrics(metrics)

	personalizationService := services.NewPersonalizationService(
		interactionAdapter,
		cfg.Engine.PreferenceWindowDays,
		signalReadTimeout,
	)

	rankingService := services.NewRankingService(
		relevanceService,
		qualityService,
		personalizationService,
		cfg.Engine.MaxScoringConcurrency,
	)
	rankingService.SetMetrics(metrics)

	experimentService := services.NewExperimentService(experimentAdapter)
	trackingService := services.NewInteractionTrackingService(interactionAdapter, eventBus)
	healthScoreService := services.NewHealthScoreService(
		listingAdapter,
		interactionAdapter,
		rankingService,
		candidateSource,
	)

	// Initialize handlers
	rankingHandler := handlers.NewRankingHandler(
		listingAdapter,
		candidateSource,
		rankingService,
		experimentService,
		cfg.Engine.RankingExperimentID,
	)
	healthScoreHandler := handlers.NewHealthScoreHandler(healthScoreService)
	experimentHandler := handlers.NewExperimentHandler(experimentService)
	interactionHandler := handlers.NewInteractionHandler(trackingService)
	tagHandler := handlers.NewTagHandler(qualityService)

	// Initialize cache middleware
	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider)
		zlog.Info().Msg("cache middleware initialized")
	}

	// Set up router
	router := routes.NewRouter(
		rankingHandler,
		healthScoreHandler,
		experimentHandler,
		interactionHandler,
		tagHandler,
		cacheMiddleware,
		metrics,
	)

	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		zlog.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Err(err).Msg("error during server shutdown")
	}

	if cacheInvalidation != nil {
		cacheInvalidation.Stop()
	}

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			zlog.Error().Err(err).Msg("error closing event bus")
		}
	}

	zlog.Info().Msg("server stopped")
}
