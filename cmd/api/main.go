package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/Providerdiscoveryengine/internal/adapters/cache"
	"github.com/zatekoja/Providerdiscoveryengine/internal/adapters/database"
	"github.com/zatekoja/Providerdiscoveryengine/internal/adapters/providers/geolocation"
	"github.com/zatekoja/Providerdiscoveryengine/internal/adapters/search"
	"github.com/zatekoja/Providerdiscoveryengine/internal/api/handlers"
	"github.com/zatekoja/Providerdiscoveryengine/internal/api/routes"
	"github.com/zatekoja/Providerdiscoveryengine/internal/application/services"
	"github.com/zatekoja/Providerdiscoveryengine/internal/domain/providers"
	"github.com/zatekoja/Providerdiscoveryengine/internal/domain/repositories"
	"github.com/zatekoja/Providerdiscoveryengine/internal/infrastructure/clients/openai"
	"github.com/zatekoja/Providerdiscoveryengine/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/Providerdiscoveryengine/internal/infrastructure/clients/redis"
	"github.com/zatekoja/Providerdiscoveryengine/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/Providerdiscoveryengine/internal/infrastructure/observability"
	"github.com/zatekoja/Providerdiscoveryengine/pkg/config"
)

func main() {
	// Load .env in development; a missing file is fine
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger("provider-discovery-engine", cfg.Server.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// OpenTelemetry is opt-in
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// The provider catalog is the one hard dependency
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()
	log.Info().Msg("PostgreSQL client initialized")

	// Redis and Typesense degrade gracefully when absent
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, continuing without caching")
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Info().Msg("Redis client initialized")
	}

	typesenseClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Warn().Err(err).Msg("Typesense unavailable, semantic retrieval disabled")
		typesenseClient = nil
	} else {
		log.Info().Msg("Typesense client initialized")
	}

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	providerAdapter := database.NewProviderAdapter(pgClient)

	var vectorRepo repositories.ServiceVectorRepository
	if typesenseClient != nil {
		adapter := search.NewTypesenseAdapter(typesenseClient)
		if err := typesenseClient.InitSchema(context.Background()); err != nil {
			log.Warn().Err(err).Msg("failed to init Typesense schema")
		}
		vectorRepo = adapter
	}

	var embedder providers.EmbeddingProvider
	if cfg.Embedding.APIKey == "" {
		log.Warn().Msg("EMBEDDING_API_KEY is not set, semantic retrieval disabled")
	} else {
		embeddingClient, err := openai.NewEmbeddingClient(&cfg.Embedding)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize embedding client")
		} else {
			embedder = embeddingClient
		}
	}

	geolocationProvider := geolocation.NewFromConfig(cfg.Geolocation, cacheProvider)

	// Wire the discovery pipeline
	extractor := services.NewSignalExtractionService()
	if cacheProvider != nil {
		extractor.SetCache(cacheProvider, cfg.Engine.SignalCacheSeconds)
	}

	stateService := services.NewConversationStateService()
	retrievalService := services.NewRetrievalService(providerAdapter, vectorRepo, embedder, cfg.Engine.SemanticWait)
	rankingService := services.NewRankingService(cfg.Engine.PriceMateriality)
	resolverService := services.NewEntityResolverService(providerAdapter, cfg.Engine.ResolverDecayMiles, cfg.Engine.ResolverMaxResults)

	discoveryService := services.NewDiscoveryService(
		extractor,
		stateService,
		retrievalService,
		rankingService,
		resolverService,
		geolocationProvider,
		metrics,
		cfg.Engine.CandidateLimit,
		cfg.Engine.MaxResults,
	)

	discoveryHandler := handlers.NewDiscoveryHandler(discoveryService)

	healthDeps := map[string]handlers.Pinger{"postgres": pgClient}
	if redisClient != nil {
		healthDeps["redis"] = redisClient
	}
	healthHandler := handlers.NewHealthHandler(healthDeps)

	router := routes.NewRouter(discoveryHandler, healthHandler, metrics)
	handler := router.SetupRoutes()

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	log.Info().Msg("server stopped")
}
