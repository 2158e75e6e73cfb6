package container

import (
	"context"
	"fmt"

	"github.com/gdugdh24/teamup-backend/internal/config"
	"github.com/gdugdh24/teamup-backend/internal/delivery/http"
	"github.com/gdugdh24/teamup-backend/internal/delivery/http/handler"
	"github.com/gdugdh24/teamup-backend/internal/delivery/http/middleware"
	"github.com/gdugdh24/teamup-backend/internal/infrastructure/cache"
	"github.com/gdugdh24/teamup-backend/internal/infrastructure/database"
	"github.com/gdugdh24/teamup-backend/internal/infrastructure/logging"
	"github.com/gdugdh24/teamup-backend/internal/infrastructure/server"
	"github.com/gdugdh24/teamup-backend/internal/repository/postgres"
	"github.com/gdugdh24/teamup-backend/internal/usecase/auth"
	"github.com/gdugdh24/teamup-backend/internal/usecase/matching"
	"github.com/gdugdh24/teamup-backend/internal/usecase/profile"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	DB     *sqlx.DB
	Redis  *redis.Client
	Server *server.Server
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	// Initialize database
	db, err := database.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Redis is only dialed when it backs the recommendation cache
	var redisClient *redis.Client
	if cfg.Matching.CacheBackend == config.CacheBackendRedis {
		redisClient, err = database.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
	}

	// Initialize repositories
	profileRepo := postgres.NewProfileRepository(db)
	contestRepo := postgres.NewContestRepository(db)

	// Recommendation cache
	recommendationCache := cache.NewRecommendationCache(
		newRecommendationStore(redisClient),
		CacheOptions(&cfg.Matching),
	)

	// Initialize use cases
	tokenVerifier := auth.NewTokenVerifier(cfg.JWT.AccessSecret)

	matchingUseCase := matching.NewMatchingUseCase(
		profileRepo,
		contestRepo,
		recommendationCache,
		MatchingOptions(&cfg.Matching),
	)

	profileUseCase := profile.NewProfileUseCase(
		profileRepo,
		recommendationCache,
	)

	// Initialize handlers
	matchingHandler := handler.NewMatchingHandler(matchingUseCase)
	profileHandler := handler.NewProfileHandler(profileUseCase)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenVerifier)

	// Initialize router
	router := http.NewRouter(
		matchingHandler,
		profileHandler,
		authMiddleware,
	)

	// Setup routes
	ginRouter := router.Setup()

	// Initialize server
	srv := server.NewServer(&cfg.Server, ginRouter)

	log := logging.WithComponent("container")
	log.Info().
		Str("cache_backend", cfg.Matching.CacheBackend).
		Int("candidate_limit", cfg.Matching.CandidateLimit).
		Msg("application initialized")

	return &Container{
		Config: cfg,
		DB:     db,
		Redis:  redisClient,
		Server: srv,
	}, nil
}

func newRecommendationStore(redisClient *redis.Client) cache.Store {
	if redisClient != nil {
		return cache.NewRedisStore(redisClient)
	}
	return cache.NewMemoryStore()
}

// CacheOptions maps matching configuration onto the recommendation cache.
func CacheOptions(cfg *config.MatchingConfig) cache.Options {
	opts := cache.DefaultOptions()
	opts.TTL = cfg.CacheTTL
	opts.StaleGrace = cfg.StaleGrace
	opts.WaitTimeout = cfg.ComputeTimeout
	if opts.ComputeDeadline < cfg.ComputeTimeout {
		opts.ComputeDeadline = cfg.ComputeTimeout
	}
	return opts
}

// MatchingOptions maps matching configuration onto the engine tunables.
func MatchingOptions(cfg *config.MatchingConfig) matching.Options {
	opts := matching.DefaultOptions()
	opts.CandidateLimit = cfg.CandidateLimit
	opts.DefaultLimit = cfg.DefaultLimit
	opts.MaxLimit = cfg.MaxLimit
	opts.MutualThreshold = cfg.MutualThreshold
	opts.Scoring.TimezoneAdjacentHours = cfg.TimezoneAdjacentHours
	return opts
}

// Close closes all connections
func (c *Container) Close() error {
	// Close Redis
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing redis")
		}
	}

	// Close database
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}

	return nil
}
