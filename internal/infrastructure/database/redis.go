package database

import (
	"context"
	"fmt"
	"time"

	"github.com/gdugdh24/teamup-backend/internal/config"
	"github.com/gdugdh24/teamup-backend/internal/infrastructure/logging"
	"github.com/redis/go-redis/v9"
)

// cacheClientName shows up in CLIENT LIST next to the recommendation keys.
const cacheClientName = "teamup-recommendation-cache"

// NewRedisClient connects the client backing the recommendation cache store.
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(cacheOptions(cfg))

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log := logging.WithComponent("database")
	log.Info().
		Str("addr", cfg.GetAddr()).
		Int("db", cfg.DB).
		Msg("redis connected")
	return client, nil
}

// cacheOptions keeps reads and writes well under the matching compute timeout.
func cacheOptions(cfg *config.RedisConfig) *redis.Options {
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 10
	}
	return &redis.Options{
		Addr:         cfg.GetAddr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		ClientName:   cacheClientName,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		PoolSize:     poolSize,
		MinIdleConns: min(5, poolSize),
	}
}
