package database

import (
	"context"
	"fmt"
	"time"

	"github.com/gdugdh24/teamup-backend/internal/config"
	"github.com/gdugdh24/teamup-backend/internal/infrastructure/logging"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// NewPostgresDB opens the profile and contest read store.
func NewPostgresDB(ctx context.Context, cfg *config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	applyPool(db, cfg)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log := logging.WithComponent("database")
	log.Info().
		Str("host", cfg.Host).
		Str("db", cfg.DBName).
		Int("max_open_conns", cfg.MaxOpenConns).
		Msg("postgres connected")
	return db, nil
}

// applyPool sizes the pool; zero values keep the driver defaults.
func applyPool(db *sqlx.DB, cfg *config.DatabaseConfig) {
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
}
