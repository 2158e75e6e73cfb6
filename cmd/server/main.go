package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdugdh24/teamup-backend/internal/config"
	"github.com/gdugdh24/teamup-backend/internal/infrastructure/container"
	"github.com/gdugdh24/teamup-backend/internal/infrastructure/logging"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load config")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize dependency injection container
	app, err := container.NewContainer(context.Background(), cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize application")
	}
	defer func() {
		if err := app.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing application")
		}
	}()

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		if err := app.Server.Start(); err != nil {
			logging.Error().Err(err).Msg("server error")
			quit <- syscall.SIGTERM
		}
	}()

	// Wait for interrupt signal
	sig := <-quit
	logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	// Graceful shutdown; Server.Shutdown applies its own timeout
	if err := app.Server.Shutdown(context.Background()); err != nil {
		logging.Error().Err(err).Msg("server shutdown error")
		return
	}

	logging.Info().Msg("server exited properly")
}
