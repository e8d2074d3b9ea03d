package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"authapi/internal/config"
	"authapi/internal/logutil"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	logutil.Setup(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}

	if err := app.startConsumer(); err != nil {
		log.Error().Err(err).Msg("Failed to start user event consumer")
	}

	go func() {
		log.Info().Str("addr", cfg.AppPort).Str("db.driver", cfg.DatabaseDriver).Msg("Starting server")
		if err := app.fiber.Listen(cfg.AppPort); err != nil {
			log.Error().Err(err).Msg("Server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")
	if err := app.close(); err != nil {
		log.Error().Err(err).Msg("Error during shutdown")
	}
	log.Info().Msg("Server gracefully stopped")
}
