package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	config, err := loadConfig(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var services *Services
	switch config.Server.Store {
	case StoreMemory:
		services, err = setupMemoryServices(config)
	default:
		database, dbErr := setupDatabase(ctx)
		if dbErr != nil {
			log.Fatal().Err(dbErr).Msg("failed to setup database")
		}
		defer database.Close()
		services, err = setupPostgresServices(database, config)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("failed to setup services")
	}

	if err := services.startBackground(ctx, config); err != nil {
		log.Fatal().Err(err).Msg("failed to start background jobs")
	}

	server := setupServer(config, services)
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Str("store", config.Server.Store).
			Int("unlock_interval_seconds", config.Unlock.IntervalSeconds).
			Int("max_step", config.Unlock.MaxStep).
			Str("selection", config.Unlock.Selection).
			Msg("fantasymatch server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	services.stopBackground()
	log.Info().Msg("fantasymatch server stopped")
}
