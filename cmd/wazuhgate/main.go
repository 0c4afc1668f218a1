package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"wazuhgate/internal/config"
	"wazuhgate/internal/logger"
	"wazuhgate/internal/server"
)

func main() {
	// Local dev convenience; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Init("info")
		logger.Logger.Fatal().Err(err).Msg("failed to load config")
	}

	logger.Init(cfg.LogLevel)
	log := logger.WithComponent("main")

	// A missing credential prevents startup; it is never a per-request
	// condition.
	apiKey, err := cfg.ResolveAPIKey()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to resolve API key")
	}

	srv, err := server.New(cfg, apiKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		log.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}

	log.Info().Msg("exited")
}
