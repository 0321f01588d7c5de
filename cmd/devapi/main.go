package main

import (
	"fmt"
	"os"

	"github.com/rechargex-dev/rechargex/internal/config"
	"github.com/rechargex-dev/rechargex/internal/devapi"
	"github.com/rechargex-dev/rechargex/internal/logger"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// The dev backend logs JSON unless LOG_FORMAT says otherwise
	format := os.Getenv("LOG_FORMAT")
	if format == "" {
		format = "json"
	}
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "info"
	}
	logger.Init(level, format)
	log := logger.GetLogger()

	srv, err := devapi.New(cfg.DevAPI, log, version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	log.Info().Str("version", version).Str("database", cfg.DevAPI.DatabaseURL).Msg("Starting RechargeX dev API...")

	// Start HTTP server (this blocks)
	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
