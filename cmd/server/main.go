// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

// Package main is the entry point for the zonevalue relay server.
//
// The relay answers "what is the assessed land value at this point (or postal
// code)" by querying the public valuation map service through its browser
// gateway. It keeps the gateway session alive, recovers from expired
// credentials and caches outcomes.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Environment variables (HTTP_PORT, API_KEY, CORS_ORIGINS, GATEWAY_URL, CACHE_TTL_DAYS, ...)
//   - Config file (CONFIG_PATH or ./config.yaml)
//   - Built-in defaults
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the supervisor tree: the HTTP server drains
// in-flight requests within SHUTDOWN_TIMEOUT, the keep-alive loop
// stops and the cache store is closed.
//
// # Example Usage
//
//	export API_KEY=$(openssl rand -hex 16)
//	export CORS_ORIGINS=https://valuemap.example
//	./zonevalue
//
//	curl -s -H "X-API-Key: $API_KEY" -d '{"lat":37.9838,"lng":23.7275}' localhost:8080/lookup
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/zonevalue/internal/app"
	"github.com/tomtom215/zonevalue/internal/config"
	"github.com/tomtom215/zonevalue/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("cache_backend", cfg.Cache.Backend).
		Dur("success_ttl", cfg.Cache.SuccessTTL).
		Dur("failure_ttl", cfg.Cache.FailureTTL).
		Msg("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	relay, err := app.New(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize relay")
	}

	serveErr := relay.Serve(ctx)

	if err := relay.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing cache store")
	}
	if serveErr != nil {
		logging.Error().Err(serveErr).Msg("Relay stopped with error")
		os.Exit(1)
	}

	logging.Info().Msg("Application stopped gracefully")
}
