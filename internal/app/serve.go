// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/zonevalue/internal/api"
	"github.com/tomtom215/zonevalue/internal/logging"
	"github.com/tomtom215/zonevalue/internal/supervisor"
	"github.com/tomtom215/zonevalue/internal/supervisor/services"
)

// Handler returns the client-facing HTTP handler.
func (a *App) Handler() http.Handler {
	return api.NewRouter(api.NewHandler(a.Lookup), a.Config.Security).SetupChi()
}

// Serve runs the supervisor tree (cache lifecycle, session keep-alive, HTTP
// server) until ctx is canceled. The cache store is closed on return.
func (a *App) Serve(ctx context.Context) error {
	cfg := a.Config

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout + 5*time.Second,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           a.Handler(),
		ReadTimeout:       cfg.Server.Timeout,
		ReadHeaderTimeout: 10 * time.Second,
		// Lookups may wait on priming plus one retried zone query.
		WriteTimeout: cfg.Server.Timeout + 2*cfg.Upstream.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	tree.AddCacheService(services.NewCloserService("outcome-cache", a.Outcomes))
	tree.AddUpstreamService(services.NewSessionKeepaliveService(a.Sessions, cfg.Session.KeepaliveInterval))
	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, cfg.Server.ShutdownTimeout))

	logging.Info().
		Str("addr", server.Addr).
		Bool("api_key", cfg.Security.APIKey != "").
		Strs("cors_origins", cfg.Security.CORSOrigins).
		Dur("keepalive", cfg.Session.KeepaliveInterval).
		Msg("Starting supervisor tree")

	serveErr := <-tree.ServeBackground(ctx)
	if errors.Is(serveErr, context.Canceled) || errors.Is(serveErr, context.DeadlineExceeded) {
		serveErr = nil
	}
	if serveErr != nil {
		logging.Error().Err(serveErr).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	return serveErr
}
