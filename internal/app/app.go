// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

// Package app constructs the relay's object graph from configuration. The
// server and the CLI build exactly the same components through it.
package app

import (
	"context"
	"fmt"

	"github.com/tomtom215/zonevalue/internal/cache"
	"github.com/tomtom215/zonevalue/internal/config"
	"github.com/tomtom215/zonevalue/internal/gateway"
	"github.com/tomtom215/zonevalue/internal/geocode"
	"github.com/tomtom215/zonevalue/internal/logging"
	"github.com/tomtom215/zonevalue/internal/lookup"
	"github.com/tomtom215/zonevalue/internal/normalize"
	"github.com/tomtom215/zonevalue/internal/session"
	"github.com/tomtom215/zonevalue/internal/upstream"
)

// App holds the long-lived components. Close releases the cache store.
type App struct {
	Config   *config.Config
	Sessions *session.Manager
	Relay    *upstream.Relay
	Geocoder *geocode.Client
	Store    cache.Store
	Outcomes *cache.OutcomeCache
	Lookup   *lookup.Service
}

// New builds every component. The only I/O performed is opening the cache
// store (badger directory or redis ping).
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := cache.NewStore(ctx, cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("open cache store: %w", err)
	}
	outcomes := cache.NewOutcomeCache(store, cfg.Cache.SuccessTTL, cfg.Cache.FailureTTL)

	gw := gateway.New(cfg.Upstream)
	client := gateway.NewHTTPClient(cfg.Upstream.Timeout)

	sessions := session.NewManager(
		session.NewGatewayPrimer(gw, client, cfg.Session.PrimingPaths),
		cfg.Session.FreshnessWindow,
	)
	relay := upstream.NewRelay(cfg.Upstream, gw, sessions, client)
	geocoder := geocode.NewClient(cfg.Geocode, nil)

	svc := lookup.NewService(lookup.Dependencies{
		Relay:      relay,
		Geocoder:   geocoder,
		Cache:      outcomes,
		Keyer:      cache.NewKeyer(cfg.Cache.Namespace, cfg.Cache.CoordinatePrecision),
		ZoneQuery:  upstream.NewZoneQuery(cfg.Upstream),
		Normalizer: normalize.New(normalize.FieldsFromConfig(cfg.Normalize)),
	})

	logging.Info().
		Str("cache_backend", store.Name()).
		Str("gateway", cfg.Upstream.GatewayURL).
		Str("zone_query", cfg.Upstream.ZoneQueryURL()).
		Str("query_style", cfg.Upstream.QueryStyle).
		Int("wkid", cfg.Upstream.WKID).
		Msg("Relay components initialized")

	return &App{
		Config:   cfg,
		Sessions: sessions,
		Relay:    relay,
		Geocoder: geocoder,
		Store:    store,
		Outcomes: outcomes,
		Lookup:   svc,
	}, nil
}

// Close releases the cache store.
func (a *App) Close() error {
	return a.Outcomes.Close()
}
