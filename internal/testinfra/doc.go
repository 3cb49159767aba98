// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

// Package testinfra provides test doubles and container helpers for the relay.
//
// # Fake Upstreams
//
// FakeGateway emulates the browser-facing proxy in front of the ArcGIS
// services: it issues session cookies on priming paths, enforces them on zone
// queries, and records every request. FakeGeocoder serves
// findAddressCandidates responses.
//
//	gw := testinfra.NewFakeGateway(t, testinfra.WithZoneAttributes(map[string]any{
//	    "ZONEREGISTRYID": "42", "TIMH": "3500",
//	}))
//	cfg.Upstream.GatewayURL = gw.URL()
//
// # Containers
//
// Files behind the integration build tag start real dependencies (Redis)
// with testcontainers-go:
//
//	go test -tags integration ./internal/cache/...
package testinfra
