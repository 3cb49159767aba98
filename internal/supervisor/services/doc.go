// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

/*
Package services adapts the relay's long-running components to suture.Service.

  - HTTPServerService: ListenAndServe with graceful Shutdown on cancellation
  - SessionKeepaliveService: periodic gateway credential refresh
  - CloserService: closes the outcome cache store at shutdown

Every service returns ctx.Err() after a requested stop so suture does not
count it as a failure, and implements fmt.Stringer for suture's event log.

Example:

	tree.AddCacheService(services.NewCloserService("outcome-cache", outcomes))
	tree.AddUpstreamService(services.NewSessionKeepaliveService(sessions, cfg.Session.KeepaliveInterval))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Addr(), cfg.Server.ShutdownTimeout))
*/
package services
