// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

/*
Package api provides the client-facing HTTP surface of the relay.

Routes:

  - POST /lookup      {lat, lng}  zone lookup by WGS84 coordinate
  - POST /lookup-zip  {zip}       zone lookup by Greek postal code
  - GET  /health      liveness
  - GET  /metrics     Prometheus exposition

Middleware stack (outermost first): request id with logging context, real IP,
panic recovery, CORS allow-list. The lookup routes additionally carry a per-IP
rate limit, the API key gate and request metrics.

Status codes: 400 for malformed JSON or failed validation, 401 for a missing or
wrong API key, 429 when the client is rate limited. Every lookup that reaches the
orchestrator answers 200, including upstream and geocode failures; the body's
success flag carries the outcome.
*/
package api
