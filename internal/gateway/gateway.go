// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

/*
Package gateway shapes requests for the upstream relay endpoint.

The gateway forwards a request only when the query string of the relay URL
literally starts with an allowed target prefix, so the target URL is appended
after "?" as-is instead of being escaped into a named parameter:

	https://gw.example/proxy.jsp?https://gis.example/arcgis/rest/services/Zones/MapServer/0/query?f=json&...

It also rejects requests that do not look like they came from its own map
viewer, so every call carries the configured Accept, User-Agent, Referer and
Origin headers.
*/
package gateway

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tomtom215/zonevalue/internal/config"
)

// maxBodySize caps how much of an upstream body is read.
const maxBodySize = 4 << 20

// maxErrorBodySize caps how much of an error body is kept for diagnostics.
const maxErrorBodySize = 64 * 1024

// Gateway builds relay URLs and applies the browser-like header set.
type Gateway struct {
	relayURL   string
	targetBase string
	headers    http.Header
}

// New creates a Gateway from the upstream configuration.
func New(cfg config.UpstreamConfig) *Gateway {
	h := make(http.Header)
	setIfNotEmpty(h, "Accept", cfg.Accept)
	setIfNotEmpty(h, "User-Agent", cfg.UserAgent)
	setIfNotEmpty(h, "Referer", cfg.Referer)
	setIfNotEmpty(h, "Origin", cfg.Origin)
	h.Set("X-Requested-With", "XMLHttpRequest")

	return &Gateway{
		relayURL:   cfg.GatewayURL,
		targetBase: strings.TrimRight(cfg.TargetBaseURL, "/"),
		headers:    h,
	}
}

func setIfNotEmpty(h http.Header, key, value string) {
	if value != "" {
		h.Set(key, value)
	}
}

// TargetURL returns the fully-qualified upstream URL for path with params appended.
// path may already carry a query string.
func (g *Gateway) TargetURL(path string, params url.Values) string {
	target := g.targetBase + path
	if len(params) == 0 {
		return target
	}
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + params.Encode()
}

// RelayURL embeds target into the gateway URL by raw concatenation.
func (g *Gateway) RelayURL(target string) string {
	return g.relayURL + "?" + target
}

// URL is RelayURL(TargetURL(path, params)).
func (g *Gateway) URL(path string, params url.Values) string {
	return g.RelayURL(g.TargetURL(path, params))
}

// ApplyHeaders sets the browser-like header set on req.
func (g *Gateway) ApplyHeaders(req *http.Request) {
	for key, values := range g.headers {
		req.Header[key] = append([]string(nil), values...)
	}
}

// NewHTTPClient returns a client for gateway calls. Redirects are not
// followed so that credentials issued on a redirect response are seen by
// the caller.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// ReadBody reads at most maxBodySize bytes from r.
func ReadBody(r io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, maxBodySize))
}

// ReadBodyForError reads a bounded prefix of an error body for logging.
func ReadBodyForError(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return "(failed to read response body)"
	}
	if len(body) == maxErrorBodySize {
		return string(body) + "\n... (truncated)"
	}
	return string(body)
}

// Drain discards the rest of a body so the connection can be reused.
func Drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxErrorBodySize))
	_ = body.Close()
}
