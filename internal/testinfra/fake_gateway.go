// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

package testinfra

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

// SessionCookie is the cookie name the fake gateway issues.
const SessionCookie = "AGS_ROLES"

// GatewayCapture is one request seen by the fake gateway.
type GatewayCapture struct {
	Target  string
	Path    string
	Query   url.Values
	Headers http.Header
	Priming bool
}

// FakeGateway emulates the session-gated proxy in front of the GIS services.
// A GET to <URL>?<target> is treated as a priming call when the target path
// ends in one of PrimingSuffixes and as a zone query otherwise.
type FakeGateway struct {
	Server *httptest.Server

	mu       sync.Mutex
	captures []GatewayCapture
	session  int

	// PrimingSuffixes identify priming targets. Default: "/info".
	PrimingSuffixes []string
	// RequireSession rejects zone queries without the current cookie (HTTP 403).
	RequireSession bool
	// ZoneFunc produces the zone-query response. Default: one feature with
	// the configured attributes.
	ZoneFunc func(target *url.URL) (status int, body string)
	// Delay is applied to every zone query.
	Delay time.Duration

	attributes map[string]interface{}
}

// FakeGatewayOption configures a FakeGateway.
type FakeGatewayOption func(*FakeGateway)

// WithZoneAttributes sets the attributes of the single returned feature.
func WithZoneAttributes(attrs map[string]interface{}) FakeGatewayOption {
	return func(g *FakeGateway) {
		g.attributes = attrs
	}
}

// WithZoneResponse sets a fixed status and body for zone queries.
func WithZoneResponse(status int, body string) FakeGatewayOption {
	return func(g *FakeGateway) {
		g.ZoneFunc = func(*url.URL) (int, string) { return status, body }
	}
}

// WithRequiredSession makes zone queries fail with 403 unless the request
// carries the most recently issued session cookie.
func WithRequiredSession() FakeGatewayOption {
	return func(g *FakeGateway) {
		g.RequireSession = true
	}
}

// NewFakeGateway starts a fake gateway that is closed with the test.
func NewFakeGateway(t *testing.T, opts ...FakeGatewayOption) *FakeGateway {
	t.Helper()

	g := &FakeGateway{
		PrimingSuffixes: []string{"/info"},
		attributes: map[string]interface{}{
			"ZONEREGISTRYID": "42",
			"ZONENAME":       "Kolonaki",
			"TIMH":           "3500",
		},
	}
	for _, opt := range opts {
		opt(g)
	}

	g.Server = httptest.NewServer(http.HandlerFunc(g.handle))
	t.Cleanup(g.Server.Close)
	return g
}

// URL returns the gateway endpoint to configure as upstream.gateway_url.
func (g *FakeGateway) URL() string {
	return g.Server.URL + "/proxy.jsp"
}

// Captures returns a copy of the recorded requests.
func (g *FakeGateway) Captures() []GatewayCapture {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]GatewayCapture(nil), g.captures...)
}

// ZoneQueries returns how many non-priming requests were received.
func (g *FakeGateway) ZoneQueries() int {
	return g.count(false)
}

// Primes returns how many priming requests were received.
func (g *FakeGateway) Primes() int {
	return g.count(true)
}

// ExpireSession makes the current cookie invalid so the next zone query is rejected.
func (g *FakeGateway) ExpireSession() {
	g.mu.Lock()
	g.session++
	g.mu.Unlock()
}

func (g *FakeGateway) count(priming bool) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.captures {
		if c.Priming == priming {
			n++
		}
	}
	return n
}

func (g *FakeGateway) handle(w http.ResponseWriter, r *http.Request) {
	target, err := url.Parse(r.URL.RawQuery)
	if err != nil || target.Host == "" {
		http.Error(w, "bad relay target", http.StatusBadRequest)
		return
	}

	priming := g.isPriming(target.Path)
	g.mu.Lock()
	g.captures = append(g.captures, GatewayCapture{
		Target:  r.URL.RawQuery,
		Path:    target.Path,
		Query:   target.Query(),
		Headers: r.Header.Clone(),
		Priming: priming,
	})
	if priming {
		g.session++
	}
	current := g.cookieValue()
	g.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	if priming {
		http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: current, Path: "/"})
		_, _ = w.Write([]byte(`{"currentVersion":10.81}`))
		return
	}

	if g.Delay > 0 {
		time.Sleep(g.Delay)
	}

	if g.RequireSession {
		c, err := r.Cookie(SessionCookie)
		if err != nil || c.Value != current {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":{"code":403,"message":"Access denied"}}`))
			return
		}
	}

	status, body := http.StatusOK, ""
	if g.ZoneFunc != nil {
		status, body = g.ZoneFunc(target)
	} else {
		body = FeatureSet(g.attributes)
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (g *FakeGateway) isPriming(path string) bool {
	for _, suffix := range g.PrimingSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

func (g *FakeGateway) cookieValue() string {
	return fmt.Sprintf("session-%d", g.session)
}

// FeatureSet renders a query-style payload with one feature per attribute map.
func FeatureSet(attrs ...map[string]interface{}) string {
	features := make([]map[string]interface{}, 0, len(attrs))
	for _, a := range attrs {
		if a == nil {
			continue
		}
		features = append(features, map[string]interface{}{"attributes": a})
	}
	data, err := json.Marshal(map[string]interface{}{"features": features})
	if err != nil {
		panic(err)
	}
	return string(data)
}
