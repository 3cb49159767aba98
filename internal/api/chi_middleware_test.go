// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/zonevalue/internal/config"
	"github.com/tomtom215/zonevalue/internal/logging"
)

func TestNewChiMiddleware_DefaultConfig(t *testing.T) {
	m := NewChiMiddleware(nil)

	if m.config == nil {
		t.Fatal("config is nil")
	}
	if len(m.config.CORSAllowedOrigins) != 0 {
		t.Errorf("CORSAllowedOrigins = %v, want []", m.config.CORSAllowedOrigins)
	}
	if m.config.CORSMaxAge != 86400 {
		t.Errorf("CORSMaxAge = %d, want 86400", m.config.CORSMaxAge)
	}
}

func TestChiMiddlewareConfigFromSecurity(t *testing.T) {
	c := ChiMiddlewareConfigFromSecurity(config.SecurityConfig{
		CORSOrigins:     []string{"https://valuemap.example"},
		RateLimitReqs:   10,
		RateLimitWindow: 30 * time.Second,
	})

	if len(c.CORSAllowedOrigins) != 1 || c.CORSAllowedOrigins[0] != "https://valuemap.example" {
		t.Errorf("CORSAllowedOrigins = %v", c.CORSAllowedOrigins)
	}
	if c.RateLimitRequests != 10 || c.RateLimitWindow != 30*time.Second {
		t.Errorf("rate limit = %d/%v", c.RateLimitRequests, c.RateLimitWindow)
	}

	// Zero values keep the defaults.
	d := ChiMiddlewareConfigFromSecurity(config.SecurityConfig{})
	if d.RateLimitRequests != 60 || d.RateLimitWindow != time.Minute {
		t.Errorf("defaults = %d/%v", d.RateLimitRequests, d.RateLimitWindow)
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	m := NewChiMiddleware(&ChiMiddlewareConfig{RateLimitRequests: 1, RateLimitWindow: time.Minute, RateLimitDisabled: true})
	h := m.RateLimit()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, w.Code)
		}
	}
}

func TestRouter_RateLimited(t *testing.T) {
	stub := &stubLookuper{result: successResult()}
	h := NewRouter(NewHandler(stub), config.SecurityConfig{
		RateLimitReqs:   2,
		RateLimitWindow: time.Minute,
	}).SetupChi()

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = do(h, http.MethodPost, "/lookup", `{"lat":37.97,"lng":23.73}`, nil)
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", last.Code)
	}
	if body := decodeBody(t, last); body["error"] != "rate limit exceeded" {
		t.Errorf("body = %v", body)
	}
	if stub.calls != 2 {
		t.Errorf("lookup calls = %d, want 2", stub.calls)
	}

	// Health is outside the limited group.
	if w := do(h, http.MethodGet, "/health", "", nil); w.Code != http.StatusOK {
		t.Errorf("health status = %d", w.Code)
	}
}

func TestRouter_APIKey(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		headers    map[string]string
		wantStatus int
	}{
		{"missing key", "/lookup", nil, http.StatusUnauthorized},
		{"wrong key", "/lookup", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"header key", "/lookup", map[string]string{"X-API-Key": "secret"}, http.StatusOK},
		{"query key", "/lookup?key=secret", nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubLookuper{result: successResult()}
			h := newTestServer(t, stub, config.SecurityConfig{APIKey: "secret"})

			w := do(h, http.MethodPost, tt.path, `{"lat":37.97,"lng":23.73}`, tt.headers)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				if body := decodeBody(t, w); body["error"] != "unauthorized" {
					t.Errorf("body = %v", body)
				}
				if stub.calls != 0 {
					t.Error("lookup ran without a valid key")
				}
			}
		})
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	h := newTestServer(t, &stubLookuper{}, config.SecurityConfig{CORSOrigins: []string{"https://valuemap.example"}})

	tests := []struct {
		origin    string
		wantAllow string
	}{
		{"https://valuemap.example", "https://valuemap.example"},
		{"https://evil.example", ""},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodOptions, "/lookup", nil)
		req.Header.Set("Origin", tt.origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Content-Type, X-API-Key")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
			t.Errorf("origin %s: Access-Control-Allow-Origin = %q, want %q", tt.origin, got, tt.wantAllow)
		}
	}
}

func TestRequestIDWithLogging(t *testing.T) {
	var gotRequestID, gotCorrelationID string
	h := RequestIDWithLogging()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotRequestID = logging.RequestIDFromContext(r.Context())
		gotCorrelationID = logging.CorrelationIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "req-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if gotRequestID != "req-123" {
		t.Errorf("request id = %q, want req-123", gotRequestID)
	}
	if gotCorrelationID == "" {
		t.Error("correlation id not set")
	}
	if w.Header().Get("X-Request-Id") != "req-123" {
		t.Errorf("response header = %q", w.Header().Get("X-Request-Id"))
	}

	// A generated id is echoed back.
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if id := w.Header().Get("X-Request-Id"); id == "" || !strings.EqualFold(id, gotRequestID) {
		t.Errorf("generated id %q not echoed (context had %q)", id, gotRequestID)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t, &stubLookuper{result: successResult()}, config.SecurityConfig{})
	do(h, http.MethodPost, "/lookup", `{"lat":37.97,"lng":23.73}`, nil)

	w := do(h, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "api_requests_total") {
		t.Error("metrics output has no api_requests_total series")
	}
}
