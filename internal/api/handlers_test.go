// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/zonevalue/internal/config"
	"github.com/tomtom215/zonevalue/internal/models"
)

type stubLookuper struct {
	mu       sync.Mutex
	result   models.Result
	lastLat  float64
	lastLng  float64
	lastZip  string
	calls    int
	panicOn  bool
}

func (s *stubLookuper) ByCoordinate(_ context.Context, lat, lng float64) models.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastLat, s.lastLng = lat, lng
	if s.panicOn {
		panic("boom")
	}
	return s.result.Clone()
}

func (s *stubLookuper) ByPostalCode(_ context.Context, zip string) models.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastZip = zip
	return s.result.Clone()
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func successResult() models.Result {
	return models.FromZone(models.ZoneSuccess(floatPtr(3500), strPtr("42"), strPtr("Kolonaki")))
}

func newTestServer(t *testing.T, stub *stubLookuper, sec config.SecurityConfig) http.Handler {
	t.Helper()
	if sec.RateLimitReqs == 0 {
		sec.RateLimitDisabled = true
	}
	return NewRouter(NewHandler(stub), sec).SetupChi()
}

func do(h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, w.Body.String())
	}
	return body
}

func TestLookup_Success(t *testing.T) {
	stub := &stubLookuper{result: successResult()}
	h := newTestServer(t, stub, config.SecurityConfig{})

	w := do(h, http.MethodPost, "/lookup", `{"lat":37.9838,"lng":23.7275}`, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := decodeBody(t, w)
	if body["success"] != true || body["zoneId"] != "42" || body["zoneName"] != "Kolonaki" {
		t.Errorf("unexpected body: %v", body)
	}
	if body["assessedValuePerArea"] != float64(3500) {
		t.Errorf("assessedValuePerArea = %v", body["assessedValuePerArea"])
	}
	if body["cached"] != false {
		t.Errorf("cached = %v, want false", body["cached"])
	}
	if _, ok := body["zip"]; ok {
		t.Error("coordinate lookup must not carry zip")
	}
	if stub.lastLat != 37.9838 || stub.lastLng != 23.7275 {
		t.Errorf("lookup called with (%v, %v)", stub.lastLat, stub.lastLng)
	}
}

func TestLookup_NullFieldsArePresent(t *testing.T) {
	stub := &stubLookuper{result: models.FromZone(models.ZoneSuccess(nil, nil, strPtr("Plaka")))}
	h := newTestServer(t, stub, config.SecurityConfig{})

	w := do(h, http.MethodPost, "/lookup", `{"lat":37.97,"lng":23.73}`, nil)
	body := decodeBody(t, w)

	for _, key := range []string{"assessedValuePerArea", "zoneId"} {
		v, ok := body[key]
		if !ok || v != nil {
			t.Errorf("%s = %v (present=%v), want null", key, v, ok)
		}
	}
}

func TestLookup_CachedFlag(t *testing.T) {
	res := successResult()
	res.Cached = true
	h := newTestServer(t, &stubLookuper{result: res}, config.SecurityConfig{})

	body := decodeBody(t, do(h, http.MethodPost, "/lookup", `{"lat":37.97,"lng":23.73}`, nil))
	if body["cached"] != true {
		t.Errorf("cached = %v, want true", body["cached"])
	}
}

func TestLookup_BadRequests(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantError string
	}{
		{"empty body", ``, ErrInvalidJSON},
		{"not json", `lat=1`, ErrInvalidJSON},
		{"string coordinate", `{"lat":"abc","lng":23}`, ErrInvalidJSON},
		{"missing lng", `{"lat":37.9}`, models.ErrInvalidCoordinate},
		{"lat out of range", `{"lat":91,"lng":23}`, models.ErrInvalidCoordinate},
		{"lng out of range", `{"lat":37,"lng":-181}`, models.ErrInvalidCoordinate},
		{"too large", `{"lat":37,"lng":23,"pad":"` + strings.Repeat("x", maxBodyBytes) + `"}`, ErrInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubLookuper{result: successResult()}
			h := newTestServer(t, stub, config.SecurityConfig{})

			w := do(h, http.MethodPost, "/lookup", tt.body, nil)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			body := decodeBody(t, w)
			if body["success"] != false || body["error"] != tt.wantError {
				t.Errorf("body = %v, want error %q", body, tt.wantError)
			}
			if stub.calls != 0 {
				t.Error("lookup must not run for a rejected request")
			}
		})
	}
}

func TestLookup_OperationalFailureIs200(t *testing.T) {
	tests := []struct {
		name   string
		result models.Result
		want   map[string]interface{}
	}{
		{
			name:   "upstream transport",
			result: models.Failure(models.ErrorKindUpstreamTransport, models.ErrUpstream, "HTTP 502"),
			want:   map[string]interface{}{"success": false, "error": models.ErrUpstream, "detail": "HTTP 502"},
		},
		{
			name:   "no attributes",
			result: models.FromZone(models.ZoneFailure(models.ErrNoAttributes)),
			want:   map[string]interface{}{"success": false, "error": models.ErrNoAttributes},
		},
		{
			name:   "authorization",
			result: models.Failure(models.ErrorKindAuthorization, models.ErrUpstreamAuth, "HTTP 403"),
			want:   map[string]interface{}{"success": false, "error": models.ErrUpstreamAuth, "detail": "HTTP 403"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, &stubLookuper{result: tt.result}, config.SecurityConfig{})
			w := do(h, http.MethodPost, "/lookup", `{"lat":37.97,"lng":23.73}`, nil)

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", w.Code)
			}
			body := decodeBody(t, w)
			for k, v := range tt.want {
				if body[k] != v {
					t.Errorf("%s = %v, want %v", k, body[k], v)
				}
			}
			if _, ok := tt.want["detail"]; !ok {
				if _, present := body["detail"]; present {
					t.Errorf("detail should be omitted, got %v", body["detail"])
				}
			}
		})
	}
}

func TestLookupZip(t *testing.T) {
	res := successResult()
	res.PostalCode = "10681"
	res.Geocode = &models.GeocodeMatch{Lat: 37.9879, Lng: 23.7311, Address: "10681, Athína", Score: 100}

	tests := []struct {
		name    string
		body    string
		wantZip string
	}{
		{"string", `{"zip":"10681"}`, "10681"},
		{"number", `{"zip":10681}`, "10681"},
		{"with separator", `{"zip":"106 81"}`, "106 81"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubLookuper{result: res}
			h := newTestServer(t, stub, config.SecurityConfig{})

			w := do(h, http.MethodPost, "/lookup-zip", tt.body, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", w.Code, w.Body.String())
			}
			if stub.lastZip != tt.wantZip {
				t.Errorf("ByPostalCode(%q), want %q", stub.lastZip, tt.wantZip)
			}

			body := decodeBody(t, w)
			if body["zip"] != "10681" || body["address"] != "10681, Athína" {
				t.Errorf("unexpected body: %v", body)
			}
			if body["lat"] != 37.9879 || body["lng"] != 23.7311 || body["score"] != float64(100) {
				t.Errorf("geocode fields = %v", body)
			}
		})
	}
}

func TestLookupZip_Failures(t *testing.T) {
	geocodeFailure := models.Failure(models.ErrorKindGeocode, models.ErrGeocodeFailed, "best candidate scored 40")
	geocodeFailure.PostalCode = "10681"

	tests := []struct {
		name       string
		body       string
		result     models.Result
		wantStatus int
		wantError  string
	}{
		{"too short", `{"zip":"1068"}`, successResult(), http.StatusBadRequest, models.ErrInvalidPostalCode},
		{"missing", `{}`, successResult(), http.StatusBadRequest, models.ErrInvalidPostalCode},
		{"object", `{"zip":{}}`, successResult(), http.StatusBadRequest, ErrInvalidJSON},
		{"geocode failed", `{"zip":"10681"}`, geocodeFailure, http.StatusOK, models.ErrGeocodeFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, &stubLookuper{result: tt.result}, config.SecurityConfig{})
			w := do(h, http.MethodPost, "/lookup-zip", tt.body, nil)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			body := decodeBody(t, w)
			if body["success"] != false || body["error"] != tt.wantError {
				t.Errorf("body = %v", body)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, &stubLookuper{}, config.SecurityConfig{APIKey: "secret"})

	w := do(h, http.MethodGet, "/health", "", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"ok":true}` {
		t.Errorf("body = %s", got)
	}
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	h := newTestServer(t, &stubLookuper{}, config.SecurityConfig{})

	if w := do(h, http.MethodGet, "/nope", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown route status = %d", w.Code)
	}
	w := do(h, http.MethodGet, "/lookup", "", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /lookup status = %d", w.Code)
	}
	if body := decodeBody(t, w); body["success"] != false {
		t.Errorf("body = %v", body)
	}
}

func TestRecovererAnswers500(t *testing.T) {
	h := newTestServer(t, &stubLookuper{panicOn: true}, config.SecurityConfig{})

	w := do(h, http.MethodPost, "/lookup", `{"lat":37.97,"lng":23.73}`, nil)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestPostalCode_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in      string
		want    PostalCode
		wantErr bool
	}{
		{`"10681"`, "10681", false},
		{`10681`, "10681", false},
		{`null`, "", false},
		{`true`, "", true},
		{`[1]`, "", true},
	}
	for _, tt := range tests {
		var p PostalCode
		err := p.UnmarshalJSON([]byte(tt.in))
		if (err != nil) != tt.wantErr {
			t.Errorf("UnmarshalJSON(%s) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if p != tt.want {
			t.Errorf("UnmarshalJSON(%s) = %q, want %q", tt.in, p, tt.want)
		}
	}
}
