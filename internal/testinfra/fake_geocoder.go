// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

package testinfra

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/goccy/go-json"
)

// GeocodeCandidate is a findAddressCandidates match served by FakeGeocoder.
type GeocodeCandidate struct {
	Address string
	Lat     float64
	Lng     float64
	Score   float64
}

// FakeGeocoder serves findAddressCandidates responses keyed by SingleLine text.
type FakeGeocoder struct {
	Server *httptest.Server

	mu         sync.Mutex
	candidates map[string][]GeocodeCandidate
	queries    []url.Values
	status     int
}

// NewFakeGeocoder starts a fake geocoder closed with the test.
func NewFakeGeocoder(t *testing.T) *FakeGeocoder {
	t.Helper()

	f := &FakeGeocoder{candidates: make(map[string][]GeocodeCandidate), status: http.StatusOK}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the findAddressCandidates endpoint.
func (f *FakeGeocoder) URL() string {
	return f.Server.URL + "/arcgis/rest/services/World/GeocodeServer/findAddressCandidates"
}

// Add registers candidates for an exact SingleLine value.
func (f *FakeGeocoder) Add(singleLine string, candidates ...GeocodeCandidate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.candidates[singleLine] = append(f.candidates[singleLine], candidates...)
}

// FailWith makes every request return status.
func (f *FakeGeocoder) FailWith(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
}

// Queries returns the received query strings.
func (f *FakeGeocoder) Queries() []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]url.Values(nil), f.queries...)
}

func (f *FakeGeocoder) handle(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f.mu.Lock()
	f.queries = append(f.queries, q)
	status := f.status
	found := f.candidates[q.Get("SingleLine")]
	f.mu.Unlock()

	if status != http.StatusOK {
		w.WriteHeader(status)
		return
	}

	type location struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	type candidate struct {
		Address  string   `json:"address"`
		Location location `json:"location"`
		Score    float64  `json:"score"`
	}
	out := struct {
		SpatialReference map[string]int `json:"spatialReference"`
		Candidates       []candidate    `json:"candidates"`
	}{
		SpatialReference: map[string]int{"wkid": 4326},
		Candidates:       []candidate{},
	}
	for _, c := range found {
		out.Candidates = append(out.Candidates, candidate{
			Address:  c.Address,
			Location: location{X: c.Lng, Y: c.Lat},
			Score:    c.Score,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}
