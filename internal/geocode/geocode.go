// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

// Package geocode resolves free-text localities to WGS84 coordinates with an
// ArcGIS findAddressCandidates endpoint.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/zonevalue/internal/breaker"
	"github.com/tomtom215/zonevalue/internal/config"
	"github.com/tomtom215/zonevalue/internal/gateway"
	"github.com/tomtom215/zonevalue/internal/logging"
	"github.com/tomtom215/zonevalue/internal/metrics"
	"github.com/tomtom215/zonevalue/internal/models"
)

var (
	// ErrNoCandidate is returned when the geocoder has no match.
	ErrNoCandidate = errors.New("no geocode candidate")

	// ErrLowScore is returned when the best match scores below the configured minimum.
	ErrLowScore = errors.New("geocode candidate below minimum score")
)

// Candidate is one findAddressCandidates match.
type Candidate struct {
	Address  string  `json:"address"`
	Score    float64 `json:"score"`
	Location struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"location"`
}

type candidatesResponse struct {
	Candidates []Candidate `json:"candidates"`
	Error      *struct {
		Code    int      `json:"code"`
		Message string   `json:"message"`
		Details []string `json:"details"`
	} `json:"error"`
}

// Client queries the geocoding service.
type Client struct {
	cfg     config.GeocodeConfig
	client  *http.Client
	breaker *breaker.Breaker[[]Candidate]
}

// NewClient creates a Client. client may be nil.
func NewClient(cfg config.GeocodeConfig, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.MaxCandidates < 1 {
		cfg.MaxCandidates = 1
	}
	settings := breaker.DefaultSettings("geocoder")
	settings.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, context.Canceled)
	}
	return &Client{
		cfg:     cfg,
		client:  client,
		breaker: breaker.New[[]Candidate](settings),
	}
}

// PostalQuery builds the free-text query for a postal code.
func (c *Client) PostalQuery(zip string) string {
	if c.cfg.LocalitySuffix == "" {
		return zip
	}
	return zip + " " + c.cfg.LocalitySuffix
}

// Geocode returns the best candidate for text. A missing candidate yields
// ErrNoCandidate; a candidate scoring under the minimum is returned together
// with ErrLowScore.
func (c *Client) Geocode(ctx context.Context, text string) (models.GeocodeMatch, error) {
	start := time.Now()
	candidates, err := c.breaker.Execute(func() ([]Candidate, error) {
		return c.find(ctx, text)
	})
	duration := time.Since(start)

	if err != nil {
		result := "error"
		if breaker.IsRejected(err) {
			result = "rejected"
		}
		metrics.RecordGeocode(result, duration)
		logging.CtxWarn(ctx).Err(err).Str("query", text).Msg("Geocoding request failed")
		return models.GeocodeMatch{}, err
	}

	best, ok := bestCandidate(candidates)
	if !ok {
		metrics.RecordGeocode("no_candidate", duration)
		return models.GeocodeMatch{}, fmt.Errorf("%w for %q", ErrNoCandidate, text)
	}

	match := models.GeocodeMatch{
		Lat:     best.Location.Y,
		Lng:     best.Location.X,
		Address: best.Address,
		Score:   best.Score,
	}
	if best.Score < c.cfg.MinScore {
		metrics.RecordGeocode("low_score", duration)
		return match, fmt.Errorf("%w: %.1f < %.1f for %q", ErrLowScore, best.Score, c.cfg.MinScore, text)
	}

	metrics.RecordGeocode("ok", duration)
	logging.CtxDebug(ctx).
		Str("query", text).
		Str("address", match.Address).
		Float64("score", match.Score).
		Dur("duration", duration).
		Msg("Geocoded locality")
	return match, nil
}

// BreakerState reports the geocoder circuit breaker state.
func (c *Client) BreakerState() string {
	return c.breaker.State()
}

func (c *Client) find(ctx context.Context, text string) ([]Candidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(text), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned HTTP %d: %s", resp.StatusCode, gateway.ReadBodyForError(resp.Body))
	}

	body, err := gateway.ReadBody(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	var parsed candidatesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode geocoder response: %w", err)
	}
	if parsed.Error != nil {
		msg := parsed.Error.Message
		if len(parsed.Error.Details) > 0 {
			msg += " (" + strings.Join(parsed.Error.Details, "; ") + ")"
		}
		return nil, fmt.Errorf("geocoder error %d: %s", parsed.Error.Code, msg)
	}
	return parsed.Candidates, nil
}

func (c *Client) requestURL(text string) string {
	v := url.Values{}
	v.Set("SingleLine", text)
	v.Set("f", "json")
	v.Set("outSR", "4326")
	v.Set("outFields", "Match_addr,Addr_type")
	v.Set("maxLocations", strconv.Itoa(c.cfg.MaxCandidates))
	if c.cfg.CountryCode != "" {
		v.Set("countryCode", c.cfg.CountryCode)
	}
	if c.cfg.APIKey != "" {
		v.Set("token", c.cfg.APIKey)
	}

	sep := "?"
	if strings.Contains(c.cfg.URL, "?") {
		sep = "&"
	}
	return c.cfg.URL + sep + v.Encode()
}

// bestCandidate returns the highest-scoring candidate, first one on ties.
func bestCandidate(candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	best := candidates[0]
	for _, cand := range candidates[1:] {
		if cand.Score > best.Score {
			best = cand
		}
	}
	return best, true
}
