// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

/*
Package upstream relays calls to the GIS service through the session-gated gateway.

Call flow:
  - obtain credentials from the session manager
  - build the raw-concatenated relay URL and attach browser headers and cookies
  - execute through the outbound rate limiter and circuit breaker
  - classify the response into a Result (HTTP errors, unparseable bodies and
    {"error":{...}} envelopes are all failures)
  - on HTTP 401/403 invalidate the session, re-acquire and retry exactly once
*/
package upstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/zonevalue/internal/breaker"
	"github.com/tomtom215/zonevalue/internal/config"
	"github.com/tomtom215/zonevalue/internal/gateway"
	"github.com/tomtom215/zonevalue/internal/logging"
	"github.com/tomtom215/zonevalue/internal/metrics"
	"github.com/tomtom215/zonevalue/internal/models"
	"github.com/tomtom215/zonevalue/internal/session"
)

// Authorizer supplies gateway credentials. *session.Manager implements it.
type Authorizer interface {
	EnsureAuthorization(ctx context.Context) (session.State, error)
	Invalidate()
}

// Result is the classified outcome of one relayed call.
type Result struct {
	OK         bool
	Payload    map[string]interface{}
	HTTPStatus int
	Detail     string
	Kind       models.ErrorKind
}

// errServerStatus marks 5xx responses so they count against the breaker.
var errServerStatus = errors.New("upstream server error")

// response is one raw HTTP round-trip.
type response struct {
	status int
	body   []byte
}

// Relay executes calls against the upstream through the gateway.
type Relay struct {
	gw       *gateway.Gateway
	sessions Authorizer
	client   *http.Client
	limiter  *rate.Limiter
	breaker  *breaker.Breaker[*response]
}

// NewRelay creates a Relay. client may be nil, in which case a gateway client
// with cfg.Timeout is used.
func NewRelay(cfg config.UpstreamConfig, gw *gateway.Gateway, sessions Authorizer, client *http.Client) *Relay {
	if client == nil {
		client = gateway.NewHTTPClient(cfg.Timeout)
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	settings := breaker.DefaultSettings("upstream-gateway")
	settings.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, context.Canceled)
	}

	return &Relay{
		gw:       gw,
		sessions: sessions,
		client:   client,
		limiter:  limiter,
		breaker:  breaker.New[*response](settings),
	}
}

// BreakerState reports the gateway circuit breaker state.
func (r *Relay) BreakerState() string {
	return r.breaker.State()
}

// Call relays targetPath with params and classifies the outcome. It never
// returns an error; every failure is a Result with OK false.
func (r *Relay) Call(ctx context.Context, targetPath string, params url.Values) Result {
	res := r.attempt(ctx, targetPath, params)
	if !isAuthFailure(res) {
		return res
	}

	logging.CtxWarn(ctx).Int("status", res.HTTPStatus).Str("path", targetPath).
		Msg("Gateway rejected credentials, re-acquiring and retrying once")
	metrics.UpstreamAuthRetries.Inc()
	r.sessions.Invalidate()

	return r.attempt(ctx, targetPath, params)
}

func isAuthFailure(res Result) bool {
	return res.HTTPStatus == http.StatusUnauthorized || res.HTTPStatus == http.StatusForbidden
}

func (r *Relay) attempt(ctx context.Context, targetPath string, params url.Values) Result {
	state, err := r.sessions.EnsureAuthorization(ctx)
	if err != nil {
		return transportFailure(fmt.Errorf("acquire authorization: %w", err))
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return transportFailure(fmt.Errorf("rate limiter: %w", err))
		}
	}

	reqURL := r.gw.URL(targetPath, params)
	start := time.Now()
	resp, err := r.breaker.Execute(func() (*response, error) {
		return r.roundTrip(ctx, reqURL, state)
	})
	duration := time.Since(start)

	switch {
	case breaker.IsRejected(err):
		metrics.RecordUpstreamRequest("rejected", duration)
		return transportFailure(fmt.Errorf("gateway circuit open: %w", err))
	case resp == nil:
		metrics.RecordUpstreamRequest("transport_error", duration)
		logging.CtxWarn(ctx).Err(err).Str("path", targetPath).Msg("Upstream transport failure")
		return transportFailure(err)
	}

	res := classify(resp)
	metrics.RecordUpstreamRequest(resultLabel(res), duration)
	logging.CtxDebug(ctx).
		Str("path", targetPath).
		Int("status", resp.status).
		Bool("ok", res.OK).
		Dur("duration", duration).
		Msg("Upstream call completed")
	return res
}

func (r *Relay) roundTrip(ctx context.Context, reqURL string, state session.State) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	r.gw.ApplyHeaders(req)
	state.Apply(req)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		out := &response{status: resp.StatusCode, body: []byte(gateway.ReadBodyForError(resp.Body))}
		if resp.StatusCode >= 500 {
			return out, errServerStatus
		}
		return out, nil
	}

	body, err := gateway.ReadBody(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return &response{status: resp.StatusCode, body: body}, nil
}

func transportFailure(err error) Result {
	return Result{Kind: models.ErrorKindUpstreamTransport, Detail: err.Error()}
}

// classify turns a raw response into a Result.
func classify(resp *response) Result {
	if resp.status < 200 || resp.status > 299 {
		kind := models.ErrorKindUpstreamTransport
		if resp.status == http.StatusUnauthorized || resp.status == http.StatusForbidden {
			kind = models.ErrorKindAuthorization
		}
		return Result{
			HTTPStatus: resp.status,
			Kind:       kind,
			Detail:     fmt.Sprintf("HTTP %d: %s", resp.status, truncate(string(resp.body), 200)),
		}
	}

	payload, err := decodePayload(resp.body)
	if err != nil {
		return Result{HTTPStatus: resp.status, Kind: models.ErrorKindUpstreamData, Detail: err.Error()}
	}
	if detail, ok := errorEnvelope(payload); ok {
		return Result{HTTPStatus: resp.status, Kind: models.ErrorKindUpstreamData, Detail: detail}
	}
	return Result{OK: true, Payload: payload, HTTPStatus: resp.status}
}

func decodePayload(body []byte) (map[string]interface{}, error) {
	var payload map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("unparseable upstream response: %w", err)
	}
	if payload == nil {
		return nil, errors.New("unparseable upstream response: empty document")
	}
	return payload, nil
}

// errorEnvelope detects the ArcGIS {"error":{"code":..,"message":..}} shape.
func errorEnvelope(payload map[string]interface{}) (string, bool) {
	raw, ok := payload["error"]
	if !ok || raw == nil {
		return "", false
	}
	env, ok := raw.(map[string]interface{})
	if !ok {
		return fmt.Sprintf("upstream error: %v", raw), true
	}
	detail := fmt.Sprintf("upstream error %v: %v", env["code"], env["message"])
	if details, ok := env["details"].([]interface{}); ok && len(details) > 0 {
		detail += fmt.Sprintf(" (%v)", details[0])
	}
	return detail, true
}

func resultLabel(res Result) string {
	switch {
	case res.OK:
		return "ok"
	case res.Kind == models.ErrorKindAuthorization:
		return "auth_failed"
	case res.Kind == models.ErrorKindUpstreamData:
		return "data_error"
	default:
		return "http_error"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
