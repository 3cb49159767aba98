// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/tomtom215/zonevalue/internal/gateway"
	"github.com/tomtom215/zonevalue/internal/logging"
)

// ErrNoCredentials is returned when priming completed but the gateway issued nothing.
var ErrNoCredentials = errors.New("gateway issued no credentials")

// Primer provokes the gateway into issuing credentials.
// It returns the credentials seen across all priming calls.
type Primer interface {
	Prime(ctx context.Context, current State) (map[string]string, error)
}

// GatewayPrimer calls harmless informational endpoints through the gateway
// relay and collects every Set-Cookie it answers with.
type GatewayPrimer struct {
	gw     *gateway.Gateway
	client *http.Client
	paths  []string
}

// NewGatewayPrimer creates a primer that calls each of paths (relative to
// the upstream target base) through gw.
func NewGatewayPrimer(gw *gateway.Gateway, client *http.Client, paths []string) *GatewayPrimer {
	return &GatewayPrimer{gw: gw, client: client, paths: paths}
}

// Prime runs every priming path. Credentials are captured from any response,
// including non-2xx ones. It fails only when no call produced a credential.
func (p *GatewayPrimer) Prime(ctx context.Context, current State) (map[string]string, error) {
	issued := make(map[string]string)
	var errs []error

	for _, path := range p.paths {
		n, err := p.primeOne(ctx, path, current, issued)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		logging.CtxDebug(ctx).Str("path", path).Int("credentials", n).Msg("Priming call completed")
	}

	if len(issued) == 0 {
		if len(errs) == 0 {
			return nil, ErrNoCredentials
		}
		return nil, errors.Join(errs...)
	}
	return issued, nil
}

func (p *GatewayPrimer) primeOne(ctx context.Context, path string, current State, issued map[string]string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.gw.URL(path, nil), http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("create priming request %s: %w", path, err)
	}
	p.gw.ApplyHeaders(req)
	current.Apply(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("priming %s: %w", path, err)
	}
	defer gateway.Drain(resp.Body)

	n := 0
	for _, c := range resp.Cookies() {
		if c.Name == "" || c.Value == "" || c.MaxAge < 0 {
			continue
		}
		issued[c.Name] = c.Value
		n++
	}

	if n == 0 && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return 0, fmt.Errorf("priming %s: unexpected status %d", path, resp.StatusCode)
	}
	return n, nil
}
