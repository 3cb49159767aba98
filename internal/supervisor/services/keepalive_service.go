// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

package services

import (
	"context"
	"time"

	"github.com/tomtom215/zonevalue/internal/logging"
	"github.com/tomtom215/zonevalue/internal/session"
)

// Authorizer is satisfied by *session.Manager.
type Authorizer interface {
	EnsureAuthorization(ctx context.Context) (session.State, error)
}

// SessionKeepaliveService calls EnsureAuthorization on a fixed interval so
// the first lookup after an idle period does not pay for priming. The
// manager itself decides whether a refresh is due.
type SessionKeepaliveService struct {
	sessions Authorizer
	interval time.Duration
	name     string
}

// NewSessionKeepaliveService creates the keep-alive loop. A non-positive
// interval disables it; Serve then blocks until shutdown.
func NewSessionKeepaliveService(sessions Authorizer, interval time.Duration) *SessionKeepaliveService {
	return &SessionKeepaliveService{
		sessions: sessions,
		interval: interval,
		name:     "session-keepalive",
	}
}

// Serve implements suture.Service. It primes once at start, then on every tick.
func (s *SessionKeepaliveService) Serve(ctx context.Context) error {
	if s.interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	s.refresh(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

func (s *SessionKeepaliveService) refresh(ctx context.Context) {
	state, err := s.sessions.EnsureAuthorization(ctx)
	if err != nil {
		// Failures are transient; the next tick or lookup retries.
		logging.Warn().Err(err).Msg("Session keep-alive could not refresh credentials")
		return
	}
	logging.Debug().
		Int("credentials", len(state.Cookies)).
		Time("acquired_at", state.AcquiredAt).
		Msg("Session keep-alive tick")
}

// String implements fmt.Stringer.
func (s *SessionKeepaliveService) String() string {
	return s.name
}
