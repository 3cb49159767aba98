// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

// Package session owns the gateway authorization state: acquiring credentials
// through priming calls, keeping them fresh and forcing re-acquisition after
// the gateway rejects them.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/zonevalue/internal/logging"
	"github.com/tomtom215/zonevalue/internal/metrics"
)

// Manager hands out a usable State, re-acquiring when the current one is
// empty, older than the freshness window or invalidated.
type Manager struct {
	primer    Primer
	freshness time.Duration
	now       func() time.Time

	mu    sync.RWMutex
	state State
	stale bool
	// epoch counts Invalidate calls. An acquisition only commits when no
	// invalidation landed while it was priming.
	epoch uint64

	group singleflight.Group
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a Manager with an empty state.
func NewManager(primer Primer, freshness time.Duration, opts ...Option) *Manager {
	m := &Manager{
		primer:    primer,
		freshness: freshness,
		now:       time.Now,
		state:     State{Cookies: map[string]string{}},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// EnsureAuthorization returns the current state, acquiring credentials first
// when needed. A failed acquisition keeps the previous state, even if stale,
// and is not reported as an error. The only error is ctx cancellation.
func (m *Manager) EnsureAuthorization(ctx context.Context) (State, error) {
	state, epoch, ok := m.fresh()
	if ok {
		return state, nil
	}

	// Concurrent callers of the same epoch share one acquisition; a caller
	// that just invalidated never joins one started before it. The flight is
	// detached from the first caller's cancellation; the HTTP client timeout
	// still bounds it.
	key := "acquire:" + strconv.FormatUint(epoch, 10)
	ch := m.group.DoChan(key, func() (interface{}, error) {
		return m.acquire(context.WithoutCancel(ctx), epoch), nil
	})

	select {
	case res := <-ch:
		return res.Val.(State), nil
	case <-ctx.Done():
		return State{}, ctx.Err()
	}
}

func (m *Manager) fresh() (State, uint64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.stale || m.state.Empty() || m.now().Sub(m.state.AcquiredAt) >= m.freshness {
		return State{}, m.epoch, false
	}
	return m.state.clone(), m.epoch, true
}

// acquire runs the primer once and folds the result into the state. A forced
// acquisition (after Invalidate) replaces the cookies, otherwise they merge.
func (m *Manager) acquire(ctx context.Context, epoch uint64) State {
	m.mu.RLock()
	current := m.state.clone()
	forced := m.stale
	m.mu.RUnlock()

	issued, err := m.prime(ctx, current)
	if err != nil || len(issued) == 0 {
		result := "failed"
		if err == nil || errors.Is(err, ErrNoCredentials) {
			result = "no_credentials"
		}
		metrics.SessionAcquisitions.WithLabelValues(result).Inc()
		logging.CtxWarn(ctx).Err(err).
			Bool("forced", forced).
			Int("kept_credentials", len(current.Cookies)).
			Msg("Gateway credential acquisition failed, keeping previous state")
		return current
	}

	next := State{Cookies: issued, AcquiredAt: m.now()}
	if !forced {
		next.Cookies = merge(current.Cookies, issued)
	}

	m.mu.Lock()
	if m.epoch != epoch {
		// Invalidated mid-flight: these credentials predate the rejection.
		m.mu.Unlock()
		metrics.SessionAcquisitions.WithLabelValues("superseded").Inc()
		logging.CtxDebug(ctx).Uint64("epoch", epoch).Msg("Discarding credentials acquired before invalidation")
		return next.clone()
	}
	if !forced {
		next.Cookies = merge(m.state.Cookies, issued)
	}
	m.state = next
	m.stale = false
	state := m.state.clone()
	m.mu.Unlock()

	metrics.SessionAcquisitions.WithLabelValues("acquired").Inc()
	metrics.SessionCookies.Set(float64(len(state.Cookies)))
	logging.CtxInfo(ctx).
		Bool("forced", forced).
		Dict("cookies", logging.CookieDict(state.Cookies)).
		Msg("Gateway credentials acquired")
	return state
}

// prime calls the primer, turning a panic into an error so the previous
// state is kept. singleflight would otherwise re-raise it on a fresh goroutine.
func (m *Manager) prime(ctx context.Context, current State) (issued map[string]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			issued, err = nil, fmt.Errorf("primer panic: %v", r)
		}
	}()
	return m.primer.Prime(ctx, current)
}

// Invalidate forces the next EnsureAuthorization to re-acquire. The current
// credentials stay in place until a replacement is obtained.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	m.stale = true
	m.epoch++
	m.mu.Unlock()
}

// Info is a credential-free summary of the state.
type Info struct {
	Credentials int       `json:"credentials"`
	AcquiredAt  time.Time `json:"acquired_at"`
	Stale       bool      `json:"stale"`
	Fresh       bool      `json:"fresh"`
}

// Snapshot returns a summary suitable for diagnostics.
func (m *Manager) Snapshot() Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Info{
		Credentials: len(m.state.Cookies),
		AcquiredAt:  m.state.AcquiredAt,
		Stale:       m.stale,
		Fresh:       !m.stale && !m.state.Empty() && m.now().Sub(m.state.AcquiredAt) < m.freshness,
	}
}
