// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

package app

import (
	"context"

	"github.com/tomtom215/zonevalue/internal/cache"
	"github.com/tomtom215/zonevalue/internal/session"
)

// Status is a credential-free view of the relay's moving parts.
type Status struct {
	Session  session.Info      `json:"session"`
	Breakers map[string]string `json:"breakers"`
	Cache    CacheStatus       `json:"cache"`
}

// CacheStatus describes the store. Counters exist only for the memory backend.
type CacheStatus struct {
	Backend string       `json:"backend"`
	Entries *int         `json:"entries,omitempty"`
	HitRate *float64     `json:"hit_rate_percent,omitempty"`
	Stats   *cache.Stats `json:"stats,omitempty"`
}

// Status reports session, breaker and cache state. With acquire set it first
// asks the session manager for credentials, which primes the gateway when the
// state is empty or stale.
func (a *App) Status(ctx context.Context, acquire bool) (Status, error) {
	if acquire {
		if _, err := a.Sessions.EnsureAuthorization(ctx); err != nil {
			return Status{}, err
		}
	}

	st := Status{
		Session: a.Sessions.Snapshot(),
		Breakers: map[string]string{
			"gateway": a.Relay.BreakerState(),
			"geocode": a.Geocoder.BreakerState(),
		},
		Cache: CacheStatus{Backend: a.Store.Name()},
	}

	if ms, ok := a.Store.(*cache.MemoryStore); ok {
		entries, rate, stats := ms.Len(), ms.HitRate(), ms.GetStats()
		st.Cache.Entries = &entries
		st.Cache.HitRate = &rate
		st.Cache.Stats = &stats
	}
	return st, nil
}
