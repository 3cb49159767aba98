// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/zonevalue/internal/logging"
	"github.com/tomtom215/zonevalue/internal/metrics"
	"github.com/tomtom215/zonevalue/internal/models"
)

// Entry is the persisted form of a cached lookup outcome.
type Entry struct {
	Result    models.Result `json:"result"`
	CreatedAt time.Time     `json:"created_at"`
	TTL       time.Duration `json:"ttl"`
}

// Visible reports whether the entry may still be served at now.
func (e Entry) Visible(now time.Time) bool {
	return now.Sub(e.CreatedAt) < e.TTL
}

// OutcomeCache memoizes lookup results with separate retention for
// successful and failed outcomes. Expiry is checked lazily on read against
// the cache's own clock, so every Store backend behaves the same.
type OutcomeCache struct {
	store      Store
	successTTL time.Duration
	failureTTL time.Duration
	now        func() time.Time

	closeOnce sync.Once
	closeErr  error
}

// Option configures an OutcomeCache.
type Option func(*OutcomeCache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *OutcomeCache) {
		c.now = now
	}
}

// NewOutcomeCache creates an OutcomeCache over store.
func NewOutcomeCache(store Store, successTTL, failureTTL time.Duration, opts ...Option) *OutcomeCache {
	c := &OutcomeCache{
		store:      store,
		successTTL: successTTL,
		failureTTL: failureTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTLFor returns the retention for result.
func (c *OutcomeCache) TTLFor(result models.Result) time.Duration {
	if result.Success() {
		return c.successTTL
	}
	return c.failureTTL
}

// Get returns the cached result for key. Expired or unreadable entries are
// deleted and reported as absent. Store errors are logged and treated as a miss.
func (c *OutcomeCache) Get(ctx context.Context, key string) (models.Result, bool) {
	backend := c.store.Name()

	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		metrics.CacheErrors.WithLabelValues(backend, "get").Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("backend", backend).Msg("Cache read failed")
		return models.Result{}, false
	}
	if !ok {
		metrics.CacheMisses.WithLabelValues(backend).Inc()
		return models.Result{}, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		metrics.CacheErrors.WithLabelValues(backend, "decode").Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("backend", backend).Msg("Discarding unreadable cache entry")
		c.delete(ctx, key)
		return models.Result{}, false
	}

	if !entry.Visible(c.now()) {
		metrics.CacheMisses.WithLabelValues(backend).Inc()
		metrics.CacheEvictions.WithLabelValues(backend).Inc()
		c.delete(ctx, key)
		return models.Result{}, false
	}

	metrics.CacheHits.WithLabelValues(backend).Inc()
	return entry.Result.Clone(), true
}

// Put stores result under key with the TTL matching its outcome.
func (c *OutcomeCache) Put(ctx context.Context, key string, result models.Result) {
	backend := c.store.Name()
	ttl := c.TTLFor(result)

	entry := Entry{Result: result.Clone(), CreatedAt: c.now(), TTL: ttl}
	entry.Result.Cached = false

	data, err := json.Marshal(entry)
	if err != nil {
		metrics.CacheErrors.WithLabelValues(backend, "encode").Inc()
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to encode cache entry")
		return
	}
	if err := c.store.Set(ctx, key, data, ttl); err != nil {
		metrics.CacheErrors.WithLabelValues(backend, "set").Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("backend", backend).Msg("Cache write failed")
	}
}

// Close closes the underlying store. Repeated calls return the first result.
func (c *OutcomeCache) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.store.Close()
	})
	return c.closeErr
}

func (c *OutcomeCache) delete(ctx context.Context, key string) {
	if err := c.store.Delete(ctx, key); err != nil {
		metrics.CacheErrors.WithLabelValues(c.store.Name(), "delete").Inc()
		logging.Ctx(ctx).Debug().Err(err).Msg("Cache delete failed")
	}
}
