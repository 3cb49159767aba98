// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/zonevalue/internal/config"
)

// Backend names accepted by cache.backend.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendRedis  = "redis"
)

// defaultMemoryCapacity bounds the in-process store.
const defaultMemoryCapacity = 50000

// Store is a byte-oriented key/value store with an advisory TTL.
// Backends may drop entries early; OutcomeCache owns the visibility rule.
type Store interface {
	// Get returns the stored value and true, or false if the key is absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key. ttl <= 0 means no backend expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error

	// Name identifies the backend in metrics and logs.
	Name() string
}

// NewStore opens the backend selected by cfg.Backend.
func NewStore(ctx context.Context, cfg config.CacheConfig) (Store, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryStore(defaultMemoryCapacity), nil

	case BackendBadger:
		opts := badger.DefaultOptions(cfg.BadgerPath)
		opts.Logger = nil // Suppress BadgerDB logs
		db, err := badger.Open(opts)
		if err != nil {
			return nil, fmt.Errorf("open badger cache at %s: %w", cfg.BadgerPath, err)
		}
		return NewBadgerStore(db, true), nil

	case BackendRedis:
		return NewRedisStore(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
