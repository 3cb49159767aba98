// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/zonevalue/internal/config"
	"github.com/tomtom215/zonevalue/internal/testinfra"
)

func TestRedisStore_Integration(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx := context.Background()
	redisC, err := testinfra.NewRedisContainer(ctx)
	require.NoError(t, err)
	defer testinfra.CleanupContainer(t, ctx, redisC)

	store, err := NewStore(ctx, config.CacheConfig{Backend: BackendRedis, RedisAddr: redisC.Addr})
	require.NoError(t, err)
	defer store.Close()

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))
	got, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v", string(got))

	require.NoError(t, store.Delete(ctx, "k"))
	_, ok, _ = store.Get(ctx, "k")
	assert.False(t, ok)

	// Native expiry.
	require.NoError(t, store.Set(ctx, "short", []byte("v"), time.Second))
	time.Sleep(1500 * time.Millisecond)
	_, ok, _ = store.Get(ctx, "short")
	assert.False(t, ok)
}

func TestRedisStore_SharedAcrossClients(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx := context.Background()
	redisC, err := testinfra.NewRedisContainer(ctx)
	require.NoError(t, err)
	defer testinfra.CleanupContainer(t, ctx, redisC)

	first, err := NewRedisStore(ctx, RedisOptions{Addr: redisC.Addr})
	require.NoError(t, err)
	defer first.Close()
	second, err := NewRedisStore(ctx, RedisOptions{Addr: redisC.Addr})
	require.NoError(t, err)
	defer second.Close()

	writer := NewOutcomeCache(first, time.Hour, time.Minute)
	reader := NewOutcomeCache(second, time.Hour, time.Minute)

	key := NewKeyer("zonevalue", 5).Coordinate(37.98381, 23.72754)
	writer.Put(ctx, key, successResult("42", 3500))

	got, ok := reader.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, "42", *got.Zone.ZoneID)
}
