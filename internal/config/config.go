// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

// Package config loads the relay configuration.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in values for every setting (defaultConfig)
//  2. Config File: optional YAML file (CONFIG_PATH, ./config.yaml, /etc/zonevalue/config.yaml)
//  3. Environment Variables: explicit allow-list in envTransformFunc
package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	Upstream  UpstreamConfig  `koanf:"upstream"`
	Session   SessionConfig   `koanf:"session"`
	Geocode   GeocodeConfig   `koanf:"geocode"`
	Cache     CacheConfig     `koanf:"cache"`
	Normalize NormalizeConfig `koanf:"normalize"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// SecurityConfig holds the client-facing access controls.
type SecurityConfig struct {
	// APIKey gates the lookup routes. Empty disables the gate.
	APIKey            string        `koanf:"api_key"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// UpstreamConfig describes how to reach the zone-query layer through the gateway.
type UpstreamConfig struct {
	// GatewayURL is the relay endpoint. The target URL is appended after "?" verbatim.
	GatewayURL string `koanf:"gateway_url"`
	// TargetBaseURL is the ArcGIS REST root the gateway forwards to.
	TargetBaseURL string `koanf:"target_base_url"`
	// ZoneQueryPath is the layer operation appended to TargetBaseURL.
	ZoneQueryPath string `koanf:"zone_query_path"`
	// QueryStyle is "query" (features[]) or "identify" (results[]).
	QueryStyle string   `koanf:"query_style"`
	WKID       int      `koanf:"wkid"`
	OutFields  []string `koanf:"out_fields"`
	SpatialRel string   `koanf:"spatial_rel"`

	Accept    string `koanf:"accept"`
	UserAgent string `koanf:"user_agent"`
	Referer   string `koanf:"referer"`
	Origin    string `koanf:"origin"`

	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
}

// SessionConfig holds the gateway credential policy.
type SessionConfig struct {
	FreshnessWindow   time.Duration `koanf:"freshness_window"`
	KeepaliveInterval time.Duration `koanf:"keepalive_interval"`
	// PrimingPaths are target paths (relative to TargetBaseURL, query included)
	// called through the gateway to provoke credential issuance.
	PrimingPaths []string `koanf:"priming_paths"`
}

// GeocodeConfig holds the postal-code geocoder settings.
type GeocodeConfig struct {
	URL            string        `koanf:"url"`
	CountryCode    string        `koanf:"country_code"`
	LocalitySuffix string        `koanf:"locality_suffix"`
	MinScore       float64       `koanf:"min_score"`
	MaxCandidates  int           `koanf:"max_candidates"`
	APIKey         string        `koanf:"api_key"`
	Timeout        time.Duration `koanf:"timeout"`
}

// CacheConfig holds outcome cache retention and backend settings.
type CacheConfig struct {
	// Backend is memory, badger or redis.
	Backend    string        `koanf:"backend"`
	SuccessTTL time.Duration `koanf:"success_ttl"`
	FailureTTL time.Duration `koanf:"failure_ttl"`
	// SuccessTTLDays overrides SuccessTTL when positive (CACHE_TTL_DAYS).
	SuccessTTLDays      int    `koanf:"success_ttl_days"`
	CoordinatePrecision int    `koanf:"coordinate_precision"`
	Namespace           string `koanf:"namespace"`
	BadgerPath          string `koanf:"badger_path"`
	RedisAddr           string `koanf:"redis_addr"`
	RedisPassword       string `koanf:"redis_password"`
	RedisDB             int    `koanf:"redis_db"`
}

// NormalizeConfig overrides the attribute candidate lists. Empty lists keep the built-in order.
type NormalizeConfig struct {
	ValueFields    []string `koanf:"value_fields"`
	ZoneIDFields   []string `koanf:"zone_id_fields"`
	ZoneNameFields []string `koanf:"zone_name_fields"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// ZoneQueryURL returns the fully-qualified zone-query target (without query string).
func (u UpstreamConfig) ZoneQueryURL() string {
	return u.TargetBaseURL + u.ZoneQueryPath
}

// Load reads configuration from defaults, optional config file and environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// applyDerived resolves settings that are expressed in more than one way.
func (c *Config) applyDerived() {
	if c.Cache.SuccessTTLDays > 0 {
		c.Cache.SuccessTTL = time.Duration(c.Cache.SuccessTTLDays) * 24 * time.Hour
	}
}

// String summarizes the configuration without secrets.
func (c *Config) String() string {
	return fmt.Sprintf("server=%s upstream=%s cache=%s(success=%s failure=%s) api_key_set=%t",
		c.Server.Addr(), c.Upstream.GatewayURL, c.Cache.Backend,
		c.Cache.SuccessTTL, c.Cache.FailureTTL, c.Security.APIKey != "")
}
