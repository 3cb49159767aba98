// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateUpstream(); err != nil {
		return err
	}
	if err := c.validateSession(); err != nil {
		return err
	}
	if err := c.validateGeocode(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.Server.Timeout)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", c.Security.RateLimitReqs)
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.Security.RateLimitWindow)
	}
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			continue
		}
		if err := validateHTTPURL(origin, "CORS_ORIGINS"); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateUpstream() error {
	u := c.Upstream
	if err := validateHTTPURL(u.GatewayURL, "GATEWAY_URL"); err != nil {
		return err
	}
	if err := validateHTTPURL(u.TargetBaseURL, "UPSTREAM_BASE_URL"); err != nil {
		return err
	}
	if !strings.HasPrefix(u.ZoneQueryPath, "/") {
		return fmt.Errorf("ZONE_QUERY_PATH must start with '/', got %q", u.ZoneQueryPath)
	}
	switch u.QueryStyle {
	case "query", "identify":
	default:
		return fmt.Errorf("ZONE_QUERY_STYLE must be 'query' or 'identify', got %q", u.QueryStyle)
	}
	switch u.WKID {
	case 4326, 3857:
	default:
		return fmt.Errorf("ZONE_WKID must be 4326 or 3857, got %d", u.WKID)
	}
	if len(u.OutFields) == 0 {
		return fmt.Errorf("ZONE_OUT_FIELDS must not be empty")
	}
	if u.Timeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be positive, got %s", u.Timeout)
	}
	if u.RequestsPerSecond < 0 {
		return fmt.Errorf("UPSTREAM_RATE_LIMIT_RPS must not be negative, got %v", u.RequestsPerSecond)
	}
	return nil
}

func (c *Config) validateSession() error {
	if c.Session.FreshnessWindow <= 0 {
		return fmt.Errorf("SESSION_FRESHNESS must be positive, got %s", c.Session.FreshnessWindow)
	}
	if c.Session.KeepaliveInterval < 0 {
		return fmt.Errorf("SESSION_KEEPALIVE_INTERVAL must not be negative, got %s", c.Session.KeepaliveInterval)
	}
	if len(c.Session.PrimingPaths) == 0 {
		return fmt.Errorf("SESSION_PRIMING_PATHS must list at least one path")
	}
	return nil
}

func (c *Config) validateGeocode() error {
	if err := validateHTTPURL(c.Geocode.URL, "GEOCODE_URL"); err != nil {
		return err
	}
	if c.Geocode.MinScore < 0 || c.Geocode.MinScore > 100 {
		return fmt.Errorf("GEOCODE_MIN_SCORE must be between 0 and 100, got %v", c.Geocode.MinScore)
	}
	if c.Geocode.MaxCandidates < 1 {
		return fmt.Errorf("GEOCODE_MAX_RESULTS must be at least 1, got %d", c.Geocode.MaxCandidates)
	}
	return nil
}

func (c *Config) validateCache() error {
	switch c.Cache.Backend {
	case "memory":
	case "badger":
		if c.Cache.BadgerPath == "" {
			return fmt.Errorf("CACHE_BADGER_PATH is required when CACHE_BACKEND=badger")
		}
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when CACHE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be memory, badger or redis, got %q", c.Cache.Backend)
	}
	if c.Cache.SuccessTTL <= 0 || c.Cache.FailureTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive (success=%s failure=%s)", c.Cache.SuccessTTL, c.Cache.FailureTTL)
	}
	if c.Cache.CoordinatePrecision < 0 || c.Cache.CoordinatePrecision > 8 {
		return fmt.Errorf("CACHE_PRECISION must be between 0 and 8, got %d", c.Cache.CoordinatePrecision)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL is invalid: %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}

// validateHTTPURL checks that rawURL is an absolute http(s) URL.
func validateHTTPURL(rawURL, fieldName string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %q", fieldName, parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	return nil
}
