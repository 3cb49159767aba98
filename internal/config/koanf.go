// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/zonevalue/config.yaml",
	"/etc/zonevalue/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "production",
		},
		Security: SecurityConfig{
			APIKey:          "",
			CORSOrigins:     []string{},
			RateLimitReqs:   60,
			RateLimitWindow: time.Minute,
		},
		Upstream: UpstreamConfig{
			GatewayURL:    "https://maps.gsis.gr/valuemaps2/proxy.jsp",
			TargetBaseURL: "https://maps.gsis.gr/arcgis/rest/services",
			ZoneQueryPath: "/APAA_PUBLIC/PUBLIC_ZONES_APAA_2021_INFO/MapServer/0/query",
			QueryStyle:    "query",
			WKID:          4326,
			OutFields:     []string{"*"},
			SpatialRel:    "esriSpatialRelIntersects",
			Accept:        "application/json, text/javascript, */*; q=0.01",
			UserAgent:     "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
			Referer:       "https://maps.gsis.gr/valuemaps2/",
			Origin:        "https://maps.gsis.gr",
			Timeout:       15 * time.Second,
			// Zero disables outbound pacing.
			RequestsPerSecond: 5,
			Burst:             5,
		},
		Session: SessionConfig{
			FreshnessWindow:   20 * time.Minute,
			KeepaliveInterval: 0,
			PrimingPaths:      []string{"/info?f=json"},
		},
		Geocode: GeocodeConfig{
			URL:            "https://geocode.arcgis.com/arcgis/rest/services/World/GeocodeServer/findAddressCandidates",
			CountryCode:    "GRC",
			LocalitySuffix: "Greece",
			MinScore:       80,
			MaxCandidates:  5,
			Timeout:        10 * time.Second,
		},
		Cache: CacheConfig{
			Backend:             "memory",
			SuccessTTL:          30 * 24 * time.Hour,
			FailureTTL:          5 * time.Minute,
			CoordinatePrecision: 5,
			Namespace:           "zonevalue",
			BadgerPath:          "/data/zonevalue-cache",
			RedisAddr:           "localhost:6379",
		},
		Normalize: NormalizeConfig{},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.applyDerived()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are the koanf paths that accept comma-separated strings from env vars.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"upstream.out_fields",
	"session.priming_paths",
	"normalize.value_fields",
	"normalize.zone_id_fields",
	"normalize.zone_name_fields",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	// Server
	"http_port":        "server.port",
	"port":             "server.port",
	"http_host":        "server.host",
	"http_timeout":     "server.timeout",
	"shutdown_timeout": "server.shutdown_timeout",
	"environment":      "server.environment",

	// Security
	"api_key":             "security.api_key",
	"cors_origins":        "security.cors_origins",
	"allowed_origins":     "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	// Upstream
	"gateway_url":             "upstream.gateway_url",
	"upstream_base_url":       "upstream.target_base_url",
	"zone_query_path":         "upstream.zone_query_path",
	"zone_query_style":        "upstream.query_style",
	"zone_wkid":               "upstream.wkid",
	"zone_out_fields":         "upstream.out_fields",
	"upstream_referer":        "upstream.referer",
	"upstream_origin":         "upstream.origin",
	"upstream_user_agent":     "upstream.user_agent",
	"upstream_timeout":        "upstream.timeout",
	"upstream_rate_limit_rps": "upstream.requests_per_second",
	"upstream_rate_burst":     "upstream.burst",

	// Session
	"session_freshness":          "session.freshness_window",
	"session_keepalive_interval": "session.keepalive_interval",
	"session_priming_paths":      "session.priming_paths",

	// Geocode
	"geocode_url":         "geocode.url",
	"geocode_country":     "geocode.country_code",
	"geocode_min_score":   "geocode.min_score",
	"geocode_api_key":     "geocode.api_key",
	"geocode_timeout":     "geocode.timeout",
	"geocode_locality":    "geocode.locality_suffix",
	"geocode_max_results": "geocode.max_candidates",

	// Cache
	"cache_backend":        "cache.backend",
	"cache_ttl_days":       "cache.success_ttl_days",
	"cache_success_ttl":    "cache.success_ttl",
	"cache_failure_ttl":    "cache.failure_ttl",
	"cache_precision":      "cache.coordinate_precision",
	"cache_namespace":      "cache.namespace",
	"cache_badger_path":    "cache.badger_path",
	"redis_addr":           "cache.redis_addr",
	"redis_password":       "cache.redis_password",
	"redis_db":             "cache.redis_db",
	"zone_value_fields":    "normalize.value_fields",
	"zone_id_fields":       "normalize.zone_id_fields",
	"zone_name_fields":     "normalize.zone_name_fields",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps environment variable names to koanf paths.
// Unmapped variables return "" and are skipped.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
