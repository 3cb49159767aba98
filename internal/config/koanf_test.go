// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// isolateConfigPaths points CONFIG_PATH and the search list at an empty temp dir.
func isolateConfigPaths(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	orig := DefaultConfigPaths
	DefaultConfigPaths = []string{filepath.Join(dir, "config.yaml")}
	t.Cleanup(func() { DefaultConfigPaths = orig })
	t.Setenv(ConfigPathEnvVar, "")
	return dir
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Session.FreshnessWindow != 20*time.Minute {
		t.Errorf("Session.FreshnessWindow = %v, want 20m", cfg.Session.FreshnessWindow)
	}
	if cfg.Cache.SuccessTTL != 30*24*time.Hour {
		t.Errorf("Cache.SuccessTTL = %v, want 720h", cfg.Cache.SuccessTTL)
	}
	if cfg.Cache.FailureTTL != 5*time.Minute {
		t.Errorf("Cache.FailureTTL = %v, want 5m", cfg.Cache.FailureTTL)
	}
	if cfg.Cache.CoordinatePrecision != 5 {
		t.Errorf("Cache.CoordinatePrecision = %d, want 5", cfg.Cache.CoordinatePrecision)
	}
	if cfg.Geocode.CountryCode != "GRC" {
		t.Errorf("Geocode.CountryCode = %q, want GRC", cfg.Geocode.CountryCode)
	}
	if cfg.Security.APIKey != "" {
		t.Error("Security.APIKey should be empty by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadWithKoanf_Defaults(t *testing.T) {
	isolateConfigPaths(t)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Upstream.WKID != 4326 {
		t.Errorf("Upstream.WKID = %d, want 4326", cfg.Upstream.WKID)
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("Cache.Backend = %q, want memory", cfg.Cache.Backend)
	}
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	isolateConfigPaths(t)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("API_KEY", "k-123")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("CACHE_TTL_DAYS", "7")
	t.Setenv("CACHE_FAILURE_TTL", "90s")
	t.Setenv("ZONE_WKID", "3857")
	t.Setenv("SESSION_FRESHNESS", "15m")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Security.APIKey != "k-123" {
		t.Errorf("Security.APIKey = %q", cfg.Security.APIKey)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://b.example" {
		t.Errorf("Security.CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
	if cfg.Cache.SuccessTTL != 7*24*time.Hour {
		t.Errorf("Cache.SuccessTTL = %v, want 168h", cfg.Cache.SuccessTTL)
	}
	if cfg.Cache.FailureTTL != 90*time.Second {
		t.Errorf("Cache.FailureTTL = %v, want 90s", cfg.Cache.FailureTTL)
	}
	if cfg.Upstream.WKID != 3857 {
		t.Errorf("Upstream.WKID = %d, want 3857", cfg.Upstream.WKID)
	}
	if cfg.Session.FreshnessWindow != 15*time.Minute {
		t.Errorf("Session.FreshnessWindow = %v, want 15m", cfg.Session.FreshnessWindow)
	}
}

func TestLoadWithKoanf_ConfigFile(t *testing.T) {
	dir := isolateConfigPaths(t)
	path := filepath.Join(dir, "zonevalue.yaml")
	content := `
upstream:
  gateway_url: https://gw.example/proxy
  out_fields: [ZONEREGISTRYID, TIMH]
cache:
  backend: badger
  badger_path: /tmp/zv
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Upstream.GatewayURL != "https://gw.example/proxy" {
		t.Errorf("Upstream.GatewayURL = %q", cfg.Upstream.GatewayURL)
	}
	if len(cfg.Upstream.OutFields) != 2 {
		t.Errorf("Upstream.OutFields = %v", cfg.Upstream.OutFields)
	}
	if cfg.Cache.Backend != "badger" {
		t.Errorf("Cache.Backend = %q", cfg.Cache.Backend)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"HTTP_PORT", "server.port"},
		{"API_KEY", "security.api_key"},
		{"GATEWAY_URL", "upstream.gateway_url"},
		{"CACHE_TTL_DAYS", "cache.success_ttl_days"},
		{"LOG_LEVEL", "logging.level"},
		{"HOME", ""},
		{"PATH", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := envTransformFunc(tt.input); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"bad wkid", func(c *Config) { c.Upstream.WKID = 2100 }, true},
		{"bad style", func(c *Config) { c.Upstream.QueryStyle = "find" }, true},
		{"bad gateway", func(c *Config) { c.Upstream.GatewayURL = "ftp://x" }, true},
		{"no priming", func(c *Config) { c.Session.PrimingPaths = nil }, true},
		{"bad backend", func(c *Config) { c.Cache.Backend = "memcached" }, true},
		{"redis without addr", func(c *Config) { c.Cache.Backend = "redis"; c.Cache.RedisAddr = "" }, true},
		{"bad min score", func(c *Config) { c.Geocode.MinScore = 101 }, true},
		{"bad origin", func(c *Config) { c.Security.CORSOrigins = []string{"not a url"} }, true},
		{"wildcard origin", func(c *Config) { c.Security.CORSOrigins = []string{"*"} }, false},
		{"rate limit disabled", func(c *Config) { c.Security.RateLimitDisabled = true; c.Security.RateLimitReqs = 0 }, false},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestServerAddr(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 8080}
	if got := s.Addr(); got != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q", got)
	}
}
