// Pagesight - Privacy-First Web Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagesight

// Package config provides layered configuration for Pagesight using Koanf v2.
//
// Sources are applied in priority order (highest wins):
//  1. Environment variables
//  2. Config file (config.yaml)
//  3. Built-in defaults
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Cache     CacheConfig     `koanf:"cache"`
	GeoIP     GeoIPConfig     `koanf:"geoip"`
	Security  SecurityConfig  `koanf:"security"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the listen address in host:port form.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds DuckDB settings for the durable pageview store.
type DatabaseConfig struct {
	Path      string        `koanf:"path"`
	MaxMemory string        `koanf:"max_memory"`
	Threads   int           `koanf:"threads"` // 0 = runtime.NumCPU()
	Timeout   time.Duration `koanf:"timeout"` // per-query timeout
}

// CacheConfig holds BadgerDB settings for the dedup cache, session
// continuity store, and active-visitor presence markers.
type CacheConfig struct {
	// Dir is the BadgerDB directory. Ignored when InMemory is set.
	Dir      string `koanf:"dir"`
	InMemory bool   `koanf:"in_memory"`

	// DedupTTL bounds dedup entries. It is aligned with the UTC-day
	// identity rotation; entries expire rather than being deleted.
	DedupTTL time.Duration `koanf:"dedup_ttl"`

	// SessionTTL is the inactivity TTL for session aggregates.
	SessionTTL time.Duration `koanf:"session_ttl"`

	// ActiveTTL is the short presence-marker TTL behind "visitors
	// active right now".
	ActiveTTL time.Duration `koanf:"active_ttl"`

	// Timeout bounds every cache operation so a hung backend cannot
	// hang a request.
	Timeout time.Duration `koanf:"timeout"`

	// GCInterval is how often the Badger value-log garbage collector runs.
	GCInterval time.Duration `koanf:"gc_interval"`
}

// GeoIPConfig holds the offline GeoIP database settings.
type GeoIPConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"` // MaxMind .mmdb file
}

// SecurityConfig holds CORS and response-header settings.
type SecurityConfig struct {
	// CORSOrigins is the origin allow-list. Empty allows any origin,
	// which is the useful default for a public collection endpoint. A
	// disallowed origin still receives a generically-shaped response,
	// just without CORS grant headers.
	CORSOrigins []string `koanf:"cors_origins"`

	// ContentSecurityPolicy is attached to every response.
	ContentSecurityPolicy string `koanf:"content_security_policy"`
}

// RateLimitConfig holds request rate limiting settings.
type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	Disabled bool          `koanf:"disabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8484,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Path:      "/data/pagesight.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
			Timeout:   5 * time.Second,
		},
		Cache: CacheConfig{
			Dir:        "/data/cache",
			InMemory:   false,
			DedupTTL:   24 * time.Hour,
			SessionTTL: 30 * time.Minute,
			ActiveTTL:  5 * time.Minute,
			Timeout:    500 * time.Millisecond,
			GCInterval: 10 * time.Minute,
		},
		GeoIP: GeoIPConfig{
			Enabled: false,
			Path:    "/data/GeoLite2-Country.mmdb",
		},
		Security: SecurityConfig{
			CORSOrigins:           []string{},
			ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		},
		RateLimit: RateLimitConfig{
			Requests: 600,
			Window:   time.Minute,
			Disabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks the loaded configuration for values that would make the
// service misbehave at runtime. Called by Load; a failure is fatal.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if !c.Cache.InMemory && c.Cache.Dir == "" {
		return fmt.Errorf("cache.dir must not be empty unless cache.in_memory is set")
	}
	if c.Cache.DedupTTL <= 0 {
		return fmt.Errorf("cache.dedup_ttl must be positive, got %s", c.Cache.DedupTTL)
	}
	if c.Cache.SessionTTL <= 0 {
		return fmt.Errorf("cache.session_ttl must be positive, got %s", c.Cache.SessionTTL)
	}
	if c.Cache.ActiveTTL <= 0 {
		return fmt.Errorf("cache.active_ttl must be positive, got %s", c.Cache.ActiveTTL)
	}
	if c.GeoIP.Enabled && c.GeoIP.Path == "" {
		return fmt.Errorf("geoip.path must not be empty when geoip.enabled is set")
	}
	if !c.RateLimit.Disabled && c.RateLimit.Requests <= 0 {
		return fmt.Errorf("rate_limit.requests must be positive, got %d", c.RateLimit.Requests)
	}
	return nil
}
