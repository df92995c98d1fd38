// Package config provides environment-driven configuration for the route server.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Config holds all application configuration values.
type Config struct {
	StoreBackend  string
	BadgerDir     string
	DatabaseURL   Secret
	DBMaxConns    int32
	NodeCacheSize int64

	Port        string
	ListenHost  string
	CORSOrigins []string
	LogLevel    string
	RateLimit   int
	RateBurst   int

	MaxDistanceKm float64
	DefaultWeight float64
	StartWeight   float64
	MaxRuns       int
	DefaultRuns   int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		StoreBackend: envOrDefault("STORE_BACKEND", "badger"),
		BadgerDir:    envOrDefault("BADGER_DIR", "./data/graph"),
		DatabaseURL:  Secret(envOrDefault("DATABASE_URL", "")),
		Port:         envOrDefault("PORT", "5000"),
		ListenHost:   envOrDefault("LISTEN_HOST", "127.0.0.1"),
		LogLevel:     envOrDefault("LOG_LEVEL", "info"),
	}

	var p parser

	cfg.DBMaxConns = int32(p.intVar("DB_MAX_CONNS", 21, 1, 1000))
	cfg.NodeCacheSize = int64(p.intVar("NODE_CACHE_SIZE", 10000, 0, 10_000_000))
	cfg.RateLimit = p.intVar("RATE_LIMIT", 20, 1, 100_000)
	cfg.RateBurst = p.intVar("RATE_BURST", 40, 1, 100_000)
	cfg.MaxRuns = p.intVar("MAX_RUNS", 20, 1, 1000)
	cfg.DefaultRuns = p.intVar("DEFAULT_RUNS", 10, 0, 1000)
	cfg.MaxDistanceKm = p.floatVar("MAX_DISTANCE_KM", "1000")
	cfg.DefaultWeight = p.floatVar("DEFAULT_WEIGHT", "10")
	cfg.StartWeight = p.floatVar("START_WEIGHT", "0.504597714410906")

	if p.err != nil {
		return nil, fmt.Errorf("config validation: %w", p.err)
	}

	origins := envOrDefault("CORS_ORIGINS", "http://localhost:3000")
	cfg.CORSOrigins = strings.Split(origins, ",")

	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address in host:port format.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

// parser collects the first numeric parse failure.
type parser struct {
	err error
}

func (p *parser) intVar(key string, fallback, lo, hi int) int {
	if p.err != nil {
		return fallback
	}

	v, err := strconv.Atoi(envOrDefault(key, strconv.Itoa(fallback)))
	if err != nil || v < lo || v > hi {
		p.err = fmt.Errorf("%s must be an integer between %d and %d", key, lo, hi)

		return fallback
	}

	return v
}

func (p *parser) floatVar(key, fallback string) float64 {
	if p.err != nil {
		return 0
	}

	v, err := strconv.ParseFloat(envOrDefault(key, fallback), 64)
	if err != nil {
		p.err = fmt.Errorf("%s must be a number: %w", key, err)

		return 0
	}

	return v
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
