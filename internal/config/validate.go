package config

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

func (c *Config) validate() error {
	if err := c.validateStore(); err != nil {
		return err
	}

	if err := c.validateNetwork(); err != nil {
		return err
	}

	if err := c.validateCORS(); err != nil {
		return err
	}

	if err := c.validateSearch(); err != nil {
		return err
	}

	return nil
}

func (c *Config) validateStore() error {
	switch c.StoreBackend {
	case "badger":
		if strings.TrimSpace(c.BadgerDir) == "" {
			return fmt.Errorf("BADGER_DIR is required when STORE_BACKEND is badger")
		}
	case "postgres":
		return c.validateDatabase()
	case "memory":
	default:
		return fmt.Errorf("STORE_BACKEND must be 'badger', 'postgres' or 'memory', got %q", c.StoreBackend)
	}

	return nil
}

func (c *Config) validateDatabase() error {
	if c.DatabaseURL.Value() == "" {
		return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND is postgres")
	}

	dbURL, err := url.Parse(c.DatabaseURL.Value())
	if err != nil {
		return fmt.Errorf("DATABASE_URL is not a valid URL: %w", err)
	}

	if dbURL.Scheme != "postgres" && dbURL.Scheme != "postgresql" {
		return fmt.Errorf("DATABASE_URL scheme must be postgres:// or postgresql://")
	}

	if dbURL.Hostname() == "" {
		return fmt.Errorf("DATABASE_URL must include a host")
	}

	dbHost := dbURL.Hostname()
	if dbHost != "localhost" && dbHost != "127.0.0.1" && dbHost != "::1" {
		sslmode := dbURL.Query().Get("sslmode")
		if sslmode == "disable" {
			return fmt.Errorf("DATABASE_URL sslmode=disable is not allowed for non-local host %q", dbHost)
		}
	}

	return nil
}

func (c *Config) validateNetwork() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid integer: %w", err)
	}

	if port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	// Loopback for local runs, wildcard for containers behind an external boundary.
	validHosts := map[string]bool{
		"127.0.0.1": true,
		"::1":       true,
		"localhost": true,
		"0.0.0.0":   true,
		"::":        true,
	}
	if !validHosts[c.ListenHost] {
		return fmt.Errorf("LISTEN_HOST must be a loopback address or 0.0.0.0/:: for containers (got %q)", c.ListenHost)
	}

	if c.RateBurst < c.RateLimit {
		return fmt.Errorf("RATE_BURST must be at least RATE_LIMIT")
	}

	return nil
}

func (c *Config) validateCORS() error {
	for _, origin := range c.CORSOrigins {
		if origin == "*" {
			return fmt.Errorf("CORS_ORIGINS must not contain wildcard '*'")
		}
		if strings.ContainsAny(origin, "*?[]") {
			return fmt.Errorf("CORS_ORIGINS must not contain glob characters (*?[]), got %q", origin)
		}
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("CORS_ORIGINS contains invalid origin %q (must have scheme and host)", origin)
		}
	}

	return nil
}

func (c *Config) validateSearch() error {
	if math.IsNaN(c.MaxDistanceKm) || math.IsInf(c.MaxDistanceKm, 0) || c.MaxDistanceKm <= 0 {
		return fmt.Errorf("MAX_DISTANCE_KM must be a positive finite number, got %v", c.MaxDistanceKm)
	}

	for name, v := range map[string]float64{"DEFAULT_WEIGHT": c.DefaultWeight, "START_WEIGHT": c.StartWeight} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be finite", name)
		}
	}

	if c.DefaultRuns > c.MaxRuns {
		return fmt.Errorf("DEFAULT_RUNS must not exceed MAX_RUNS (%d)", c.MaxRuns)
	}

	return nil
}
