// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, guards) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Backend Identifiers

const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// # Configuration Schema

// Config holds all runtime configuration for the roster web client.
type Config struct {

	// Server settings
	ServerPort     string        `env:"SERVER_PORT"      envDefault:"8080"`
	Environment    string        `env:"ENVIRONMENT"      envDefault:"development"`
	Debug          bool          `env:"DEBUG"            envDefault:"false"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"  envDefault:"30s"`

	// TrustProxy takes the client address from X-Real-IP / X-Forwarded-For.
	// Enable only behind a reverse proxy that sets those headers.
	TrustProxy bool `env:"TRUST_PROXY" envDefault:"false"`

	// Relational Database (PostgreSQL). Required only by postgres backends.
	DatabaseURL string `env:"DATABASE_URL"`

	// MigrationPath overrides the embedded SQL migrations with a directory on disk.
	MigrationPath string `env:"MIGRATION_PATH"`

	// Key-Value store (Redis). Required only by redis backends.
	RedisURL string `env:"REDIS_URL"`

	// Backend selection for the external collaborators.
	IdentityBackend string `env:"IDENTITY_BACKEND" envDefault:"memory"`
	DocstoreBackend string `env:"DOCSTORE_BACKEND" envDefault:"memory"`
	TokenCache      string `env:"TOKEN_CACHE"      envDefault:"memory"`

	// Identity token signing
	TokenSecret string        `env:"TOKEN_SECRET,required,notEmpty"`
	TokenTTL    time.Duration `env:"TOKEN_TTL" envDefault:"720h"`

	// Navigation targets used by the route guards
	LoginPath   string `env:"LOGIN_PATH"   envDefault:"/auth/login"`
	LandingPath string `env:"LANDING_PATH" envDefault:"/welcome"`

	// GuardResolveWait bounds how long a guarded request waits for an
	// unresolved session before the loading placeholder is rendered.
	GuardResolveWait time.Duration `env:"GUARD_RESOLVE_WAIT" envDefault:"300ms"`

	// SignInEchoWait bounds how long sign-in/out handlers wait for the
	// provider's change notification before redirecting.
	SignInEchoWait time.Duration `env:"SIGNIN_ECHO_WAIT" envDefault:"2s"`

	// Browser tab sessions
	TabIdleTTL   time.Duration `env:"TAB_IDLE_TTL"  envDefault:"30m"`
	MaxTabs      int           `env:"MAX_TABS"      envDefault:"10000"`
	CookieSecure bool          `env:"COOKIE_SECURE" envDefault:"false"`

	// RosterFetchTimeout bounds one read of the account collection.
	RosterFetchTimeout time.Duration `env:"ROSTER_FETCH_TIMEOUT" envDefault:"10s"`

	// ProfileCollection is the document-store collection holding profiles.
	ProfileCollection string `env:"PROFILE_COLLECTION" envDefault:"users"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct and validates
// the backend selection.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	if !oneOf(c.IdentityBackend, BackendPostgres, BackendMemory) {
		errs = append(errs, fmt.Errorf("config: IDENTITY_BACKEND %q is not supported", c.IdentityBackend))
	}
	if !oneOf(c.DocstoreBackend, BackendPostgres, BackendRedis, BackendMemory) {
		errs = append(errs, fmt.Errorf("config: DOCSTORE_BACKEND %q is not supported", c.DocstoreBackend))
	}
	if !oneOf(c.TokenCache, BackendRedis, BackendMemory) {
		errs = append(errs, fmt.Errorf("config: TOKEN_CACHE %q is not supported", c.TokenCache))
	}

	if c.NeedsPostgres() && c.DatabaseURL == "" {
		errs = append(errs, errors.New("config: DATABASE_URL is required by the postgres backends"))
	}
	if c.NeedsRedis() && c.RedisURL == "" {
		errs = append(errs, errors.New("config: REDIS_URL is required by the redis backends"))
	}

	if !strings.HasPrefix(c.LoginPath, "/") || !strings.HasPrefix(c.LandingPath, "/") {
		errs = append(errs, errors.New("config: LOGIN_PATH and LANDING_PATH must be absolute paths"))
	}
	if c.LoginPath == c.LandingPath {
		errs = append(errs, errors.New("config: LOGIN_PATH and LANDING_PATH must differ"))
	}

	return errors.Join(errs...)
}

// NeedsPostgres reports whether any selected backend talks to PostgreSQL.
func (c *Config) NeedsPostgres() bool {
	return c.IdentityBackend == BackendPostgres || c.DocstoreBackend == BackendPostgres
}

// NeedsRedis reports whether any selected backend talks to Redis.
func (c *Config) NeedsRedis() bool {
	return c.DocstoreBackend == BackendRedis || c.TokenCache == BackendRedis
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func oneOf(value string, allowed ...string) bool {
	for _, candidate := range allowed {
		if value == candidate {
			return true
		}
	}
	return false
}
