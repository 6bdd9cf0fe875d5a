// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/roster/internal/platform/config"
)

/*
TestLoad_Defaults verifies that a minimal environment yields the in-memory stack.
*/
func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "secret")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, config.BackendMemory, cfg.IdentityBackend)
	assert.Equal(t, config.BackendMemory, cfg.DocstoreBackend)
	assert.Equal(t, "/auth/login", cfg.LoginPath)
	assert.Equal(t, "/welcome", cfg.LandingPath)
	assert.Equal(t, 300*time.Millisecond, cfg.GuardResolveWait)
	assert.Equal(t, "users", cfg.ProfileCollection)
	assert.Equal(t, 10*time.Second, cfg.RosterFetchTimeout)
	assert.False(t, cfg.TrustProxy)
	assert.Equal(t, 10000, cfg.MaxTabs)
	assert.False(t, cfg.NeedsPostgres())
	assert.False(t, cfg.NeedsRedis())
	assert.True(t, cfg.IsDevelopment())
}

/*
TestLoad_MissingSecret checks that the required token secret is enforced.
*/
func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "")

	_, err := config.Load()
	assert.Error(t, err)
}

/*
TestValidate_Backends covers the cross-field backend rules.
*/
func TestValidate_Backends(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{"memory_everything", func(c *config.Config) {}, false},
		{"postgres_without_dsn", func(c *config.Config) { c.DocstoreBackend = config.BackendPostgres }, true},
		{"postgres_with_dsn", func(c *config.Config) {
			c.IdentityBackend = config.BackendPostgres
			c.DatabaseURL = "postgres://localhost/roster"
		}, false},
		{"redis_without_url", func(c *config.Config) { c.TokenCache = config.BackendRedis }, true},
		{"unknown_docstore", func(c *config.Config) { c.DocstoreBackend = "firestore" }, true},
		{"redis_identity_not_supported", func(c *config.Config) { c.IdentityBackend = config.BackendRedis }, true},
		{"relative_login_path", func(c *config.Config) { c.LoginPath = "login" }, true},
		{"same_paths", func(c *config.Config) { c.LandingPath = c.LoginPath }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				IdentityBackend: config.BackendMemory,
				DocstoreBackend: config.BackendMemory,
				TokenCache:      config.BackendMemory,
				LoginPath:       "/auth/login",
				LandingPath:     "/welcome",
			}
			tt.mutate(cfg)

			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}
