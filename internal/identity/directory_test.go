// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/roster/internal/identity"
)

func TestMemoryDirectory(t *testing.T) {
	ctx := context.Background()
	directory := identity.NewMemoryDirectory()

	account := identity.Account{ID: identity.NewAccountID(), Email: "Ada@Example.com", PasswordHash: "h"}
	require.NoError(t, directory.Create(ctx, account))
	assert.ErrorIs(t, directory.Create(ctx, identity.Account{ID: "other", Email: "ada@example.com"}), identity.ErrEmailTaken)

	found, err := directory.FindByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, account.ID, found.ID)
	assert.False(t, found.CreatedAt.IsZero())

	byID, err := directory.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, identity.Identity{ID: account.ID, Email: "Ada@Example.com"}, byID.Identity())

	_, err = directory.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, identity.ErrAccountNotFound)
}

func TestMemoryTokenCache(t *testing.T) {
	ctx := context.Background()
	cache := identity.NewMemoryTokenCache()

	_, err := cache.Get(ctx, "tab-1")
	assert.ErrorIs(t, err, identity.ErrNoToken)

	require.NoError(t, cache.Set(ctx, "tab-1", "token", time.Hour))
	token, err := cache.Get(ctx, "tab-1")
	require.NoError(t, err)
	assert.Equal(t, "token", token)

	require.NoError(t, cache.Set(ctx, "tab-2", "stale", time.Nanosecond))
	time.Sleep(time.Millisecond)
	_, err = cache.Get(ctx, "tab-2")
	assert.ErrorIs(t, err, identity.ErrNoToken)

	require.NoError(t, cache.Delete(ctx, "tab-1"))
	_, err = cache.Get(ctx, "tab-1")
	assert.ErrorIs(t, err, identity.ErrNoToken)
}
