// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/roster/internal/platform/sec"
)

/*
TestTokenService_RoundTrip verifies that issued tokens verify with the same secret.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	service, err := sec.NewTokenService("s3cret", "roster.test")
	require.NoError(t, err)

	token, err := service.Issue("id-1", "a@x.com", time.Hour)
	require.NoError(t, err)

	claims, err := service.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "id-1", claims.Subject)
	assert.Equal(t, "a@x.com", claims.Email)
}

/*
TestTokenService_Rejects covers foreign, expired, and garbage tokens.
*/
func TestTokenService_Rejects(t *testing.T) {
	service, err := sec.NewTokenService("s3cret", "roster.test")
	require.NoError(t, err)
	other, err := sec.NewTokenService("other", "roster.test")
	require.NoError(t, err)

	foreign, err := other.Issue("id-1", "a@x.com", time.Hour)
	require.NoError(t, err)
	expired, err := service.Issue("id-1", "a@x.com", -time.Minute)
	require.NoError(t, err)

	for name, token := range map[string]string{"foreign": foreign, "expired": expired, "garbage": "not.a.token"} {
		t.Run(name, func(t *testing.T) {
			_, err := service.Verify(token)
			assert.ErrorIs(t, err, sec.ErrInvalidToken)
		})
	}
}

func TestNewTokenService_EmptySecret(t *testing.T) {
	_, err := sec.NewTokenService("", "roster.test")
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	hash, err := sec.HashPassword("dula@123")
	require.NoError(t, err)

	assert.True(t, sec.CheckPasswordHash("dula@123", hash))
	assert.False(t, sec.CheckPasswordHash("wrong", hash))
}
