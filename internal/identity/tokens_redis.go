// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/roster/internal/platform/constants"
)

// RedisTokenCache implements [TokenCache] with one expiring key per tab.
type RedisTokenCache struct {
	client redis.UniversalClient
}

// NewRedisTokenCache creates a token cache on client.
func NewRedisTokenCache(client redis.UniversalClient) *RedisTokenCache {
	return &RedisTokenCache{client: client}
}

func (c *RedisTokenCache) Get(ctx context.Context, tabID string) (string, error) {
	token, err := c.client.Get(ctx, tokenKey(tabID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("redis_token_get_failed: %w", err)
	}
	return token, nil
}

func (c *RedisTokenCache) Set(ctx context.Context, tabID, token string, ttl time.Duration) error {
	if err := c.client.Set(ctx, tokenKey(tabID), token, ttl).Err(); err != nil {
		return fmt.Errorf("redis_token_set_failed: %w", err)
	}
	return nil
}

func (c *RedisTokenCache) Delete(ctx context.Context, tabID string) error {
	if err := c.client.Del(ctx, tokenKey(tabID)).Err(); err != nil {
		return fmt.Errorf("redis_token_delete_failed: %w", err)
	}
	return nil
}

func tokenKey(tabID string) string {
	return constants.RedisPrefixIdentityToken + tabID
}
