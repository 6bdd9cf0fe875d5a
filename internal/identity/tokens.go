// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNoToken is returned by a [TokenCache] when the tab has no persisted token.
var ErrNoToken = errors.New("identity: no persisted token")

// TokenCache persists the signed identity token of each browser tab so a
// reload can restore the signed-in state.
type TokenCache interface {
	Get(ctx context.Context, tabID string) (string, error)
	Set(ctx context.Context, tabID, token string, ttl time.Duration) error
	Delete(ctx context.Context, tabID string) error
}

type cachedToken struct {
	value     string
	expiresAt time.Time
}

// MemoryTokenCache is an in-process [TokenCache].
type MemoryTokenCache struct {
	mu     sync.Mutex
	tokens map[string]cachedToken
	now    func() time.Time
}

// NewMemoryTokenCache creates an empty in-process token cache.
func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{tokens: make(map[string]cachedToken), now: time.Now}
}

func (c *MemoryTokenCache) Get(_ context.Context, tabID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	token, ok := c.tokens[tabID]
	if !ok {
		return "", ErrNoToken
	}
	if !token.expiresAt.IsZero() && !c.now().Before(token.expiresAt) {
		delete(c.tokens, tabID)
		return "", ErrNoToken
	}
	return token.value, nil
}

func (c *MemoryTokenCache) Set(_ context.Context, tabID, token string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := cachedToken{value: token}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	c.tokens[tabID] = entry
	return nil
}

func (c *MemoryTokenCache) Delete(_ context.Context, tabID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.tokens, tabID)
	return nil
}
