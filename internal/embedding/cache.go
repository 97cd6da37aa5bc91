// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// cacheKeyChars is how much of the text identifies a cache entry.
const cacheKeyChars = 500

// Cache memoizes a Provider. Texts sharing their first 500 characters share
// an entry. Safe for concurrent use; failed calls are not cached.
type Cache struct {
	provider Provider

	mu      sync.RWMutex
	entries map[string][]float64
}

// NewCache wraps p.
func NewCache(p Provider) *Cache {
	return &Cache{provider: p, entries: make(map[string][]float64)}
}

// Provider returns the wrapped provider, bypassing the cache.
func (c *Cache) Provider() Provider { return c.provider }

// Name returns the wrapped provider's name.
func (c *Cache) Name() string { return c.provider.Name() }

// Embed returns the cached vector for text or asks the provider.
func (c *Cache) Embed(ctx context.Context, text string) ([]float64, error) {
	key := cacheKey(text)

	c.mu.RLock()
	vec, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return vec, nil
	}

	vec, err := c.provider.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = vec
	c.mu.Unlock()
	return vec, nil
}

// Len returns the number of cached vectors.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func cacheKey(text string) string {
	r := []rune(text)
	if len(r) > cacheKeyChars {
		r = r[:cacheKeyChars]
	}
	sum := sha256.Sum256([]byte(string(r)))
	return hex.EncodeToString(sum[:])
}
