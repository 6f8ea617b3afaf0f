package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is a map-backed Cache.
type MemoryCache struct {
	mu         sync.RWMutex
	entries    map[string]*cacheEntry
	policy     Policy
	maxEntries int
	closed     bool
	now        func() time.Time
}

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryCache creates a cache using policy. maxEntries > 0 bounds the
// number of entries; when full, expired entries are swept and, failing
// that, the entry closest to expiry is evicted.
func NewMemoryCache(policy Policy, maxEntries int) *MemoryCache {
	return &MemoryCache{
		entries:    make(map[string]*cacheEntry),
		policy:     policy,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get retrieves a value. Expired entries are removed lazily.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && cur == entry {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	return entry.value, true
}

// Set stores a copy of value.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	ttl = c.policy.EffectiveTTL(ttl)
	if ttl <= 0 {
		return nil
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}
	c.entries[key] = &cacheEntry{
		value:     stored,
		expiresAt: c.now().Add(ttl),
	}
	return nil
}

func (c *MemoryCache) evictLocked() {
	now := c.now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	if len(c.entries) < c.maxEntries {
		return
	}

	var victim string
	var soonest time.Time
	for k, e := range c.entries {
		if victim == "" || e.expiresAt.Before(soonest) {
			victim, soonest = k, e.expiresAt
		}
	}
	delete(c.entries, victim)
}

// Delete removes a value. Idempotent.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Clear removes every entry.
func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included until
// they are swept.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close drops all entries and rejects further writes.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	c.closed = true
	clear(c.entries)
	c.mu.Unlock()
	return nil
}

var _ Cache = (*MemoryCache)(nil)
