package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/ristretto"
)

// RistrettoOptions sizes a RistrettoCache.
type RistrettoOptions struct {
	// NumCounters is the number of admission counters, about 10x the
	// expected number of items. Default: 1e5
	NumCounters int64 `yaml:"num_counters" env:"NUM_COUNTERS"`

	// MaxCost is the total byte budget. Default: 64 MiB
	MaxCost int64 `yaml:"max_cost" env:"MAX_COST"`

	// BufferItems is the number of keys per Get buffer. Default: 64
	BufferItems int64 `yaml:"buffer_items" env:"BUFFER_ITEMS"`
}

// RistrettoCache is a Cache backed by ristretto. Values are costed by their
// length. Writes are applied synchronously so a Get after Set observes the
// value unless the admission policy rejected it.
type RistrettoCache struct {
	cache  *ristretto.Cache
	policy Policy
	closed atomic.Bool
}

// NewRistrettoCache creates a ristretto-backed cache.
func NewRistrettoCache(policy Policy, opts RistrettoOptions) (*RistrettoCache, error) {
	if opts.NumCounters <= 0 {
		opts.NumCounters = 1e5
	}
	if opts.MaxCost <= 0 {
		opts.MaxCost = 64 << 20
	}
	if opts.BufferItems <= 0 {
		opts.BufferItems = 64
	}

	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: opts.NumCounters,
		MaxCost:     opts.MaxCost,
		BufferItems: opts.BufferItems,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}
	return &RistrettoCache{cache: c, policy: policy}, nil
}

// Get retrieves a value.
func (c *RistrettoCache) Get(_ context.Context, key string) ([]byte, bool) {
	if c.closed.Load() {
		return nil, false
	}
	v, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

// Set stores a copy of value. ErrRejected is returned when the admission
// policy drops the write.
func (c *RistrettoCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if err := ValidateKey(key); err != nil {
		return err
	}
	ttl = c.policy.EffectiveTTL(ttl)
	if ttl <= 0 {
		return nil
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	cost := int64(len(stored))
	if cost == 0 {
		cost = 1
	}
	if !c.cache.SetWithTTL(key, stored, cost, ttl) {
		return ErrRejected
	}
	c.cache.Wait()
	return nil
}

// Delete removes a value. Idempotent.
func (c *RistrettoCache) Delete(_ context.Context, key string) error {
	if c.closed.Load() {
		return nil
	}
	c.cache.Del(key)
	return nil
}

// Clear removes every entry.
func (c *RistrettoCache) Clear(_ context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}
	c.cache.Clear()
	return nil
}

// Len approximates the number of live entries from ristretto's counters.
func (c *RistrettoCache) Len() int {
	m := c.cache.Metrics
	if m == nil {
		return 0
	}
	n := int64(m.KeysAdded()) - int64(m.KeysEvicted())
	if n < 0 {
		return 0
	}
	return int(n)
}

// Close stops ristretto's goroutines.
func (c *RistrettoCache) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		c.cache.Close()
	}
	return nil
}

var _ Cache = (*RistrettoCache)(nil)
