package cache

import "time"

// Policy configures entry lifetimes.
type Policy struct {
	// DefaultTTL applies when Set is given no TTL.
	// If zero, entries without a TTL are not stored.
	DefaultTTL time.Duration `yaml:"default_ttl" env:"DEFAULT_TTL"`

	// MaxTTL clamps requested TTLs. Zero means no maximum.
	MaxTTL time.Duration `yaml:"max_ttl" env:"MAX_TTL"`
}

// DefaultPolicy returns DefaultTTL 5 minutes, MaxTTL 1 hour.
func DefaultPolicy() Policy {
	return Policy{
		DefaultTTL: 5 * time.Minute,
		MaxTTL:     1 * time.Hour,
	}
}

// EffectiveTTL returns the TTL to use, applying defaults and clamping.
// A zero result means the entry must not be stored.
func (p Policy) EffectiveTTL(override time.Duration) time.Duration {
	ttl := override
	if ttl <= 0 {
		ttl = p.DefaultTTL
	}
	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}
	return ttl
}
