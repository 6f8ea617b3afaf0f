// Package localcache provides a plugin owning an in-process byte cache.
package localcache

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/plugkit/cache"
	"github.com/jonwraymond/plugkit/plugin"
)

// Kind is the telemetry kind reported by the plugin.
const Kind = "localcache"

// Backend selects the cache implementation.
type Backend string

const (
	BackendMemory    Backend = "memory"
	BackendRistretto Backend = "ristretto"
)

// ErrUnknownBackend is returned by Init for an unsupported backend.
var ErrUnknownBackend = errors.New("localcache: unknown backend")

// Config configures the local cache plugin.
type Config struct {
	Backend Backend      `yaml:"backend" env:"BACKEND"`
	Policy  cache.Policy `yaml:"policy" envPrefix:"POLICY_"`

	// MaxEntries bounds the memory backend. Zero means unbounded.
	MaxEntries int `yaml:"max_entries" env:"MAX_ENTRIES"`

	Ristretto cache.RistrettoOptions `yaml:"ristretto" envPrefix:"RISTRETTO_"`
}

// DefaultConfig returns the configuration used when none is bound.
func DefaultConfig() Config {
	return Config{
		Backend:    BackendMemory,
		Policy:     cache.DefaultPolicy(),
		MaxEntries: 10000,
	}
}

type store struct {
	cache.Cache
	backend Backend
}

// Plugin owns one cache.Cache.
type Plugin struct {
	*plugin.Base[Config, *store]
}

// New creates a local cache plugin registered under name.
func New(name string) *Plugin {
	return &Plugin{plugin.NewBase(name, DefaultConfig, plugin.Hooks[Config, *store]{
		Acquire: func(_ context.Context, cfg Config) (*store, error) {
			c, err := open(cfg)
			if err != nil {
				return nil, err
			}
			return &store{Cache: c, backend: cfg.Backend}, nil
		},
		Release: func(_ context.Context, s *store) error {
			return s.Close()
		},
	})}
}

func open(cfg Config) (cache.Cache, error) {
	switch cfg.Backend {
	case BackendMemory, "":
		return cache.NewMemoryCache(cfg.Policy, cfg.MaxEntries), nil
	case BackendRistretto:
		return cache.NewRistrettoCache(cfg.Policy, cfg.Ristretto)
	default:
		return nil, fmt.Errorf("%w: %w: %q", plugin.ErrConfiguration, ErrUnknownBackend, cfg.Backend)
	}
}

// InitApp validates and binds cfg, registering p itself.
func (p *Plugin) InitApp(reg *plugin.Registry, cfg any) error {
	return p.Bind(reg, p, cfg)
}

// Kind reports "localcache".
func (p *Plugin) Kind() string {
	return Kind
}

// Cache returns the live cache.
func (p *Plugin) Cache() (cache.Cache, error) {
	s, err := p.Resource()
	if err != nil {
		return nil, err
	}
	return s.Cache, nil
}

// Health reports the backend and entry count.
func (p *Plugin) Health(context.Context) (map[string]any, error) {
	s, err := p.Resource()
	if err != nil {
		return nil, err
	}
	backend := s.backend
	if backend == "" {
		backend = BackendMemory
	}
	return map[string]any{
		"backend": string(backend),
		"entries": s.Len(),
	}, nil
}
