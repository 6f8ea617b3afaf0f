package config

import (
	"fmt"
	"os"
	"sort"
	"sync"
)

// Well-known configuration names.
const (
	NameDocker = "docker"
	NameLocal  = "local"
	NameTest   = "test"

	// DefaultName is used when neither a name nor the environment selects one.
	DefaultName = NameDocker

	// DefaultEnvVar selects the configuration name at runtime.
	DefaultEnvVar = "CONFIG_NAME"
)

// Factory builds a settings value.
type Factory[T any] func() (T, error)

// Manager maps configuration names to factories.
type Manager[T any] struct {
	mu          sync.RWMutex
	factories   map[string]Factory[T]
	envVar      string
	defaultName string
	lookupEnv   func(string) (string, bool)
}

// ManagerOption configures a Manager.
type ManagerOption func(*managerOptions)

type managerOptions struct {
	envVar      string
	defaultName string
	lookupEnv   func(string) (string, bool)
}

// WithEnvVar changes the variable that selects the configuration.
func WithEnvVar(name string) ManagerOption {
	return func(o *managerOptions) { o.envVar = name }
}

// WithDefaultName changes the fallback configuration name.
func WithDefaultName(name string) ManagerOption {
	return func(o *managerOptions) { o.defaultName = name }
}

// WithLookupEnv replaces os.LookupEnv.
func WithLookupEnv(fn func(string) (string, bool)) ManagerOption {
	return func(o *managerOptions) { o.lookupEnv = fn }
}

// NewManager creates an empty manager.
func NewManager[T any](opts ...ManagerOption) *Manager[T] {
	o := managerOptions{
		envVar:      DefaultEnvVar,
		defaultName: DefaultName,
		lookupEnv:   os.LookupEnv,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Manager[T]{
		factories:   make(map[string]Factory[T]),
		envVar:      o.envVar,
		defaultName: o.defaultName,
		lookupEnv:   o.lookupEnv,
	}
}

// Register binds name to f, replacing any previous factory. An empty name
// registers the default configuration.
func (m *Manager[T]) Register(name string, f Factory[T]) {
	if name == "" {
		name = m.defaultName
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.factories[name] = f
}

// Reset removes all factories.
func (m *Manager[T]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.factories)
}

// Names returns the registered names, sorted.
func (m *Manager[T]) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.factories))
	for name := range m.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the configuration name Get would use for name. The
// environment variable takes precedence over name, and name over the
// default.
func (m *Manager[T]) Resolve(name string) string {
	if v, ok := m.lookupEnv(m.envVar); ok && v != "" {
		return v
	}
	if name != "" {
		return name
	}
	return m.defaultName
}

// Get builds the selected configuration.
func (m *Manager[T]) Get(name string) (T, error) {
	name = m.Resolve(name)

	m.mu.RLock()
	f, ok := m.factories[name]
	m.mu.RUnlock()

	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %q", ErrUnknownConfig, name)
	}
	return f()
}
