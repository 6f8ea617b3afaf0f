package plugin

import (
	"fmt"
	"sync"
)

// Registry is the application-scoped set of plugins, keyed by name and kept
// in registration order. One Registry belongs to one running application;
// hosts construct a fresh Registry per instance instead of sharing globals.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Plugin
	order   []string // Maintains registration order
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]Plugin),
		order:   make([]string, 0),
	}
}

// Register adds p under p.Name(). Registering the same instance again is a
// no-op that keeps its original position.
func (r *Registry) Register(p Plugin) error {
	if p == nil {
		return fmt.Errorf("%w: nil plugin", ErrConfiguration)
	}
	name := p.Name()
	if name == "" {
		return fmt.Errorf("%w: empty plugin name", ErrConfiguration)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[name]; ok {
		if existing == p {
			return nil
		}
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	r.entries[name] = p
	r.order = append(r.order, name)
	return nil
}

// Unregister removes the plugin registered under name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[name]; !ok {
		return
	}
	delete(r.entries, name)

	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Lookup returns the plugin registered under name.
func (r *Registry) Lookup(name string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.entries[name]
	return p, ok
}

// Plugins returns a snapshot of all plugins in registration order.
func (r *Registry) Plugins() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Plugin, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name])
	}
	return out
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Len returns the number of registered plugins.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Lookup returns the plugin registered under name as type T.
func Lookup[T any](r *Registry, name string) (T, error) {
	var zero T
	p, ok := r.Lookup(name)
	if !ok {
		return zero, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	t, ok := p.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q is %T, want %T", ErrWrongType, name, p, zero)
	}
	return t, nil
}

// Find returns every registered plugin implementing T, in registration order.
func Find[T any](r *Registry) []T {
	var out []T
	for _, p := range r.Plugins() {
		if t, ok := p.(T); ok {
			out = append(out, t)
		}
	}
	return out
}
