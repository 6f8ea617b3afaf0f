package plugin

import (
	"context"
	"fmt"
	"sync"
)

// Plugin is the lifecycle contract every managed subsystem implements.
//
// Contract:
//   - InitApp may be called in any state except running; it binds cfg and
//     registers the plugin. A running plugin rejects it with ErrAlreadyInitialized.
//   - Init requires a bound configuration (a default one is synthesized otherwise)
//     and fails with ErrAlreadyInitialized on a running plugin.
//   - Terminate never fails for "nothing to do".
//   - Concurrency: lifecycle calls on one instance must be serialized by the caller.
type Plugin interface {
	// Name returns the registration name, unique within a Registry.
	Name() string

	// State returns the current lifecycle state.
	State() State

	// InitApp validates and binds cfg, then registers the plugin into reg.
	InitApp(reg *Registry, cfg any) error

	// Init acquires the plugin's resource.
	Init(ctx context.Context) error

	// Terminate releases the resource, if any, and clears the configuration.
	Terminate(ctx context.Context) error
}

// Hooks are the plugin-specific parts of the lifecycle.
type Hooks[C, R any] struct {
	// Acquire creates the live resource from the bound configuration.
	Acquire func(ctx context.Context, cfg C) (R, error)

	// Release frees a resource previously returned by Acquire. Optional.
	Release func(ctx context.Context, res R) error
}

// Base implements the Plugin state machine for configuration type C and
// resource type R. Embed a *Base in concrete plugins.
type Base[C, R any] struct {
	name     string
	defaults func() C
	hooks    Hooks[C, R]

	mu        sync.RWMutex
	state     State
	config    C
	hasConfig bool
	resource  R
}

// NewBase creates a Base. defaults returns the configuration used when none
// is supplied; a nil defaults yields the zero C.
func NewBase[C, R any](name string, defaults func() C, hooks Hooks[C, R]) *Base[C, R] {
	if defaults == nil {
		defaults = func() C {
			var zero C
			return zero
		}
	}
	return &Base[C, R]{
		name:     name,
		defaults: defaults,
		hooks:    hooks,
	}
}

// Name returns the registration name.
func (b *Base[C, R]) Name() string {
	return b.name
}

// State returns the current lifecycle state.
func (b *Base[C, R]) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// InitApp validates cfg, stores it and registers the plugin into reg.
//
// An untyped nil cfg selects the default configuration. A value of type C or
// a non-nil *C is accepted; anything else fails with ErrConfiguration.
// Types embedding Base should call Bind with themselves instead.
func (b *Base[C, R]) InitApp(reg *Registry, cfg any) error {
	return b.Bind(reg, b, cfg)
}

// Bind is InitApp for embedding types: self is registered instead of b, so
// registry lookups return the concrete plugin.
//
// A running plugin keeps its configuration and resource; Bind fails with
// ErrAlreadyInitialized until Terminate.
func (b *Base[C, R]) Bind(reg *Registry, self Plugin, cfg any) error {
	if b.State() == StateRunning {
		return newError(b.name, "init_app", ErrAlreadyInitialized)
	}
	c, err := b.coerce(cfg)
	if err != nil {
		return newError(b.name, "init_app", err)
	}
	if reg == nil {
		return newError(b.name, "init_app", fmt.Errorf("%w: registry is nil", ErrConfiguration))
	}
	if err := reg.Register(self); err != nil {
		return newError(b.name, "init_app", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateRunning {
		return newError(b.name, "init_app", ErrAlreadyInitialized)
	}
	b.config = c
	b.hasConfig = true
	b.state = StateConfigured
	return nil
}

func (b *Base[C, R]) coerce(cfg any) (C, error) {
	var zero C
	switch v := cfg.(type) {
	case nil:
		return b.defaults(), nil
	case C:
		return v, nil
	case *C:
		if v == nil {
			return zero, fmt.Errorf("%w: nil %T", ErrConfiguration, cfg)
		}
		return *v, nil
	default:
		return zero, fmt.Errorf("%w: got %T, want %T", ErrConfiguration, cfg, zero)
	}
}

// Init acquires the resource through the Acquire hook.
func (b *Base[C, R]) Init(ctx context.Context) error {
	b.mu.RLock()
	state := b.state
	cfg := b.config
	hasConfig := b.hasConfig
	b.mu.RUnlock()

	if state == StateRunning {
		return newError(b.name, "init", ErrAlreadyInitialized)
	}
	if !hasConfig {
		cfg = b.defaults()
	}

	var res R
	if b.hooks.Acquire != nil {
		var err error
		res, err = b.hooks.Acquire(ctx, cfg)
		if err != nil {
			return newError(b.name, "init", err)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.config = cfg
	b.hasConfig = true
	b.resource = res
	b.state = StateRunning
	return nil
}

// Resource is the capability accessor. It returns the live resource while the
// plugin is running and ErrNotInitialized otherwise.
func (b *Base[C, R]) Resource() (R, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.state != StateRunning {
		var zero R
		return zero, newError(b.name, "call", ErrNotInitialized)
	}
	return b.resource, nil
}

// Config returns the bound configuration and whether one is bound.
func (b *Base[C, R]) Config() (C, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.config, b.hasConfig
}

// Terminate releases the resource if one is held, clears the configuration
// and moves to StateTerminated. The state changes even when Release fails.
func (b *Base[C, R]) Terminate(ctx context.Context) error {
	b.mu.Lock()
	running := b.state == StateRunning
	res := b.resource
	var zeroR R
	var zeroC C
	b.resource = zeroR
	b.config = zeroC
	b.hasConfig = false
	b.state = StateTerminated
	b.mu.Unlock()

	if running && b.hooks.Release != nil {
		if err := b.hooks.Release(ctx, res); err != nil {
			return newError(b.name, "terminate", err)
		}
	}
	return nil
}

var _ Plugin = (*Base[struct{}, struct{}])(nil)
