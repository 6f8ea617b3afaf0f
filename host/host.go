package host

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonwraymond/plugkit/observe"
	"github.com/jonwraymond/plugkit/plugin"
)

var (
	// ErrAlreadyStarted is returned by Start and Use after a successful Start.
	ErrAlreadyStarted = errors.New("host: already started")

	// ErrNilPlugin is returned by Start when Use was given a nil plugin.
	ErrNilPlugin = errors.New("host: nil plugin")
)

// Config configures a Host.
type Config struct {
	// Middleware instruments every lifecycle operation.
	// Default: observe.NopMiddleware()
	Middleware *observe.Middleware

	// StopTimeout bounds Stop when Run shuts down.
	// Default: 30 seconds
	StopTimeout time.Duration
}

type entry struct {
	plugin plugin.Plugin
	cfg    any
}

// Host starts and stops plugins in a fixed order.
type Host struct {
	config Config
	reg    *plugin.Registry

	mu      sync.Mutex
	entries []entry
	started bool
}

// New creates a Host with a fresh registry.
func New(config ...Config) *Host {
	var cfg Config
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Middleware == nil {
		cfg.Middleware = observe.NopMiddleware()
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = 30 * time.Second
	}
	return &Host{config: cfg, reg: plugin.NewRegistry()}
}

// Registry returns the host's plugin registry.
func (h *Host) Registry() *plugin.Registry {
	return h.reg
}

// Use appends p with its configuration. cfg may be nil for the plugin's
// defaults.
func (h *Host) Use(p plugin.Plugin, cfg any) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.started {
		return ErrAlreadyStarted
	}
	h.entries = append(h.entries, entry{plugin: p, cfg: cfg})
	return nil
}

// Start binds every plugin, then initializes them in order.
func (h *Host) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.started {
		return ErrAlreadyStarted
	}

	for i, e := range h.entries {
		if e.plugin == nil {
			return fmt.Errorf("%w at position %d", ErrNilPlugin, i)
		}
	}

	for _, e := range h.entries {
		err := h.wrap(e.plugin, "init_app", func(ctx context.Context) error {
			return e.plugin.InitApp(h.reg, e.cfg)
		})(ctx)
		if err != nil {
			return err
		}
	}

	for i, e := range h.entries {
		if err := h.wrap(e.plugin, "init", e.plugin.Init)(ctx); err != nil {
			return errors.Join(err, h.terminate(context.WithoutCancel(ctx), h.entries[:i]))
		}
	}

	h.started = true
	return nil
}

// Stop terminates every plugin in reverse order. All plugins are
// terminated even when some fail; the failures are joined.
func (h *Host) Stop(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.started = false
	return h.terminate(ctx, h.entries)
}

// Run starts the host, blocks until ctx is done and then stops it within
// Config.StopTimeout.
func (h *Host) Run(ctx context.Context) error {
	if err := h.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.config.StopTimeout)
	defer cancel()
	return h.Stop(stopCtx)
}

func (h *Host) terminate(ctx context.Context, entries []entry) error {
	var errs []error
	for i := len(entries) - 1; i >= 0; i-- {
		p := entries[i].plugin
		if err := h.wrap(p, "terminate", p.Terminate)(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *Host) wrap(p plugin.Plugin, op string, fn observe.OpFunc) observe.OpFunc {
	return h.config.Middleware.Wrap(observe.PluginMeta{Name: p.Name(), Kind: kindOf(p)}, op, fn)
}

// Kinded is implemented by plugins that report an implementation kind for
// telemetry, such as "redis".
type Kinded interface {
	Kind() string
}

func kindOf(p plugin.Plugin) string {
	if k, ok := p.(Kinded); ok {
		return k.Kind()
	}
	return ""
}
