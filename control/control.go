package control

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jonwraymond/plugkit/auth"
	"github.com/jonwraymond/plugkit/health"
	"github.com/jonwraymond/plugkit/observe"
	"github.com/jonwraymond/plugkit/plugin"
)

// Kind is the telemetry kind reported by the plugin.
const Kind = "control"

// Options are the construction-time inputs of the control plugin.
type Options struct {
	// Version is served by /version. Default: DefaultVersion
	Version string

	// Environ is served by /environ. Default: empty
	Environ map[string]any

	// Logger reports startup failures. Default: no-op
	Logger observe.Logger

	// Middleware instruments health probes. Default: observe.NopMiddleware()
	Middleware *observe.Middleware

	// Gatherer backs /metrics. Default: prometheus.DefaultGatherer
	Gatherer prometheus.Gatherer
}

// Plugin is the control plugin.
type Plugin struct {
	*plugin.Base[Config, *Controller]

	opts   Options
	logger observe.Logger

	mu  sync.Mutex
	reg *plugin.Registry
}

// New creates a control plugin registered under name.
func New(name string, opts Options) *Plugin {
	if opts.Version == "" {
		opts.Version = DefaultVersion
	}
	if opts.Logger == nil {
		opts.Logger = observe.NopLogger()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	opts.Environ = maps.Clone(opts.Environ)
	if opts.Environ == nil {
		opts.Environ = map[string]any{}
	}

	p := &Plugin{
		opts:   opts,
		logger: opts.Logger.WithPlugin(observe.PluginMeta{Name: name, Kind: Kind}),
	}
	p.Base = plugin.NewBase(name, DefaultConfig, plugin.Hooks[Config, *Controller]{
		Acquire: p.acquire,
	})
	return p
}

// InitApp binds cfg and remembers reg as the set of plugins to probe.
func (p *Plugin) InitApp(reg *plugin.Registry, cfg any) error {
	if err := p.Bind(reg, p, cfg); err != nil {
		return err
	}
	p.mu.Lock()
	p.reg = reg
	p.mu.Unlock()
	return nil
}

// Kind reports "control".
func (p *Plugin) Kind() string {
	return Kind
}

// Controller returns the live controller.
func (p *Plugin) Controller() (*Controller, error) {
	return p.Resource()
}

// Handler returns the control routes of the live controller.
func (p *Plugin) Handler() (http.Handler, error) {
	c, err := p.Resource()
	if err != nil {
		return nil, err
	}
	return c.Handler(), nil
}

func (p *Plugin) acquire(ctx context.Context, cfg Config) (*Controller, error) {
	p.mu.Lock()
	reg := p.reg
	p.mu.Unlock()
	if reg == nil {
		return nil, ErrUnbound
	}

	c := &Controller{
		health: health.NewController(reg, health.ControllerConfig{
			Timeout:        cfg.HealthTimeout,
			MaxConcurrency: cfg.HealthConcurrency,
			Middleware:     p.opts.Middleware,
		}),
		version: p.opts.Version,
		environ: p.opts.Environ,
		prefix:  cfg.RouterPrefix,
	}

	ro := routeOptions{cfg: cfg, gatherer: p.opts.Gatherer}
	if cfg.Auth.Secret != "" {
		v, err := auth.NewJWTVerifier(auth.JWTConfig{
			Secret:   []byte(cfg.Auth.Secret),
			Issuer:   cfg.Auth.Issuer,
			Audience: cfg.Auth.Audience,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", plugin.ErrConfiguration, err)
		}
		ro.verifier = v
	}
	c.routes(ro)

	if cfg.EnableHealth {
		report, err := c.Health(ctx)
		if err != nil {
			return nil, err
		}
		if !report.Status {
			for _, check := range report.Failed() {
				p.logger.Error(ctx, "startup health check failed",
					observe.F("check", check.Name),
					observe.F("details", check.Details),
				)
			}
			return nil, &UnhealthyError{Report: report}
		}
	}

	p.logger.Info(ctx, "control routes ready",
		observe.F("prefix", "/"+cfg.RouterPrefix),
		observe.F("tag", cfg.RouterTag),
		observe.F("checkers", c.Checkers()),
	)
	return c, nil
}
