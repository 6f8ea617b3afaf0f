package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/plugkit/observe"
	"github.com/jonwraymond/plugkit/plugin"
	"github.com/jonwraymond/plugkit/resilience"
)

// Source supplies the plugins to probe. *plugin.Registry implements it.
type Source interface {
	Plugins() []plugin.Plugin
}

// ControllerConfig configures the health controller.
type ControllerConfig struct {
	// Timeout bounds each individual probe.
	// Default: 10 seconds
	Timeout time.Duration

	// MaxConcurrency caps the number of probes running at once.
	// Default: 0 (one goroutine per probe)
	MaxConcurrency int

	// Middleware instruments each probe as a "health" operation.
	// Default: observe.NopMiddleware()
	Middleware *observe.Middleware
}

// Controller produces aggregate health reports for the plugins of a Source.
// It holds no per-run state and is safe for concurrent use.
type Controller struct {
	src    Source
	config ControllerConfig
}

type probe struct {
	name    string
	checker Checker
}

// NewController creates a controller reading plugins from src.
func NewController(src Source, config ...ControllerConfig) *Controller {
	var cfg ControllerConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxConcurrency < 0 {
		cfg.MaxConcurrency = 0
	}
	if cfg.Middleware == nil {
		cfg.Middleware = observe.NopMiddleware()
	}
	return &Controller{src: src, config: cfg}
}

// Checkers returns the names of the plugins the next run would probe, in
// registration order.
func (c *Controller) Checkers() []string {
	probes := c.snapshot()
	names := make([]string, len(probes))
	for i, p := range probes {
		names[i] = p.name
	}
	return names
}

func (c *Controller) snapshot() []probe {
	plugins := c.src.Plugins()
	probes := make([]probe, 0, len(plugins))
	for _, p := range plugins {
		if checker, ok := p.(Checker); ok {
			probes = append(probes, probe{name: p.Name(), checker: checker})
		}
	}
	return probes
}

// Health probes every checker and aggregates the results. Report.Status is
// the logical AND of all check statuses and is true when nothing was probed.
//
// Probe failures never surface as an error. The error is non-nil only when
// ctx ended before the run completed; the returned report then marks the
// abandoned probes as failed.
func (c *Controller) Health(ctx context.Context) (Report, error) {
	probes := c.snapshot()
	checks := make([]Check, len(probes))

	var g errgroup.Group
	if c.config.MaxConcurrency > 0 {
		g.SetLimit(c.config.MaxConcurrency)
	}
	for i, p := range probes {
		g.Go(func() error {
			checks[i] = c.run(ctx, p)
			return nil
		})
	}
	_ = g.Wait()

	return newReport(checks), ctx.Err()
}

func (c *Controller) run(ctx context.Context, p probe) Check {
	if err := ctx.Err(); err != nil {
		return failed(p.name, err)
	}

	var details map[string]any
	op := c.config.Middleware.Wrap(observe.PluginMeta{Name: p.name}, "health", func(ctx context.Context) error {
		var err error
		details, err = resilience.Call(ctx, c.config.Timeout, func(ctx context.Context) (map[string]any, error) {
			return safeHealth(ctx, p.checker)
		})
		if errors.Is(err, resilience.ErrTimeout) {
			err = fmt.Errorf("%w after %v", ErrCheckTimeout, c.config.Timeout)
		}
		return err
	})

	if err := op(ctx); err != nil {
		return failed(p.name, err)
	}
	return passed(p.name, details)
}

func safeHealth(ctx context.Context, checker Checker) (details map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			details = nil
			err = fmt.Errorf("%w: %v", ErrCheckPanic, r)
		}
	}()
	return checker.Health(ctx)
}
