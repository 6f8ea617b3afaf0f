package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/metric"

	"github.com/jonwraymond/plugkit/observe"
	"github.com/jonwraymond/plugkit/plugin"
	"github.com/jonwraymond/plugkit/resilience"
)

// Kind is the telemetry kind reported by the plugin.
const Kind = "redis"

type conn struct {
	typ     Type
	client  goredis.UniversalClient
	fake    *miniredis.Miniredis
	address any
}

// Plugin owns one redis client.
type Plugin struct {
	*plugin.Base[Config, *conn]

	logger observe.Logger
	meter  metric.Meter
	dialer *net.Dialer
}

// Option configures a Plugin.
type Option func(*Plugin)

// WithLogger logs prestart retries and connection events.
func WithLogger(l observe.Logger) Option {
	return func(p *Plugin) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMeter records per-command metrics on the client.
func WithMeter(m metric.Meter) Option {
	return func(p *Plugin) {
		p.meter = m
	}
}

// New creates a redis plugin registered under name.
func New(name string, opts ...Option) *Plugin {
	p := &Plugin{
		logger: observe.NopLogger(),
		dialer: &net.Dialer{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.WithPlugin(observe.PluginMeta{Name: name, Kind: Kind})
	p.Base = plugin.NewBase(name, DefaultConfig, plugin.Hooks[Config, *conn]{
		Acquire: p.acquire,
		Release: p.release,
	})
	return p
}

// InitApp validates and binds cfg, registering p itself.
func (p *Plugin) InitApp(reg *plugin.Registry, cfg any) error {
	return p.Bind(reg, p, cfg)
}

// Kind reports "redis".
func (p *Plugin) Kind() string {
	return Kind
}

// Client returns the live client. For sentinel it routes to the current master.
func (p *Plugin) Client() (goredis.UniversalClient, error) {
	c, err := p.Resource()
	if err != nil {
		return nil, err
	}
	return c.client, nil
}

// TTL returns the configured default key expiry.
func (p *Plugin) TTL() time.Duration {
	cfg, _ := p.Config()
	return cfg.TTL
}

// Health pings the server.
func (p *Plugin) Health(ctx context.Context) (map[string]any, error) {
	c, err := p.Resource()
	if err != nil {
		return nil, err
	}
	pong, err := c.client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPing, err)
	}
	return map[string]any{
		"redis_type":    string(c.typ),
		"redis_address": c.address,
		"redis_pong":    pong == "PONG",
	}, nil
}

func (p *Plugin) acquire(ctx context.Context, cfg Config) (*conn, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", plugin.ErrConfiguration, err)
	}

	c, err := resilience.Bootstrap(ctx, cfg.Retry(), func(ctx context.Context) (*conn, error) {
		return p.connect(ctx, cfg)
	}, resilience.OnRetry(func(attempt int, err error, wait time.Duration) {
		p.logger.Warn(ctx, "redis not reachable, retrying",
			observe.F("attempt", attempt),
			observe.F("error", err),
			observe.F("wait", wait.String()),
		)
	}))
	if err != nil {
		return nil, err
	}
	c.typ = cfg.Type

	if p.meter != nil {
		h, err := newMetricsHook(p.meter)
		if err != nil {
			_ = p.release(ctx, c)
			return nil, err
		}
		c.client.AddHook(h)
	}

	if err := c.client.Ping(ctx).Err(); err != nil {
		_ = p.release(ctx, c)
		return nil, fmt.Errorf("%w: %v", ErrPing, err)
	}
	p.logger.Info(ctx, "redis client ready", observe.F("type", string(cfg.Type)))
	return c, nil
}

// connect dials the server once to prove it is reachable, then builds the
// client. go-redis clients connect lazily.
func (p *Plugin) connect(ctx context.Context, cfg Config) (*conn, error) {
	switch cfg.Type {
	case TypeFake:
		m, err := miniredis.Run()
		if err != nil {
			return nil, err
		}
		client := goredis.NewClient(&goredis.Options{
			Addr:     m.Addr(),
			PoolSize: cfg.MaxConnections,
		})
		return &conn{client: client, fake: m, address: "redis://" + m.Addr()}, nil

	case TypeSentinel:
		addrs, err := cfg.SentinelAddrs()
		if err != nil {
			return nil, err
		}
		if err := p.dialAny(ctx, "tcp", addrs); err != nil {
			return nil, err
		}
		client := goredis.NewFailoverClient(&goredis.FailoverOptions{
			MasterName:    cfg.SentinelMaster,
			SentinelAddrs: addrs,
			Username:      cfg.User,
			Password:      cfg.Password,
			DB:            cfg.DB,
			PoolSize:      cfg.MaxConnections,
		})
		return &conn{client: client, address: addrs}, nil

	default:
		opts, err := goredis.ParseURL(cfg.Address())
		if err != nil {
			return nil, err
		}
		if opts.Username == "" {
			opts.Username = cfg.User
		}
		if opts.Password == "" {
			opts.Password = cfg.Password
		}
		if cfg.MaxConnections > 0 {
			opts.PoolSize = cfg.MaxConnections
		}
		if err := p.dialAny(ctx, opts.Network, []string{opts.Addr}); err != nil {
			return nil, err
		}
		return &conn{client: goredis.NewClient(opts), address: cfg.RedactedAddress()}, nil
	}
}

func (p *Plugin) dialAny(ctx context.Context, network string, addrs []string) error {
	var errs []error
	for _, addr := range addrs {
		nc, err := p.dialer.DialContext(ctx, network, addr)
		if err == nil {
			return nc.Close()
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (p *Plugin) release(_ context.Context, c *conn) error {
	if c == nil {
		return nil
	}
	err := c.client.Close()
	if c.fake != nil {
		c.fake.Close()
	}
	return err
}
