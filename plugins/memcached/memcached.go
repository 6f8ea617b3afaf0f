package memcached

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/jonwraymond/plugkit/observe"
	"github.com/jonwraymond/plugkit/plugin"
	"github.com/jonwraymond/plugkit/resilience"
)

// Kind is the telemetry kind reported by the plugin.
const Kind = "memcached"

// ErrPing is returned by Health when the server does not answer.
var ErrPing = errors.New("memcached: ping failed")

// Config configures the memcached plugin.
type Config struct {
	Host string `yaml:"host" env:"HOST"`
	Port int    `yaml:"port" env:"PORT"`

	// PoolSize is the number of idle connections kept per server.
	PoolSize int `yaml:"pool_size" env:"POOL_SIZE"`

	// Timeout bounds each socket read or write and each ping.
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`

	FlushOnTerminate bool `yaml:"flush_on_terminate" env:"FLUSH_ON_TERMINATE"`

	PrestartTries int           `yaml:"prestart_tries" env:"PRESTART_TRIES"`
	PrestartWait  time.Duration `yaml:"prestart_wait" env:"PRESTART_WAIT"`
}

// DefaultConfig returns the configuration used when none is bound.
func DefaultConfig() Config {
	return Config{
		Host:             "localhost",
		Port:             11211,
		PoolSize:         10,
		Timeout:          memcache.DefaultTimeout,
		FlushOnTerminate: true,
		PrestartTries:    300,
		PrestartWait:     time.Second,
	}
}

// Addr returns host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

type conn struct {
	client  *memcache.Client
	host    string
	port    int
	flush   bool
	timeout time.Duration
}

// ping runs client.Ping bounded by d and by ctx. The gomemcache client has
// no context support, so an abandoned ping finishes on its own socket
// deadline.
func ping(ctx context.Context, client *memcache.Client, d time.Duration) error {
	_, err := resilience.Call(ctx, d, func(context.Context) (struct{}, error) {
		return struct{}{}, client.Ping()
	})
	return err
}

// Plugin owns one memcached client.
type Plugin struct {
	*plugin.Base[Config, *conn]

	logger observe.Logger
}

// New creates a memcached plugin registered under name. A nil logger
// disables logging.
func New(name string, logger observe.Logger) *Plugin {
	if logger == nil {
		logger = observe.NopLogger()
	}
	p := &Plugin{logger: logger.WithPlugin(observe.PluginMeta{Name: name, Kind: Kind})}
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

// Kind reports "memcached".
func (p *Plugin) Kind() string {
	return Kind
}

// Client returns the live client.
func (p *Plugin) Client() (*memcache.Client, error) {
	c, err := p.Resource()
	if err != nil {
		return nil, err
	}
	return c.client, nil
}

// Health pings the server.
func (p *Plugin) Health(ctx context.Context) (map[string]any, error) {
	c, err := p.Resource()
	if err != nil {
		return nil, err
	}
	if err := ping(ctx, c.client, c.timeout); err != nil {
		return nil, errors.Join(ErrPing, err)
	}
	return map[string]any{
		"host": c.host,
		"port": c.port,
		"ping": true,
	}, nil
}

func (p *Plugin) acquire(ctx context.Context, cfg Config) (*conn, error) {
	policy := resilience.RetryPolicy{MaxAttempts: max(cfg.PrestartTries, 1), Wait: cfg.PrestartWait}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = memcache.DefaultTimeout
	}
	return resilience.Bootstrap(ctx, policy, func(ctx context.Context) (*conn, error) {
		client := memcache.New(cfg.Addr())
		client.MaxIdleConns = cfg.PoolSize
		client.Timeout = timeout
		if err := ping(ctx, client, timeout); err != nil {
			return nil, err
		}
		return &conn{
			client:  client,
			host:    cfg.Host,
			port:    cfg.Port,
			flush:   cfg.FlushOnTerminate,
			timeout: timeout,
		}, nil
	}, resilience.OnRetry(func(attempt int, err error, wait time.Duration) {
		p.logger.Warn(ctx, "memcached not reachable, retrying",
			observe.F("attempt", attempt),
			observe.F("error", err),
			observe.F("wait", wait.String()),
		)
	}))
}

func (p *Plugin) release(ctx context.Context, c *conn) error {
	if !c.flush {
		return nil
	}
	if err := c.client.FlushAll(); err != nil {
		p.logger.Warn(ctx, "memcached flush failed", observe.F("error", err))
		return err
	}
	return nil
}
