// Command plugind hosts the bundled plugins behind the control routes.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/plugkit/config"
	"github.com/jonwraymond/plugkit/control"
	"github.com/jonwraymond/plugkit/host"
	"github.com/jonwraymond/plugkit/observe"
	"github.com/jonwraymond/plugkit/plugins/localcache"
	"github.com/jonwraymond/plugkit/plugins/logging"
	"github.com/jonwraymond/plugkit/plugins/memcached"
	"github.com/jonwraymond/plugkit/plugins/redis"
	"github.com/jonwraymond/plugkit/plugins/scheduler"
	"github.com/jonwraymond/plugkit/resilience"
	"github.com/jonwraymond/plugkit/secret"
)

var version = "0.0.1"

type runOptions struct {
	configPath string
	configName string
	envFiles   []string
	envPrefix  string
	secretsDir string
	secrets    map[string]string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:          "plugind",
		Short:        "Run the plugin host with its control routes",
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "plugind.yaml", "YAML settings file; missing files are skipped")
	f.StringVar(&opts.configName, "config-name", "", "named settings (docker|local|test); "+config.DefaultEnvVar+" overrides it")
	f.StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, ".env files loaded before settings")
	f.StringVar(&opts.envPrefix, "env-prefix", "PLUGIND_", "prefix of environment overrides")
	f.StringVar(&opts.secretsDir, "secrets-dir", secret.DefaultSecretsDir, "directory for secretref:file: references")
	f.StringToStringVar(&opts.secrets, "secret", nil, "name=value pairs served as secretref:flag:<name>")
	return cmd
}

func loadSettings(ctx context.Context, opts runOptions) (Settings, error) {
	if err := config.LoadDotenv(opts.envFiles...); err != nil {
		return Settings{}, err
	}
	s, err := newSettingsManager().Get(opts.configName)
	if err != nil {
		return Settings{}, err
	}

	resolver, err := newResolver(opts)
	if err != nil {
		return Settings{}, err
	}
	defer resolver.Close()

	err = config.Load(ctx, opts.configPath, &s,
		config.WithResolver(resolver),
		config.WithEnvPrefix(opts.envPrefix),
	)
	return s, err
}

// newResolver builds the secret providers from the built-in registry. A
// missing secrets directory only disables secretref:file.
func newResolver(opts runOptions) (*secret.Resolver, error) {
	reg := secret.NewDefaultRegistry()
	env, err := reg.Create("env", nil)
	if err != nil {
		return nil, err
	}
	resolver := secret.NewResolver(true, env, secret.NewStaticProvider("flag", opts.secrets))
	if fp, err := reg.Create("file", map[string]any{"dir": opts.secretsDir}); err == nil {
		resolver.Register(fp)
	}
	return resolver, nil
}

func run(ctx context.Context, opts runOptions) error {
	s, err := loadSettings(ctx, opts)
	if err != nil {
		return err
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	s.Observe.Registerer = promReg

	obs, err := observe.NewObserver(ctx, s.Observe)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = obs.Shutdown(shutdownCtx)
	}()
	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return err
	}
	logger := obs.Logger()

	a, err := newApp(s, obs, mw, promReg, newSettingsManager().Resolve(opts.configName))
	if err != nil {
		return err
	}
	h, ctl, plugins := a.host, a.control, a.plugins

	if err := h.Start(ctx); err != nil {
		return fmt.Errorf("plugind: start: %w", err)
	}
	logger.Info(ctx, "plugins started", observe.F("plugins", h.Registry().Names()))

	handler, err := ctl.Handler()
	if err != nil {
		return errors.Join(err, h.Stop(context.WithoutCancel(ctx)))
	}
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	if err := plugins.startHeartbeat(ctx); err != nil {
		logger.Warn(ctx, "heartbeat job not started", observe.F("error", err))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info(gctx, "control server listening", observe.F("addr", s.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.StopTimeout)
		defer cancel()
		return errors.Join(srv.Shutdown(stopCtx), h.Stop(stopCtx))
	})
	return g.Wait()
}

type app struct {
	host    *host.Host
	control *control.Plugin
	plugins *pluginSet
}

// newApp registers the enabled plugins and, last, the control plugin so its
// startup health check sees every other plugin running.
func newApp(s Settings, obs observe.Observer, mw *observe.Middleware, gatherer prometheus.Gatherer, configName string) (*app, error) {
	logger := obs.Logger()
	h := host.New(host.Config{Middleware: mw, StopTimeout: s.StopTimeout})
	plugins := newPlugins(s, logger, obs)
	if err := plugins.use(h, s); err != nil {
		return nil, err
	}
	ctl := control.New("control", control.Options{
		Version:    version,
		Environ:    map[string]any{"config_name": configName},
		Logger:     logger,
		Middleware: mw,
		Gatherer:   gatherer,
	})
	if err := h.Use(ctl, s.Control); err != nil {
		return nil, err
	}
	return &app{host: h, control: ctl, plugins: plugins}, nil
}

type pluginSet struct {
	logging    *logging.Plugin
	redis      *redis.Plugin
	memcached  *memcached.Plugin
	scheduler  *scheduler.Plugin
	localCache *localcache.Plugin
	logger     observe.Logger
	retry      *resilience.Retry
	timeout    *resilience.Timeout
}

func newPlugins(s Settings, logger observe.Logger, obs observe.Observer) *pluginSet {
	ps := &pluginSet{
		logger: logger,
		retry: resilience.NewRetry(resilience.RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 100 * time.Millisecond,
			Jitter:       true,
			RetryIf: func(err error) bool {
				return !errors.Is(err, context.Canceled) && !errors.Is(err, resilience.ErrTimeout)
			},
		}),
		timeout: resilience.NewTimeout(2 * time.Second),
	}
	if s.Enable.Logging {
		ps.logging = logging.New("logging")
	}
	if s.Enable.Redis {
		ps.redis = redis.New("redis", redis.WithLogger(logger), redis.WithMeter(obs.Meter()))
	}
	if s.Enable.Memcached {
		ps.memcached = memcached.New("memcached", logger)
	}
	if s.Enable.Scheduler {
		ps.scheduler = scheduler.New("scheduler", logger)
	}
	if s.Enable.LocalCache {
		ps.localCache = localcache.New("local_cache")
	}
	return ps
}

func (ps *pluginSet) use(h *host.Host, s Settings) error {
	var errs []error
	if ps.logging != nil {
		errs = append(errs, h.Use(ps.logging, s.Logging))
	}
	if ps.redis != nil {
		errs = append(errs, h.Use(ps.redis, s.Redis))
	}
	if ps.memcached != nil {
		errs = append(errs, h.Use(ps.memcached, s.Memcached))
	}
	if ps.scheduler != nil {
		errs = append(errs, h.Use(ps.scheduler, s.Scheduler))
	}
	if ps.localCache != nil {
		errs = append(errs, h.Use(ps.localCache, s.LocalCache))
	}
	return errors.Join(errs...)
}

// startHeartbeat schedules a job that stamps the start time into redis and
// the local cache every few seconds until shutdown.
func (ps *pluginSet) startHeartbeat(ctx context.Context) error {
	if ps.scheduler == nil {
		return nil
	}
	sched, err := ps.scheduler.Scheduler()
	if err != nil {
		return err
	}
	return sched.Spawn(func(jobCtx context.Context) {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			ps.beat(jobCtx)
			select {
			case <-jobCtx.Done():
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	})
}

// log returns the logging plugin's logger while it runs and the ambient
// logger otherwise.
func (ps *pluginSet) log() observe.Logger {
	if ps.logging != nil {
		if l, err := ps.logging.Logger(); err == nil {
			return l
		}
	}
	return ps.logger
}

func (ps *pluginSet) beat(ctx context.Context) {
	now := time.Now().UTC().Format(time.RFC3339)
	if ps.redis != nil {
		if client, err := ps.redis.Client(); err == nil {
			err := ps.retry.Execute(ctx, func(ctx context.Context) error {
				return ps.timeout.Execute(ctx, func(ctx context.Context) error {
					return client.Set(ctx, "plugind:heartbeat", now, ps.redis.TTL()).Err()
				})
			})
			if err != nil {
				ps.log().Warn(ctx, "heartbeat write failed", observe.F("plugin", "redis"), observe.F("error", err))
			}
		}
	}
	if ps.localCache != nil {
		if c, err := ps.localCache.Cache(); err == nil {
			_ = c.Set(ctx, "heartbeat", []byte(now), 0)
		}
	}
}
