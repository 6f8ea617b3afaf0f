package main

import (
	"time"

	"github.com/jonwraymond/plugkit/cache"
	"github.com/jonwraymond/plugkit/config"
	"github.com/jonwraymond/plugkit/control"
	"github.com/jonwraymond/plugkit/observe"
	"github.com/jonwraymond/plugkit/plugins/localcache"
	"github.com/jonwraymond/plugkit/plugins/logging"
	"github.com/jonwraymond/plugkit/plugins/memcached"
	"github.com/jonwraymond/plugkit/plugins/redis"
	"github.com/jonwraymond/plugkit/plugins/scheduler"
)

// Settings is the complete plugind configuration.
type Settings struct {
	// Addr is the control HTTP listen address.
	Addr string `yaml:"addr" env:"ADDR"`

	StopTimeout time.Duration `yaml:"stop_timeout" env:"STOP_TIMEOUT"`

	Observe observe.Config `yaml:"observe" envPrefix:"OBSERVE_"`
	Enable  Enabled        `yaml:"enable" envPrefix:"ENABLE_"`

	Logging    logging.Config    `yaml:"logging" envPrefix:"LOGGING_"`
	Redis      redis.Config      `yaml:"redis" envPrefix:"REDIS_"`
	Memcached  memcached.Config  `yaml:"memcached" envPrefix:"MEMCACHED_"`
	Scheduler  scheduler.Config  `yaml:"scheduler" envPrefix:"SCHEDULER_"`
	LocalCache localcache.Config `yaml:"local_cache" envPrefix:"LOCAL_CACHE_"`
	Control    control.Config    `yaml:"control" envPrefix:"CONTROL_"`
}

// Enabled selects the optional plugins. Control is always on.
type Enabled struct {
	Logging    bool `yaml:"logging" env:"LOGGING"`
	Redis      bool `yaml:"redis" env:"REDIS"`
	Memcached  bool `yaml:"memcached" env:"MEMCACHED"`
	Scheduler  bool `yaml:"scheduler" env:"SCHEDULER"`
	LocalCache bool `yaml:"local_cache" env:"LOCAL_CACHE"`
}

func baseSettings() Settings {
	return Settings{
		Addr:        ":8080",
		StopTimeout: 30 * time.Second,
		Observe: observe.Config{
			ServiceName: "plugind",
			Version:     version,
			Metrics:     observe.MetricsConfig{Enabled: true, Exporter: "prometheus"},
			Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
		},
		Enable:     Enabled{Logging: true, Redis: true, Scheduler: true, LocalCache: true},
		Logging:    logging.DefaultConfig(),
		Redis:      redis.DefaultConfig(),
		Memcached:  memcached.DefaultConfig(),
		Scheduler:  scheduler.DefaultConfig(),
		LocalCache: localcache.DefaultConfig(),
		Control:    control.DefaultConfig(),
	}
}

// newSettingsManager registers the docker, local and test configurations.
func newSettingsManager(opts ...config.ManagerOption) *config.Manager[Settings] {
	m := config.NewManager[Settings](opts...)

	m.Register(config.NameDocker, func() (Settings, error) {
		s := baseSettings()
		s.Redis.Host = "redis"
		s.Memcached.Host = "memcached"
		s.Control.EnableMetrics = true
		return s, nil
	})

	m.Register(config.NameLocal, func() (Settings, error) {
		s := baseSettings()
		s.Addr = "127.0.0.1:8080"
		s.Redis.PrestartTries = 5
		s.Memcached.PrestartTries = 5
		s.Observe.Logging.Level = "debug"
		s.Logging.Level = "debug"
		s.Logging.Style = logging.StyleText
		s.Control.EnableMetrics = true
		return s, nil
	})

	m.Register(config.NameTest, func() (Settings, error) {
		s := baseSettings()
		s.Addr = "127.0.0.1:0"
		s.Redis.Type = redis.TypeFake
		s.Observe.Metrics.Enabled = false
		s.Observe.Logging.Enabled = false
		s.Logging.Handler = logging.HandlerList
		s.LocalCache.Backend = localcache.BackendMemory
		s.LocalCache.Policy = cache.Policy{DefaultTTL: time.Minute}
		return s, nil
	})

	return m
}
