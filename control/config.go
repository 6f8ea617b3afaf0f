package control

import "time"

// DefaultPrefix is the default router prefix and tag.
const DefaultPrefix = "control"

// DefaultVersion is reported by /version when no version is given.
const DefaultVersion = "0.0.1"

// Config configures the control plugin.
type Config struct {
	// RouterPrefix is the path segment the routes are mounted under. Empty
	// mounts them at the root.
	RouterPrefix string `yaml:"router_prefix" env:"ROUTER_PREFIX"`

	// RouterTag labels the routes in logs.
	RouterTag string `yaml:"router_tag" env:"ROUTER_TAG"`

	EnableEnviron   bool `yaml:"enable_environ" env:"ENABLE_ENVIRON"`
	EnableHealth    bool `yaml:"enable_health" env:"ENABLE_HEALTH"`
	EnableHeartbeat bool `yaml:"enable_heartbeat" env:"ENABLE_HEARTBEAT"`
	EnableVersion   bool `yaml:"enable_version" env:"ENABLE_VERSION"`
	EnableMetrics   bool `yaml:"enable_metrics" env:"ENABLE_METRICS"`

	// HealthTimeout bounds each probe.
	HealthTimeout time.Duration `yaml:"health_timeout" env:"HEALTH_TIMEOUT"`

	// HealthConcurrency caps concurrent probes. Zero means unbounded.
	HealthConcurrency int `yaml:"health_concurrency" env:"HEALTH_CONCURRENCY"`

	// HealthRate limits /health requests per second. Zero disables limiting.
	HealthRate  float64 `yaml:"health_rate" env:"HEALTH_RATE"`
	HealthBurst int     `yaml:"health_burst" env:"HEALTH_BURST"`

	// Auth protects every route but /heartbeat when Secret is set.
	Auth AuthConfig `yaml:"auth" envPrefix:"AUTH_"`
}

// AuthConfig configures bearer token authentication.
type AuthConfig struct {
	Secret   string `yaml:"secret" env:"SECRET"`
	Issuer   string `yaml:"issuer" env:"ISSUER"`
	Audience string `yaml:"audience" env:"AUDIENCE"`
}

// DefaultConfig returns the configuration used when none is bound.
func DefaultConfig() Config {
	return Config{
		RouterPrefix:    DefaultPrefix,
		RouterTag:       DefaultPrefix,
		EnableEnviron:   true,
		EnableHealth:    true,
		EnableHeartbeat: true,
		EnableVersion:   true,
		HealthTimeout:   10 * time.Second,
	}
}
