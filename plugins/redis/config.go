package redis

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jonwraymond/plugkit/resilience"
)

// Type selects how the plugin connects.
type Type string

const (
	TypeRedis    Type = "redis"
	TypeSentinel Type = "sentinel"
	TypeFake     Type = "fakeredis"
)

// Config configures the redis plugin.
type Config struct {
	Type Type `yaml:"type" env:"TYPE"`

	// URL overrides Host, Port and DB when set.
	URL      string `yaml:"url" env:"URL"`
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	User     string `yaml:"user" env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`

	// MaxConnections caps the client pool. Zero keeps the go-redis default.
	MaxConnections int `yaml:"max_connections" env:"MAX_CONNECTIONS"`

	// TTL is the default expiry callers should apply to keys.
	TTL time.Duration `yaml:"ttl" env:"TTL"`

	// Sentinels is a comma separated host:port list.
	Sentinels      string `yaml:"sentinels" env:"SENTINELS"`
	SentinelMaster string `yaml:"sentinel_master" env:"SENTINEL_MASTER"`

	PrestartTries int           `yaml:"prestart_tries" env:"PRESTART_TRIES"`
	PrestartWait  time.Duration `yaml:"prestart_wait" env:"PRESTART_WAIT"`
}

// DefaultConfig returns the configuration used when none is bound.
func DefaultConfig() Config {
	return Config{
		Type:           TypeRedis,
		Host:           "localhost",
		Port:           6379,
		TTL:            time.Hour,
		SentinelMaster: "mymaster",
		PrestartTries:  300,
		PrestartWait:   time.Second,
	}
}

// Validate checks the type and, for sentinel, the sentinel list.
func (c Config) Validate() error {
	switch c.Type {
	case TypeFake:
	case TypeRedis:
		if _, err := goredis.ParseURL(c.Address()); err != nil {
			return err
		}
	case TypeSentinel:
		if _, err := c.SentinelAddrs(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, c.Type)
	}
	return c.Retry().Validate()
}

// Address returns the redis URL the client connects to.
func (c Config) Address() string {
	if c.URL != "" {
		return c.URL
	}
	hostport := net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	if c.DB != 0 {
		return fmt.Sprintf("redis://%s/%d", hostport, c.DB)
	}
	return "redis://" + hostport
}

// RedactedAddress is Address with any URL password masked.
func (c Config) RedactedAddress() string {
	u, err := url.Parse(c.Address())
	if err != nil {
		return ""
	}
	return u.Redacted()
}

// SentinelAddrs parses Sentinels into host:port addresses.
func (c Config) SentinelAddrs() ([]string, error) {
	if strings.TrimSpace(c.Sentinels) == "" {
		return nil, fmt.Errorf("%w: empty list", ErrInvalidSentinels)
	}
	var addrs []string
	for _, s := range strings.Split(c.Sentinels, ",") {
		s = strings.TrimSpace(s)
		host, port, err := net.SplitHostPort(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSentinels, s, err)
		}
		if host == "" {
			return nil, fmt.Errorf("%w: %q: missing host", ErrInvalidSentinels, s)
		}
		if _, err := strconv.ParseUint(port, 10, 16); err != nil {
			return nil, fmt.Errorf("%w: %q: bad port", ErrInvalidSentinels, s)
		}
		addrs = append(addrs, net.JoinHostPort(host, port))
	}
	return addrs, nil
}

// Retry returns the prestart retry policy. Fewer than one try means a
// single attempt.
func (c Config) Retry() resilience.RetryPolicy {
	return resilience.RetryPolicy{MaxAttempts: max(c.PrestartTries, 1), Wait: c.PrestartWait}
}
