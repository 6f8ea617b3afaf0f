package logging

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jonwraymond/plugkit/observe"
	"github.com/jonwraymond/plugkit/plugin"
)

// Kind is the telemetry kind reported by the plugin.
const Kind = "logging"

const (
	StyleJSON = "json"
	StyleText = "txt"

	HandlerStdout = "stdout"
	HandlerList   = "list"
)

// ErrNoMemory is returned by Memory when the handler is not "list".
var ErrNoMemory = errors.New("logging: handler keeps no records")

// Config configures the logging plugin.
type Config struct {
	// Level is the minimum level written: debug, info, warn (or warning) or error.
	Level string `yaml:"level" env:"LEVEL"`

	Style   string `yaml:"style" env:"STYLE"`
	Handler string `yaml:"handler" env:"HANDLER"`

	// BufferSize is the write buffer in bytes. Zero writes every entry
	// through.
	BufferSize    int           `yaml:"buffer_size" env:"BUFFER_SIZE"`
	FlushInterval time.Duration `yaml:"flush_interval" env:"FLUSH_INTERVAL"`
	FlushLevel    string        `yaml:"flush_level" env:"FLUSH_LEVEL"`
}

// DefaultConfig returns the configuration used when none is bound.
func DefaultConfig() Config {
	return Config{
		Level:         "warn",
		Style:         StyleJSON,
		Handler:       HandlerStdout,
		FlushInterval: 30 * time.Second,
		FlushLevel:    "error",
	}
}

func parseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return 0, fmt.Errorf("%w: unknown level %q", plugin.ErrConfiguration, s)
	}
}

func newEncoder(style string) (zapcore.Encoder, error) {
	switch style {
	case StyleJSON:
		ec := zap.NewProductionEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewJSONEncoder(ec), nil
	case StyleText:
		ec := zap.NewProductionEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(ec), nil
	default:
		return nil, fmt.Errorf("%w: unknown style %q", plugin.ErrConfiguration, style)
	}
}

// flushCore syncs its writer after every entry at or above level.
type flushCore struct {
	zapcore.Core
	level zapcore.Level
	ws    zapcore.WriteSyncer
}

func (c *flushCore) With(fields []zapcore.Field) zapcore.Core {
	return &flushCore{Core: c.Core.With(fields), level: c.level, ws: c.ws}
}

func (c *flushCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *flushCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	if err := c.Core.Write(ent, fields); err != nil {
		return err
	}
	if ent.Level >= c.level {
		return c.ws.Sync()
	}
	return nil
}

type sink struct {
	zap      *zap.Logger
	logger   observe.Logger
	memory   *Memory
	buffered *zapcore.BufferedWriteSyncer
	level    zapcore.Level
	style    string
	handler  string
}

func newSink(cfg Config) (*sink, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	enc, err := newEncoder(cfg.Style)
	if err != nil {
		return nil, err
	}
	if cfg.BufferSize < 0 {
		return nil, fmt.Errorf("%w: buffer size %d < 0", plugin.ErrConfiguration, cfg.BufferSize)
	}

	s := &sink{level: level, style: cfg.Style, handler: cfg.Handler}
	var ws zapcore.WriteSyncer
	switch cfg.Handler {
	case HandlerStdout:
		ws = zapcore.Lock(os.Stdout)
	case HandlerList:
		s.memory = &Memory{}
		ws = s.memory
	default:
		return nil, fmt.Errorf("%w: unknown handler %q", plugin.ErrConfiguration, cfg.Handler)
	}

	var core zapcore.Core
	if cfg.BufferSize > 0 {
		flushLevel, err := parseLevel(cfg.FlushLevel)
		if err != nil {
			return nil, err
		}
		s.buffered = &zapcore.BufferedWriteSyncer{
			WS:            ws,
			Size:          cfg.BufferSize,
			FlushInterval: cfg.FlushInterval,
		}
		core = &flushCore{
			Core:  zapcore.NewCore(enc, s.buffered, level),
			level: flushLevel,
			ws:    s.buffered,
		}
	} else {
		core = zapcore.NewCore(enc, ws, level)
	}

	s.zap = zap.New(core)
	s.logger = zapLogger{l: s.zap}
	return s, nil
}

func (s *sink) close() error {
	if s.buffered != nil {
		return s.buffered.Stop()
	}
	// Sync on a terminal stdout fails with EINVAL on some platforms.
	_ = s.zap.Sync()
	return nil
}

// Plugin owns one zap logger.
type Plugin struct {
	*plugin.Base[Config, *sink]
}

// New creates a logging plugin registered under name.
func New(name string) *Plugin {
	p := &Plugin{}
	p.Base = plugin.NewBase(name, DefaultConfig, plugin.Hooks[Config, *sink]{
		Acquire: func(ctx context.Context, cfg Config) (*sink, error) {
			s, err := newSink(cfg)
			if err != nil {
				return nil, err
			}
			s.logger.WithPlugin(observe.PluginMeta{Name: name, Kind: Kind}).Info(ctx, "logging plugin started",
				observe.F("level", s.level.String()),
				observe.F("style", s.style),
				observe.F("handler", s.handler),
			)
			return s, nil
		},
		Release: func(ctx context.Context, s *sink) error {
			s.logger.WithPlugin(observe.PluginMeta{Name: name, Kind: Kind}).Info(ctx, "logging plugin stopped")
			return s.close()
		},
	})
	return p
}

// InitApp validates and binds cfg, registering p itself.
func (p *Plugin) InitApp(reg *plugin.Registry, cfg any) error {
	return p.Bind(reg, p, cfg)
}

// Kind reports "logging".
func (p *Plugin) Kind() string {
	return Kind
}

// Logger returns the live logger.
func (p *Plugin) Logger() (observe.Logger, error) {
	s, err := p.Resource()
	if err != nil {
		return nil, err
	}
	return s.logger, nil
}

// Memory returns the record list of the "list" handler.
func (p *Plugin) Memory() (*Memory, error) {
	s, err := p.Resource()
	if err != nil {
		return nil, err
	}
	if s.memory == nil {
		return nil, ErrNoMemory
	}
	return s.memory, nil
}

// Health reports the active level and style.
func (p *Plugin) Health(context.Context) (map[string]any, error) {
	s, err := p.Resource()
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"level":   s.level.String(),
		"style":   s.style,
		"handler": s.handler,
	}, nil
}
