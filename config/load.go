package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"

	envparse "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/plugkit/secret"
)

// Option configures Load.
type Option func(*loadOptions)

type loadOptions struct {
	resolver    *secret.Resolver
	envPrefix   string
	environment map[string]string
	skipEnv     bool
}

// WithResolver resolves secretref: values. Without one only ${VAR}
// expansion is applied.
func WithResolver(r *secret.Resolver) Option {
	return func(o *loadOptions) { o.resolver = r }
}

// WithEnvPrefix prefixes every env tag, e.g. "PLUGIND_".
func WithEnvPrefix(prefix string) Option {
	return func(o *loadOptions) { o.envPrefix = prefix }
}

// WithEnvironment replaces the process environment for overrides.
func WithEnvironment(vars map[string]string) Option {
	return func(o *loadOptions) { o.environment = vars }
}

// WithoutEnvOverrides skips the environment override step.
func WithoutEnvOverrides() Option {
	return func(o *loadOptions) { o.skipEnv = true }
}

// Load fills out from the YAML file at path and then from the environment.
// An empty path or a missing file skips the file step.
func Load(ctx context.Context, path string, out any, opts ...Option) error {
	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	return LoadBytes(ctx, data, out, opts...)
}

// LoadBytes is Load for in-memory YAML.
func LoadBytes(ctx context.Context, data []byte, out any, opts ...Option) error {
	if rv := reflect.ValueOf(out); !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() {
		return ErrNilTarget
	}

	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	if len(data) > 0 {
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("config: parse yaml: %w", err)
		}
		if err := resolveNode(ctx, o.resolver, &doc); err != nil {
			return err
		}
		if len(doc.Content) > 0 {
			if err := doc.Decode(out); err != nil {
				return fmt.Errorf("config: decode: %w", err)
			}
		}
	}

	if o.skipEnv {
		return nil
	}
	envOpts := envparse.Options{Prefix: o.envPrefix}
	if o.environment != nil {
		envOpts.Environment = o.environment
	}
	if err := envparse.ParseWithOptions(out, envOpts); err != nil {
		return fmt.Errorf("config: env overrides: %w", err)
	}
	return nil
}

// resolveNode rewrites every string scalar in place. Plain scalars that
// changed lose their tag so the decoder re-resolves them, which lets
// "port: ${REDIS_PORT}" decode into an int.
func resolveNode(ctx context.Context, r *secret.Resolver, n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.ShortTag() != "!!str" {
			return nil
		}
		v, err := r.ResolveValue(ctx, n.Value)
		if err != nil {
			return fmt.Errorf("config: line %d: %w", n.Line, err)
		}
		if v != n.Value {
			n.Value = v
			if n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle|yaml.LiteralStyle|yaml.FoldedStyle) == 0 {
				n.Tag = ""
			}
		}
	case yaml.AliasNode:
		return nil
	default:
		for _, c := range n.Content {
			if err := resolveNode(ctx, r, c); err != nil {
				return err
			}
		}
	}
	return nil
}

// LoadDotenv loads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotenv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("config: load %s: %w", p, err)
		}
	}
	return nil
}
