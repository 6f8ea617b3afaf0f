package secret

import (
	"context"
	"fmt"
	"os"
)

// EnvProvider resolves references as environment variable names, with an
// optional prefix: ref "PASSWORD" with prefix "REDIS_" reads REDIS_PASSWORD.
type EnvProvider struct {
	prefix string
	lookup func(string) (string, bool)
}

// NewEnvProvider creates an env provider.
func NewEnvProvider(prefix string) *EnvProvider {
	return &EnvProvider{prefix: prefix, lookup: os.LookupEnv}
}

// NewEnvProviderFromConfig is the ProviderFactory for "env". It reads the
// optional "prefix" key.
func NewEnvProviderFromConfig(cfg map[string]any) (Provider, error) {
	prefix, err := stringOption(cfg, "prefix")
	if err != nil {
		return nil, err
	}
	return NewEnvProvider(prefix), nil
}

func (p *EnvProvider) Name() string { return "env" }

func (p *EnvProvider) Resolve(_ context.Context, ref string) (string, error) {
	v, ok := p.lookup(p.prefix + ref)
	if !ok {
		return "", fmt.Errorf("%w: env %s%s", ErrNotFound, p.prefix, ref)
	}
	return v, nil
}

func (p *EnvProvider) Close() error { return nil }

func stringOption(cfg map[string]any, key string) (string, error) {
	v, ok := cfg[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: option %q must be a string, got %T", ErrInvalidRegistration, key, v)
	}
	return s, nil
}
