package secret

import (
	"context"
	"fmt"
)

// Provider looks up the value behind a reference. The reference syntax is
// provider specific: an env provider takes a variable name, a file provider
// takes a file name relative to its directory.
//
// Providers are shared by every config load and must never log values.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, ref string) (string, error)
	Close() error
}

// StaticProvider serves references from a fixed map, such as secrets passed
// on the command line.
type StaticProvider struct {
	name   string
	values map[string]string
}

// NewStaticProvider returns a provider registered as name. values is copied.
func NewStaticProvider(name string, values map[string]string) *StaticProvider {
	m := make(map[string]string, len(values))
	for k, v := range values {
		m[k] = v
	}
	return &StaticProvider{name: name, values: m}
}

func (p *StaticProvider) Name() string { return p.name }

func (p *StaticProvider) Resolve(_ context.Context, ref string) (string, error) {
	v, ok := p.values[ref]
	if !ok {
		return "", fmt.Errorf("%w: %s %s", ErrNotFound, p.name, ref)
	}
	return v, nil
}

func (p *StaticProvider) Close() error { return nil }
