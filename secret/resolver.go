package secret

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const refPrefix = "secretref:"

var inlineRef = regexp.MustCompile(`secretref:([^:\s@/]+):([^\s@/]+)`)

// Resolver turns configuration values into their final form. Each value is
// first expanded with ExpandEnvStrict; any "secretref:<provider>:<ref>"
// left in the result, either as the whole value or embedded in it, is then
// replaced with what the named provider returns.
//
// In strict mode a provider answering "" is an error.
type Resolver struct {
	providers map[string]Provider
	strict    bool
}

// NewResolver returns a resolver over providers, keyed by Provider.Name.
// Nil providers are skipped.
func NewResolver(strict bool, providers ...Provider) *Resolver {
	r := &Resolver{providers: make(map[string]Provider, len(providers)), strict: strict}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register adds p, replacing any provider with the same name.
func (r *Resolver) Register(p Provider) {
	if r == nil || p == nil {
		return
	}
	if r.providers == nil {
		r.providers = make(map[string]Provider)
	}
	r.providers[p.Name()] = p
}

// Close closes every provider.
func (r *Resolver) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	for _, p := range r.providers {
		errs = append(errs, p.Close())
	}
	return errors.Join(errs...)
}

// ResolveValue expands and resolves a single value. A nil resolver only
// expands the environment.
func (r *Resolver) ResolveValue(ctx context.Context, value string) (string, error) {
	expanded, err := ExpandEnvStrict(value)
	if err != nil || r == nil {
		return expanded, err
	}
	if provider, ref, ok := ParseSecretRef(expanded); ok {
		return r.lookup(ctx, provider, ref)
	}
	if !strings.Contains(expanded, refPrefix) {
		return expanded, nil
	}

	var firstErr error
	out := inlineRef.ReplaceAllStringFunc(expanded, func(m string) string {
		if firstErr != nil {
			return m
		}
		provider, ref, _ := ParseSecretRef(m)
		v, err := r.lookup(ctx, provider, ref)
		if err != nil {
			firstErr = err
			return m
		}
		return v
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// ResolveSlice resolves values in order and stops at the first error.
func (r *Resolver) ResolveSlice(ctx context.Context, values []string) ([]string, error) {
	out := make([]string, 0, len(values))
	for _, v := range values {
		resolved, err := r.ResolveValue(ctx, v)
		if err != nil {
			return nil, err
		}
		out = append(out, resolved)
	}
	return out, nil
}

// ResolveMap resolves every value of input. Errors name the failing key.
func (r *Resolver) ResolveMap(ctx context.Context, input map[string]string) (map[string]string, error) {
	if input == nil {
		return nil, nil
	}
	out := make(map[string]string, len(input))
	for k, v := range input {
		resolved, err := r.ResolveValue(ctx, v)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", k, err)
		}
		out[k] = resolved
	}
	return out, nil
}

// ParseSecretRef splits a value of the exact form secretref:<provider>:<ref>.
// The ref may contain colons but no whitespace.
func ParseSecretRef(value string) (provider, ref string, ok bool) {
	rest, found := strings.CutPrefix(value, refPrefix)
	if !found {
		return "", "", false
	}
	provider, ref, found = strings.Cut(rest, ":")
	if !found || provider == "" || ref == "" || strings.ContainsAny(ref, " \t\r\n") {
		return "", "", false
	}
	return provider, ref, true
}

func (r *Resolver) lookup(ctx context.Context, provider, ref string) (string, error) {
	if strings.TrimSpace(provider) == "" || strings.TrimSpace(ref) == "" {
		return "", fmt.Errorf("%w: %s%s:%s", ErrInvalidRef, refPrefix, provider, ref)
	}
	p, ok := r.providers[provider]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	v, err := p.Resolve(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("secret: %s:%s: %w", provider, ref, err)
	}
	if r.strict && v == "" {
		return "", fmt.Errorf("%w: %s:%s", ErrEmptySecret, provider, ref)
	}
	return v, nil
}
