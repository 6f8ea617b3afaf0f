package secret

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestEnvProvider(t *testing.T) {
	t.Setenv("REDIS_PASSWORD", "hunter2")

	p, err := NewEnvProviderFromConfig(map[string]any{"prefix": "REDIS_"})
	if err != nil {
		t.Fatalf("NewEnvProviderFromConfig() error = %v", err)
	}
	got, err := p.Resolve(context.Background(), "PASSWORD")
	if err != nil || got != "hunter2" {
		t.Fatalf("Resolve() = %q, %v; want hunter2", got, err)
	}

	if _, err := p.Resolve(context.Background(), "MISSING_PLUGKIT_VAR"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve(missing) error = %v, want ErrNotFound", err)
	}
}

func TestEnvProvider_BadOption(t *testing.T) {
	if _, err := NewEnvProviderFromConfig(map[string]any{"prefix": 3}); err == nil {
		t.Fatal("NewEnvProviderFromConfig() error = nil, want option type error")
	}
}

func TestFileProvider(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "redis_password"), []byte("s3cret\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	p, err := NewFileProvider(dir)
	if err != nil {
		t.Fatalf("NewFileProvider() error = %v", err)
	}
	defer p.Close()

	got, err := p.Resolve(context.Background(), "redis_password")
	if err != nil || got != "s3cret" {
		t.Fatalf("Resolve() = %q, %v; want s3cret", got, err)
	}

	if _, err := p.Resolve(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve(nope) error = %v, want ErrNotFound", err)
	}
	if _, err := p.Resolve(context.Background(), "../etc/passwd"); !errors.Is(err, ErrInvalidRef) {
		t.Errorf("Resolve(../etc/passwd) error = %v, want ErrInvalidRef", err)
	}
}

func TestFileProvider_MissingDir(t *testing.T) {
	if _, err := NewFileProvider(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("NewFileProvider() error = nil for missing dir")
	}
}

func TestResolver_WithBuiltinProviders(t *testing.T) {
	t.Setenv("PLUGKIT_TEST_TOKEN", "abc")
	dir := t.TempDir()
	_ = os.WriteFile(filepath.Join(dir, "db"), []byte("pw"), 0o600)

	reg := NewDefaultRegistry()
	env, _ := reg.Create("env", nil)
	file, err := reg.Create("file", map[string]any{"dir": dir})
	if err != nil {
		t.Fatalf("Create(file) error = %v", err)
	}
	r := NewResolver(true, env, file)
	defer r.Close()

	got, err := r.ResolveValue(context.Background(), "token=secretref:env:PLUGKIT_TEST_TOKEN db=secretref:file:db")
	if err != nil {
		t.Fatalf("ResolveValue() error = %v", err)
	}
	if got != "token=abc db=pw" {
		t.Errorf("ResolveValue() = %q, want %q", got, "token=abc db=pw")
	}
}
