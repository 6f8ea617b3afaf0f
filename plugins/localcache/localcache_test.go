package localcache

import (
	"context"
	"errors"
	"testing"

	"github.com/jonwraymond/plugkit/plugin"
)

func TestPlugin_Backends(t *testing.T) {
	for _, backend := range []Backend{BackendMemory, BackendRistretto} {
		t.Run(string(backend), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Backend = backend
			p := New("cache")
			ctx := context.Background()

			if err := p.InitApp(plugin.NewRegistry(), cfg); err != nil {
				t.Fatalf("InitApp() error = %v", err)
			}
			if err := p.Init(ctx); err != nil {
				t.Fatalf("Init() error = %v", err)
			}
			defer func() { _ = p.Terminate(ctx) }()

			c, err := p.Cache()
			if err != nil {
				t.Fatalf("Cache() error = %v", err)
			}
			if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			got, ok := c.Get(ctx, "k")
			if !ok || string(got) != "v" {
				t.Errorf("Get() = %q, %v, want v, true", got, ok)
			}

			details, err := p.Health(ctx)
			if err != nil {
				t.Fatalf("Health() error = %v", err)
			}
			if details["backend"] != string(backend) {
				t.Errorf("backend = %v, want %v", details["backend"], backend)
			}
			if details["entries"] != 1 {
				t.Errorf("entries = %v, want 1", details["entries"])
			}
		})
	}
}

func TestPlugin_Defaults(t *testing.T) {
	p := New("cache")
	ctx := context.Background()
	if err := p.InitApp(plugin.NewRegistry(), nil); err != nil {
		t.Fatalf("InitApp() error = %v", err)
	}
	if err := p.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	cfg, ok := p.Config()
	if !ok || cfg.Backend != BackendMemory {
		t.Errorf("Config() = %+v, %v, want memory backend", cfg, ok)
	}
	if err := p.Terminate(ctx); err != nil {
		t.Fatalf("Terminate() error = %v", err)
	}
	if _, err := p.Cache(); !errors.Is(err, plugin.ErrNotInitialized) {
		t.Errorf("Cache() error = %v, want ErrNotInitialized", err)
	}
}

func TestPlugin_UnknownBackend(t *testing.T) {
	p := New("cache")
	if err := p.InitApp(plugin.NewRegistry(), Config{Backend: "disk"}); err != nil {
		t.Fatalf("InitApp() error = %v", err)
	}
	err := p.Init(context.Background())
	if !errors.Is(err, ErrUnknownBackend) || !errors.Is(err, plugin.ErrConfiguration) {
		t.Errorf("Init() error = %v, want ErrUnknownBackend and ErrConfiguration", err)
	}
}
