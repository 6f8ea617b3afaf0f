package health

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonwraymond/plugkit/plugin"
)

type probePlugin struct {
	*plugin.Base[struct{}, struct{}]
	probe func(ctx context.Context) (map[string]any, error)
}

func (p *probePlugin) InitApp(reg *plugin.Registry, cfg any) error {
	return p.Bind(reg, p, cfg)
}

func (p *probePlugin) Health(ctx context.Context) (map[string]any, error) {
	return p.probe(ctx)
}

func newProbe(name string, fn func(ctx context.Context) (map[string]any, error)) *probePlugin {
	return &probePlugin{
		Base:  plugin.NewBase[struct{}, struct{}](name, nil, plugin.Hooks[struct{}, struct{}]{}),
		probe: fn,
	}
}

func registry(t *testing.T, plugins ...plugin.Plugin) *plugin.Registry {
	t.Helper()
	reg := plugin.NewRegistry()
	for _, p := range plugins {
		if err := p.InitApp(reg, nil); err != nil {
			t.Fatalf("InitApp(%s) error = %v", p.Name(), err)
		}
	}
	return reg
}

func ok(details map[string]any) func(context.Context) (map[string]any, error) {
	return func(context.Context) (map[string]any, error) { return details, nil }
}

func fail(msg string) func(context.Context) (map[string]any, error) {
	return func(context.Context) (map[string]any, error) { return nil, errors.New(msg) }
}

func TestController_Empty(t *testing.T) {
	report, err := NewController(plugin.NewRegistry()).Health(context.Background())
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	if !report.Status {
		t.Error("Status = false, want true")
	}
	if report.Checks == nil || len(report.Checks) != 0 {
		t.Errorf("Checks = %#v, want empty non-nil slice", report.Checks)
	}
}

func TestController_Passing(t *testing.T) {
	reg := registry(t, newProbe("cache", ok(map[string]any{"ping": "pong"})))

	report, err := NewController(reg).Health(context.Background())
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}

	want := Report{
		Status: true,
		Checks: []Check{{Name: "cache", Status: true, Details: map[string]any{"ping": "pong"}}},
	}
	if !reflect.DeepEqual(report, want) {
		t.Errorf("Health() = %#v, want %#v", report, want)
	}
}

func TestController_ProbeError(t *testing.T) {
	reg := registry(t, newProbe("queue", fail("boom")))

	report, _ := NewController(reg).Health(context.Background())

	want := Check{Name: "queue", Status: false, Details: map[string]any{"error": "boom"}}
	if report.Status {
		t.Error("Status = true, want false")
	}
	if len(report.Checks) != 1 || !reflect.DeepEqual(report.Checks[0], want) {
		t.Errorf("Checks = %#v, want [%#v]", report.Checks, want)
	}
}

func TestController_NilDetails(t *testing.T) {
	reg := registry(t, newProbe("cache", ok(nil)))

	report, _ := NewController(reg).Health(context.Background())
	if report.Checks[0].Details == nil {
		t.Error("Details = nil, want empty map")
	}
}

func TestController_StatusIsConjunction(t *testing.T) {
	tests := []struct {
		name   string
		probes []bool
		want   bool
	}{
		{"all pass", []bool{true, true, true}, true},
		{"first fails", []bool{false, true, true}, false},
		{"last fails", []bool{true, true, false}, false},
		{"all fail", []bool{false, false}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var plugins []plugin.Plugin
			for i, pass := range tt.probes {
				fn := ok(nil)
				if !pass {
					fn = fail("down")
				}
				plugins = append(plugins, newProbe(string(rune('a'+i)), fn))
			}
			report, _ := NewController(registry(t, plugins...)).Health(context.Background())
			if report.Status != tt.want {
				t.Errorf("Status = %v, want %v", report.Status, tt.want)
			}
			for i, c := range report.Checks {
				if c.Status != tt.probes[i] {
					t.Errorf("Checks[%d].Status = %v, want %v", i, c.Status, tt.probes[i])
				}
			}
		})
	}
}

func TestController_RegistrationOrder(t *testing.T) {
	secondDone := make(chan struct{})

	first := newProbe("first", func(ctx context.Context) (map[string]any, error) {
		<-secondDone
		return map[string]any{"n": 1}, nil
	})
	second := newProbe("second", func(ctx context.Context) (map[string]any, error) {
		close(secondDone)
		return map[string]any{"n": 2}, nil
	})

	report, err := NewController(registry(t, first, second)).Health(context.Background())
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	if len(report.Checks) != 2 || report.Checks[0].Name != "first" || report.Checks[1].Name != "second" {
		t.Errorf("Checks = %#v, want [first second]", report.Checks)
	}
}

func TestController_ExcludesNonCheckers(t *testing.T) {
	plain := plugin.NewBase[struct{}, struct{}]("plain", nil, plugin.Hooks[struct{}, struct{}]{})
	reg := registry(t, newProbe("a", ok(nil)), plain, newProbe("b", ok(nil)))

	ctrl := NewController(reg)
	if got := ctrl.Checkers(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Checkers() = %v, want [a b]", got)
	}

	report, _ := ctrl.Health(context.Background())
	if len(report.Checks) != 2 {
		t.Fatalf("Checks = %#v, want 2 entries", report.Checks)
	}
	for _, c := range report.Checks {
		if c.Name == "plain" {
			t.Error("plugin without a probe appears in report")
		}
	}
}

func TestController_FaultIsolationAcrossRuns(t *testing.T) {
	var calls atomic.Int32
	flaky := newProbe("c", func(ctx context.Context) (map[string]any, error) {
		if calls.Add(1) == 1 {
			return map[string]any{}, nil
		}
		return nil, errors.New("connection reset")
	})
	reg := registry(t, newProbe("a", ok(nil)), newProbe("b", ok(nil)), flaky)
	ctrl := NewController(reg)

	first, _ := ctrl.Health(context.Background())
	second, _ := ctrl.Health(context.Background())

	if !first.Status {
		t.Errorf("first run Status = false, checks %#v", first.Checks)
	}
	if second.Status {
		t.Error("second run Status = true, want false")
	}
	for i, want := range []bool{true, true, false} {
		if second.Checks[i].Status != want {
			t.Errorf("second run Checks[%d].Status = %v, want %v", i, second.Checks[i].Status, want)
		}
		if !first.Checks[i].Status {
			t.Errorf("first run Checks[%d].Status = false", i)
		}
	}
	if got := second.Failed(); len(got) != 1 || got[0].Name != "c" {
		t.Errorf("Failed() = %#v, want [c]", got)
	}
}

func TestController_Panic(t *testing.T) {
	reg := registry(t,
		newProbe("bad", func(ctx context.Context) (map[string]any, error) { panic("nil map") }),
		newProbe("good", ok(nil)),
	)

	report, err := NewController(reg).Health(context.Background())
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	if report.Checks[0].Status || report.Checks[0].Details["error"] != "health: check panicked: nil map" {
		t.Errorf("Checks[0] = %#v, want failed with panic message", report.Checks[0])
	}
	if !report.Checks[1].Status {
		t.Error("panic in one probe failed another")
	}
}

func TestController_Timeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	reg := registry(t,
		newProbe("slow", func(ctx context.Context) (map[string]any, error) {
			<-block
			return nil, nil
		}),
		newProbe("fast", ok(nil)),
	)

	start := time.Now()
	report, err := NewController(reg, ControllerConfig{Timeout: 20 * time.Millisecond}).Health(context.Background())
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Health() took %v", elapsed)
	}
	if report.Checks[0].Status {
		t.Error("slow probe passed, want timeout")
	}
	msg, _ := report.Checks[0].Details["error"].(string)
	if !strings.HasPrefix(msg, "health: check timeout") {
		t.Errorf("error detail = %q, want check timeout", msg)
	}
	if !report.Checks[1].Status {
		t.Error("fast probe failed")
	}
}

func TestController_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})

	reg := registry(t,
		newProbe("hang", func(ctx context.Context) (map[string]any, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}),
	)

	go func() {
		<-started
		cancel()
	}()

	report, err := NewController(reg).Health(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Health() error = %v, want context.Canceled", err)
	}
	if report.Status || len(report.Checks) != 1 || report.Checks[0].Status {
		t.Errorf("Health() = %#v, want one failed check", report)
	}

	// The registry is untouched and the next run works.
	if reg.Len() != 1 {
		t.Errorf("registry Len() = %d, want 1", reg.Len())
	}
}

func TestController_MaxConcurrency(t *testing.T) {
	var running, peak atomic.Int32
	probe := func(ctx context.Context) (map[string]any, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return nil, nil
	}

	var plugins []plugin.Plugin
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		plugins = append(plugins, newProbe(name, probe))
	}

	report, _ := NewController(registry(t, plugins...), ControllerConfig{MaxConcurrency: 2}).Health(context.Background())
	if !report.Status {
		t.Errorf("Status = false, checks %#v", report.Checks)
	}
	if got := peak.Load(); got > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", got)
	}
}
