package plugin

import (
	"context"
	"errors"
	"testing"
)

type testSettings struct {
	Addr string
}

type testConn struct {
	addr   string
	closed bool
}

type testPlugin struct {
	*Base[testSettings, *testConn]
	acquired int
	released int
}

func newTestPlugin(name string) *testPlugin {
	p := &testPlugin{}
	p.Base = NewBase(name, func() testSettings {
		return testSettings{Addr: "localhost:1"}
	}, Hooks[testSettings, *testConn]{
		Acquire: func(ctx context.Context, cfg testSettings) (*testConn, error) {
			p.acquired++
			return &testConn{addr: cfg.Addr}, nil
		},
		Release: func(ctx context.Context, c *testConn) error {
			p.released++
			c.closed = true
			return nil
		},
	})
	return p
}

func (p *testPlugin) InitApp(reg *Registry, cfg any) error {
	return p.Bind(reg, p, cfg)
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateUninitialized, "uninitialized"},
		{StateConfigured, "configured"},
		{StateRunning, "running"},
		{StateTerminated, "terminated"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestBase_ResourceBeforeInit(t *testing.T) {
	p := newTestPlugin("conn")

	_, err := p.Resource()
	if !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("Resource() error = %v, want ErrNotInitialized", err)
	}

	if err := p.InitApp(NewRegistry(), testSettings{Addr: "a:1"}); err != nil {
		t.Fatalf("InitApp() error = %v", err)
	}
	if _, err := p.Resource(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Resource() after InitApp error = %v, want ErrNotInitialized", err)
	}
}

func TestBase_Lifecycle(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()
	p := newTestPlugin("conn")

	if p.State() != StateUninitialized {
		t.Fatalf("initial State() = %v, want uninitialized", p.State())
	}
	if err := p.InitApp(reg, testSettings{Addr: "a:1"}); err != nil {
		t.Fatalf("InitApp() error = %v", err)
	}
	if p.State() != StateConfigured {
		t.Errorf("State() = %v, want configured", p.State())
	}
	if err := p.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if p.State() != StateRunning {
		t.Errorf("State() = %v, want running", p.State())
	}

	conn, err := p.Resource()
	if err != nil {
		t.Fatalf("Resource() error = %v", err)
	}
	if conn.addr != "a:1" {
		t.Errorf("conn.addr = %q, want %q", conn.addr, "a:1")
	}

	err = p.Init(ctx)
	if !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("second Init() error = %v, want ErrAlreadyInitialized", err)
	}
	if _, err := p.Resource(); err != nil {
		t.Errorf("Resource() after second Init error = %v", err)
	}
	if p.acquired != 1 {
		t.Errorf("acquired = %d, want 1", p.acquired)
	}

	if err := p.Terminate(ctx); err != nil {
		t.Fatalf("Terminate() error = %v", err)
	}
	if p.State() != StateTerminated {
		t.Errorf("State() = %v, want terminated", p.State())
	}
	if !conn.closed || p.released != 1 {
		t.Errorf("resource not released: closed=%v released=%d", conn.closed, p.released)
	}
	if _, ok := p.Config(); ok {
		t.Error("Config() still bound after Terminate")
	}
	if _, err := p.Resource(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Resource() after Terminate error = %v, want ErrNotInitialized", err)
	}
}

func TestBase_Reinitialize(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()
	p := newTestPlugin("conn")

	for i := 0; i < 2; i++ {
		if err := p.InitApp(reg, testSettings{Addr: "a:1"}); err != nil {
			t.Fatalf("round %d InitApp() error = %v", i, err)
		}
		if err := p.Init(ctx); err != nil {
			t.Fatalf("round %d Init() error = %v", i, err)
		}
		if err := p.Terminate(ctx); err != nil {
			t.Fatalf("round %d Terminate() error = %v", i, err)
		}
	}
	if p.acquired != 2 || p.released != 2 {
		t.Errorf("acquired=%d released=%d, want 2/2", p.acquired, p.released)
	}
	if reg.Len() != 1 {
		t.Errorf("registry Len() = %d, want 1", reg.Len())
	}
}

func TestBase_TerminateNeverInitialized(t *testing.T) {
	p := newTestPlugin("conn")

	if err := p.Terminate(context.Background()); err != nil {
		t.Fatalf("Terminate() error = %v", err)
	}
	if p.State() != StateTerminated {
		t.Errorf("State() = %v, want terminated", p.State())
	}
	if p.released != 0 {
		t.Errorf("released = %d, want 0", p.released)
	}
}

func TestBase_InitAppConfigTypes(t *testing.T) {
	tests := []struct {
		name     string
		cfg      any
		wantErr  bool
		wantAddr string
	}{
		{"value", testSettings{Addr: "v:1"}, false, "v:1"},
		{"pointer", &testSettings{Addr: "p:1"}, false, "p:1"},
		{"nil selects defaults", nil, false, "localhost:1"},
		{"typed nil pointer", (*testSettings)(nil), true, ""},
		{"wrong type", struct{ Addr string }{"x"}, true, ""},
		{"string", "localhost:1", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			p := newTestPlugin("conn")

			err := p.InitApp(reg, tt.cfg)
			if tt.wantErr {
				if !errors.Is(err, ErrConfiguration) {
					t.Fatalf("InitApp() error = %v, want ErrConfiguration", err)
				}
				if reg.Len() != 0 {
					t.Errorf("rejected plugin was registered")
				}
				if p.State() != StateUninitialized {
					t.Errorf("State() = %v, want uninitialized", p.State())
				}
				return
			}
			if err != nil {
				t.Fatalf("InitApp() error = %v", err)
			}
			cfg, ok := p.Config()
			if !ok || cfg.Addr != tt.wantAddr {
				t.Errorf("Config() = %+v, %v; want Addr %q", cfg, ok, tt.wantAddr)
			}
		})
	}
}

func TestBase_InitAppWrongTypeNoAcquire(t *testing.T) {
	p := newTestPlugin("conn")

	err := p.InitApp(NewRegistry(), 42)
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("InitApp() error = %v, want ErrConfiguration", err)
	}
	if p.acquired != 0 {
		t.Errorf("acquired = %d, want 0", p.acquired)
	}
}

func TestBase_InitWithoutInitApp(t *testing.T) {
	p := newTestPlugin("conn")

	if err := p.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	conn, err := p.Resource()
	if err != nil {
		t.Fatalf("Resource() error = %v", err)
	}
	if conn.addr != "localhost:1" {
		t.Errorf("conn.addr = %q, want default", conn.addr)
	}
}

func TestBase_AcquireFailure(t *testing.T) {
	connErr := errors.New("connection refused")
	p := NewBase("flaky", nil, Hooks[testSettings, int]{
		Acquire: func(ctx context.Context, cfg testSettings) (int, error) {
			return 0, connErr
		},
	})

	err := p.Init(context.Background())
	if !errors.Is(err, connErr) {
		t.Fatalf("Init() error = %v, want %v", err, connErr)
	}
	var perr *Error
	if !errors.As(err, &perr) || perr.Plugin != "flaky" || perr.Op != "init" {
		t.Errorf("Init() error = %#v, want *Error{flaky, init}", err)
	}
	if p.State() == StateRunning {
		t.Error("State() = running after failed Init")
	}
}

func TestBase_ReleaseError(t *testing.T) {
	closeErr := errors.New("close failed")
	p := NewBase("conn", nil, Hooks[testSettings, int]{
		Acquire: func(ctx context.Context, cfg testSettings) (int, error) { return 1, nil },
		Release: func(ctx context.Context, res int) error { return closeErr },
	})
	ctx := context.Background()

	if err := p.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := p.Terminate(ctx); !errors.Is(err, closeErr) {
		t.Errorf("Terminate() error = %v, want %v", err, closeErr)
	}
	if p.State() != StateTerminated {
		t.Errorf("State() = %v, want terminated", p.State())
	}
}

func TestBase_InitAppNilRegistry(t *testing.T) {
	p := newTestPlugin("conn")
	if err := p.InitApp(nil, nil); !errors.Is(err, ErrConfiguration) {
		t.Errorf("InitApp(nil) error = %v, want ErrConfiguration", err)
	}
}

func TestBase_InitAppWhileRunning(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()
	p := newTestPlugin("conn")
	if err := p.InitApp(reg, testSettings{Addr: "a:1"}); err != nil {
		t.Fatalf("InitApp() error = %v", err)
	}
	if err := p.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	err := p.InitApp(reg, testSettings{Addr: "b:2"})
	if !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("InitApp() while running error = %v, want ErrAlreadyInitialized", err)
	}
	cfg, ok := p.Config()
	if !ok || cfg.Addr != "a:1" {
		t.Errorf("Config() = %+v, %v, want Addr a:1", cfg, ok)
	}
	conn, err := p.Resource()
	if err != nil {
		t.Fatalf("Resource() error = %v", err)
	}
	if conn.addr != cfg.Addr {
		t.Errorf("conn.addr = %q, config Addr = %q", conn.addr, cfg.Addr)
	}
	if p.State() != StateRunning {
		t.Errorf("State() = %v, want running", p.State())
	}

	if err := p.Terminate(ctx); err != nil {
		t.Fatalf("Terminate() error = %v", err)
	}
	if err := p.InitApp(reg, testSettings{Addr: "b:2"}); err != nil {
		t.Errorf("InitApp() after Terminate error = %v", err)
	}
}
