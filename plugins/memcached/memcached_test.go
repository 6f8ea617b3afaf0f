package memcached

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/jonwraymond/plugkit/plugin"
	"github.com/jonwraymond/plugkit/resilience"
)

// fakeServer speaks enough of the memcached text protocol for the client
// calls the plugin makes.
type fakeServer struct {
	ln net.Listener

	mu      sync.Mutex
	items   map[string][]byte
	flushes int
}

func startFake(t *testing.T) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	s := &fakeServer{ln: ln, items: make(map[string][]byte)}
	go s.serve()
	t.Cleanup(func() { _ = ln.Close() })
	return s
}

func (s *fakeServer) config(t *testing.T) Config {
	t.Helper()
	host, port, _ := net.SplitHostPort(s.ln.Addr().String())
	n, err := strconv.Atoi(port)
	if err != nil {
		t.Fatalf("Atoi(%q) error = %v", port, err)
	}
	cfg := DefaultConfig()
	cfg.Host = host
	cfg.Port = n
	cfg.PrestartTries = 1
	return cfg
}

func (s *fakeServer) flushCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushes
}

func (s *fakeServer) serve() {
	for {
		c, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(c)
	}
}

func (s *fakeServer) handle(c net.Conn) {
	defer c.Close()
	r := bufio.NewReader(c)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "version":
			fmt.Fprint(c, "VERSION 1.6.21\r\n")
		case "flush_all":
			s.mu.Lock()
			s.items = make(map[string][]byte)
			s.flushes++
			s.mu.Unlock()
			fmt.Fprint(c, "OK\r\n")
		case "set":
			n, _ := strconv.Atoi(fields[4])
			buf := make([]byte, n+2)
			if _, err := io.ReadFull(r, buf); err != nil {
				return
			}
			s.mu.Lock()
			s.items[fields[1]] = buf[:n]
			s.mu.Unlock()
			fmt.Fprint(c, "STORED\r\n")
		case "get", "gets":
			s.mu.Lock()
			for _, key := range fields[1:] {
				if v, ok := s.items[key]; ok {
					fmt.Fprintf(c, "VALUE %s 0 %d 1\r\n%s\r\n", key, len(v), v)
				}
			}
			s.mu.Unlock()
			fmt.Fprint(c, "END\r\n")
		default:
			fmt.Fprint(c, "ERROR\r\n")
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Addr() != "localhost:11211" {
		t.Errorf("Addr() = %q, want %q", cfg.Addr(), "localhost:11211")
	}
	if cfg.PrestartTries != 300 {
		t.Errorf("PrestartTries = %d, want 300", cfg.PrestartTries)
	}
	if !cfg.FlushOnTerminate {
		t.Error("FlushOnTerminate = false, want true")
	}
}

func TestPlugin_Lifecycle(t *testing.T) {
	srv := startFake(t)
	cfg := srv.config(t)
	p := New("memcached", nil)
	ctx := context.Background()

	if err := p.InitApp(plugin.NewRegistry(), cfg); err != nil {
		t.Fatalf("InitApp() error = %v", err)
	}
	if err := p.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	client, err := p.Client()
	if err != nil {
		t.Fatalf("Client() error = %v", err)
	}
	if err := client.Set(&memcache.Item{Key: "k", Value: []byte("v")}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	item, err := client.Get("k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(item.Value) != "v" {
		t.Errorf("Get() = %q, want %q", item.Value, "v")
	}

	details, err := p.Health(ctx)
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	if details["host"] != cfg.Host || details["port"] != cfg.Port || details["ping"] != true {
		t.Errorf("Health() = %v", details)
	}

	if err := p.Terminate(ctx); err != nil {
		t.Fatalf("Terminate() error = %v", err)
	}
	if got := srv.flushCount(); got != 1 {
		t.Errorf("flushes = %d, want 1", got)
	}
	if _, err := p.Client(); !errors.Is(err, plugin.ErrNotInitialized) {
		t.Errorf("Client() error = %v, want ErrNotInitialized", err)
	}
}

func TestPlugin_NoFlush(t *testing.T) {
	srv := startFake(t)
	cfg := srv.config(t)
	cfg.FlushOnTerminate = false
	p := New("memcached", nil)
	ctx := context.Background()

	if err := p.InitApp(plugin.NewRegistry(), cfg); err != nil {
		t.Fatalf("InitApp() error = %v", err)
	}
	if err := p.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := p.Terminate(ctx); err != nil {
		t.Fatalf("Terminate() error = %v", err)
	}
	if got := srv.flushCount(); got != 0 {
		t.Errorf("flushes = %d, want 0", got)
	}
}

func TestPlugin_BootstrapExhausted(t *testing.T) {
	srv := startFake(t)
	cfg := srv.config(t)
	_ = srv.ln.Close()
	cfg.PrestartTries = 3
	cfg.PrestartWait = 0

	p := New("memcached", nil)
	if err := p.InitApp(plugin.NewRegistry(), cfg); err != nil {
		t.Fatalf("InitApp() error = %v", err)
	}
	err := p.Init(context.Background())
	var be *resilience.BootstrapError
	if !errors.As(err, &be) {
		t.Fatalf("Init() error = %v, want *BootstrapError", err)
	}
	if be.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", be.Attempts)
	}
	if p.State() != plugin.StateConfigured {
		t.Errorf("State() = %v, want %v", p.State(), plugin.StateConfigured)
	}
}

func TestPlugin_InitCancelledWhileServerSilent(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	var (
		mu    sync.Mutex
		conns []net.Conn
	)
	t.Cleanup(func() {
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, c)
			mu.Unlock()
		}
	}()

	host, port, _ := net.SplitHostPort(ln.Addr().String())
	cfg := DefaultConfig()
	cfg.Host = host
	cfg.Port, _ = strconv.Atoi(port)
	cfg.Timeout = 10 * time.Second
	cfg.PrestartTries = 1

	p := New("memcached", nil)
	if err := p.InitApp(plugin.NewRegistry(), cfg); err != nil {
		t.Fatalf("InitApp() error = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = p.Init(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Init() error = %v, want context.DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Init() took %v, want it to return on context cancellation", elapsed)
	}
	if p.State() != plugin.StateConfigured {
		t.Errorf("State() = %v, want %v", p.State(), plugin.StateConfigured)
	}
}
