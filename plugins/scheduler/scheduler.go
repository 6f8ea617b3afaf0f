package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/jonwraymond/plugkit/observe"
	"github.com/jonwraymond/plugkit/plugin"
)

// Kind is the telemetry kind reported by the plugin.
const Kind = "scheduler"

var (
	// ErrFull is returned by Spawn when every worker is busy and the pending
	// queue already holds PendingLimit jobs.
	ErrFull = errors.New("scheduler: pending limit reached")

	// ErrClosed is returned by Spawn after the scheduler was closed.
	ErrClosed = errors.New("scheduler: closed")
)

// Config configures the scheduler plugin.
type Config struct {
	// CloseTimeout bounds how long Close waits for running jobs.
	CloseTimeout time.Duration `yaml:"close_timeout" env:"CLOSE_TIMEOUT"`

	// Limit is the number of concurrently running jobs.
	Limit int `yaml:"limit" env:"LIMIT"`

	// PendingLimit is the number of jobs queued while all workers are busy.
	// Zero disables the queue.
	PendingLimit int `yaml:"pending_limit" env:"PENDING_LIMIT"`
}

// DefaultConfig returns the configuration used when none is bound.
func DefaultConfig() Config {
	return Config{
		CloseTimeout: 100 * time.Millisecond,
		Limit:        100,
		PendingLimit: 10000,
	}
}

// Job is a unit of background work.
type Job func(ctx context.Context)

// Scheduler runs jobs on a bounded pool. Jobs beyond the worker limit wait
// in a FIFO queue; Spawn never blocks.
type Scheduler struct {
	pool         *ants.Pool
	ctx          context.Context
	cancel       context.CancelFunc
	closeTimeout time.Duration
	logger       observe.Logger
	limit        int
	pendingLimit int

	mu      sync.Mutex
	queue   []Job
	running int
	closed  bool
}

func newScheduler(cfg Config, logger observe.Logger) (*Scheduler, error) {
	if cfg.Limit < 1 {
		return nil, fmt.Errorf("%w: limit %d < 1", plugin.ErrConfiguration, cfg.Limit)
	}
	if cfg.PendingLimit < 0 {
		return nil, fmt.Errorf("%w: pending limit %d < 0", plugin.ErrConfiguration, cfg.PendingLimit)
	}

	// Workers are only submitted while running < Limit, so the pool never
	// has to queue on its own.
	pool, err := ants.NewPool(cfg.Limit)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		pool:         pool,
		ctx:          ctx,
		cancel:       cancel,
		closeTimeout: cfg.CloseTimeout,
		logger:       logger,
		limit:        cfg.Limit,
		pendingLimit: cfg.PendingLimit,
	}, nil
}

// Spawn schedules job and returns immediately. The job starts on a free
// worker or waits in the pending queue. Spawn returns ErrFull when the queue
// is full and ErrClosed after Close.
func (s *Scheduler) Spawn(job Job) error {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return ErrClosed
	case s.running < s.limit:
		s.running++
		s.mu.Unlock()
	case len(s.queue) < s.pendingLimit:
		s.queue = append(s.queue, job)
		s.mu.Unlock()
		return nil
	default:
		s.mu.Unlock()
		return ErrFull
	}

	if err := s.pool.Submit(func() { s.work(job) }); err != nil {
		s.mu.Lock()
		s.running--
		s.mu.Unlock()
		if errors.Is(err, ants.ErrPoolClosed) {
			return ErrClosed
		}
		return err
	}
	return nil
}

// work runs job and then drains the pending queue until it is empty.
func (s *Scheduler) work(job Job) {
	for job != nil {
		s.run(job)

		s.mu.Lock()
		job = nil
		if len(s.queue) > 0 && !s.closed {
			job = s.queue[0]
			s.queue[0] = nil
			s.queue = s.queue[1:]
		} else {
			s.running--
		}
		s.mu.Unlock()
	}
}

func (s *Scheduler) run(job Job) {
	defer func() {
		if v := recover(); v != nil {
			s.logger.Error(s.ctx, "scheduled job panicked", observe.F("panic", fmt.Sprint(v)))
		}
	}()
	job(s.ctx)
}

// Jobs returns the number of running and waiting jobs.
func (s *Scheduler) Jobs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running + len(s.queue)
}

// Active returns the number of running jobs.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Pending returns the number of spawned jobs not yet running.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Limit returns the worker limit.
func (s *Scheduler) Limit() int {
	return s.pool.Cap()
}

// Closed reports whether Close was called.
func (s *Scheduler) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close drops pending jobs, cancels the job context and waits up to the
// close timeout for running jobs to return.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	s.closed = true
	dropped := len(s.queue)
	s.queue = nil
	s.mu.Unlock()
	if dropped > 0 {
		s.logger.Warn(s.ctx, "dropped pending jobs", observe.F("pending", dropped))
	}

	s.cancel()
	if s.closeTimeout <= 0 {
		s.pool.Release()
		return nil
	}
	return s.pool.ReleaseTimeout(s.closeTimeout)
}

// Plugin owns one Scheduler.
type Plugin struct {
	*plugin.Base[Config, *Scheduler]

	logger observe.Logger
}

// New creates a scheduler plugin registered under name. A nil logger
// disables logging.
func New(name string, logger observe.Logger) *Plugin {
	if logger == nil {
		logger = observe.NopLogger()
	}
	p := &Plugin{logger: logger.WithPlugin(observe.PluginMeta{Name: name, Kind: Kind})}
	p.Base = plugin.NewBase(name, DefaultConfig, plugin.Hooks[Config, *Scheduler]{
		Acquire: func(_ context.Context, cfg Config) (*Scheduler, error) {
			return newScheduler(cfg, p.logger)
		},
		Release: func(_ context.Context, s *Scheduler) error {
			return s.Close()
		},
	})
	return p
}

// InitApp validates and binds cfg, registering p itself.
func (p *Plugin) InitApp(reg *plugin.Registry, cfg any) error {
	return p.Bind(reg, p, cfg)
}

// Kind reports "scheduler".
func (p *Plugin) Kind() string {
	return Kind
}

// Scheduler returns the live scheduler.
func (p *Plugin) Scheduler() (*Scheduler, error) {
	return p.Resource()
}

// Health reports pool occupancy.
func (p *Plugin) Health(context.Context) (map[string]any, error) {
	s, err := p.Resource()
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"jobs":    s.Jobs(),
		"active":  s.Active(),
		"pending": s.Pending(),
		"limit":   s.Limit(),
		"closed":  s.Closed(),
	}, nil
}
