package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// BackoffStrategy selects how the pause grows between attempts.
type BackoffStrategy int

const (
	// BackoffExponential multiplies the pause by Multiplier each attempt.
	BackoffExponential BackoffStrategy = iota
	// BackoffLinear grows the pause by InitialDelay each attempt.
	BackoffLinear
	// BackoffConstant always pauses InitialDelay, which may be zero.
	BackoffConstant
)

// RetryConfig configures a Retry. Zero fields take the defaults noted.
type RetryConfig struct {
	// MaxAttempts counts the first call. Default 3.
	MaxAttempts int

	// InitialDelay is the first pause. Default 100ms, except for
	// BackoffConstant where zero is kept.
	InitialDelay time.Duration

	// MaxDelay caps every pause before jitter. Default 30s.
	MaxDelay time.Duration

	// Multiplier applies to BackoffExponential. Default 2.
	Multiplier float64

	Strategy BackoffStrategy

	// Jitter stretches each pause by up to a quarter.
	Jitter bool

	// RetryIf filters retryable errors. Default: any non-nil error.
	RetryIf func(err error) bool

	// OnRetry runs after a failed attempt that will be retried.
	OnRetry func(attempt int, err error, delay time.Duration)
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	switch {
	case c.InitialDelay < 0:
		c.InitialDelay = 0
	case c.InitialDelay == 0 && c.Strategy != BackoffConstant:
		c.InitialDelay = 100 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 30 * time.Second
	}
	if c.Multiplier <= 0 {
		c.Multiplier = 2
	}
	if c.RetryIf == nil {
		c.RetryIf = func(err error) bool { return err != nil }
	}
	return c
}

// Retry re-runs an operation with backoff. It holds no per-call state and
// can be shared.
type Retry struct {
	config RetryConfig
}

// NewRetry returns a Retry with defaults applied to config.
func NewRetry(config RetryConfig) *Retry {
	return &Retry{config: config.withDefaults()}
}

// Config returns the effective configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}

// Execute calls op until it succeeds, returns a non-retryable error, or
// MaxAttempts calls have failed; the last error is returned. A done ctx
// during a pause returns ctx.Err().
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	var err error
	for attempt := 1; ; attempt++ {
		if err = op(ctx); err == nil || !r.config.RetryIf(err) {
			return err
		}
		if attempt == r.config.MaxAttempts {
			return err
		}
		delay := r.calculateDelay(attempt)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}
		if serr := sleep(ctx, delay); serr != nil {
			return serr
		}
	}
}

// calculateDelay returns the pause after the given failed attempt.
func (r *Retry) calculateDelay(attempt int) time.Duration {
	c := r.config
	delay := c.InitialDelay
	switch c.Strategy {
	case BackoffLinear:
		delay *= time.Duration(attempt)
	case BackoffExponential:
		delay = time.Duration(float64(delay) * math.Pow(c.Multiplier, float64(attempt-1)))
	}
	delay = min(delay, c.MaxDelay)

	if c.Jitter && delay >= 4 {
		// #nosec G404 -- timing variance only.
		delay += time.Duration(rand.Int64N(int64(delay / 4)))
	}
	return delay
}

// sleep pauses for d. It returns early with ctx.Err() once ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
