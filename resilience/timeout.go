package resilience

import (
	"context"
	"errors"
	"time"
)

// Timeout bounds how long an operation may run.
type Timeout struct {
	d time.Duration
}

// NewTimeout creates a Timeout. A non-positive d defaults to 30 seconds.
func NewTimeout(d time.Duration) *Timeout {
	if d <= 0 {
		d = 30 * time.Second
	}
	return &Timeout{d: d}
}

// Duration returns the configured limit.
func (t *Timeout) Duration() time.Duration {
	return t.d
}

// Execute runs op with the timeout applied.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	_, err := Call(ctx, t.d, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Call runs op in its own goroutine and returns when op finishes or the
// deadline passes. An operation that ignores ctx keeps running in the
// background after Call has returned ErrTimeout; its result is dropped.
func Call[T any](ctx context.Context, d time.Duration, op func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)

	go func() {
		v, err := op(ctx)
		done <- result{v: v, err: err}
	}()

	var zero T
	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, ErrTimeout
		}
		return zero, ctx.Err()
	}
}
