package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RetryPolicy is a bounded, fixed-interval retry policy. It is stateless and
// can be shared between calls.
type RetryPolicy struct {
	// MaxAttempts is the maximum number of connect attempts, at least 1.
	MaxAttempts int

	// Wait is the fixed pause between attempts. Zero retries immediately.
	Wait time.Duration
}

// Validate reports whether the policy can be run.
func (p RetryPolicy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("%w: max attempts %d < 1", ErrInvalidPolicy, p.MaxAttempts)
	}
	if p.Wait < 0 {
		return fmt.Errorf("%w: negative wait %v", ErrInvalidPolicy, p.Wait)
	}
	return nil
}

// BootstrapOption configures a Bootstrap call.
type BootstrapOption func(*bootstrapOptions)

type bootstrapOptions struct {
	onRetry func(attempt int, err error, wait time.Duration)
}

// OnRetry registers a callback invoked after each failed attempt that will be
// retried.
func OnRetry(fn func(attempt int, err error, wait time.Duration)) BootstrapOption {
	return func(o *bootstrapOptions) {
		o.onRetry = fn
	}
}

// Bootstrap calls connect until it succeeds or policy.MaxAttempts attempts
// have failed, sleeping policy.Wait between attempts.
//
// On exhaustion it returns a *BootstrapError wrapping the last error. If ctx
// is cancelled while connecting or sleeping, ctx.Err() is returned at once.
// Liveness probes of the returned handle are the caller's job and are not
// retried here.
func Bootstrap[T any](ctx context.Context, policy RetryPolicy, connect func(context.Context) (T, error), opts ...BootstrapOption) (T, error) {
	var zero T
	if err := policy.Validate(); err != nil {
		return zero, err
	}

	var o bootstrapOptions
	for _, opt := range opts {
		opt(&o)
	}

	var handle T
	r := NewRetry(RetryConfig{
		MaxAttempts:  policy.MaxAttempts,
		InitialDelay: policy.Wait,
		Strategy:     BackoffConstant,
		OnRetry:      o.onRetry,
	})

	attempts := 0
	err := r.Execute(ctx, func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		attempts++
		h, err := connect(ctx)
		if err != nil {
			return err
		}
		handle = h
		return nil
	})
	if err == nil {
		return handle, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return zero, ctxErr
	}
	if errors.Is(err, ErrInvalidPolicy) {
		return zero, err
	}
	return zero, &BootstrapError{Attempts: attempts, Err: err}
}
