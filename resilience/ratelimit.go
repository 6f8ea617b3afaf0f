package resilience

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig configures a token bucket.
type RateLimiterConfig struct {
	// Rate is the refill rate in tokens per second. Default 100.
	Rate float64

	// Burst is the bucket size. Default 10.
	Burst int

	// MaxWait bounds how long Wait may block. Default 1s.
	MaxWait time.Duration
}

// RateLimiter throttles callers such as the health route.
type RateLimiter struct {
	maxWait time.Duration
	limiter *rate.Limiter
}

// NewRateLimiter returns a full bucket.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Rate <= 0 {
		config.Rate = 100
	}
	if config.Burst <= 0 {
		config.Burst = 10
	}
	if config.MaxWait <= 0 {
		config.MaxWait = time.Second
	}
	return &RateLimiter{
		maxWait: config.MaxWait,
		limiter: rate.NewLimiter(rate.Limit(config.Rate), config.Burst),
	}
}

// Allow takes a token if one is available.
func (rl *RateLimiter) Allow() bool {
	return rl.limiter.Allow()
}

// RetryAfter estimates how long until the next token, without taking it.
func (rl *RateLimiter) RetryAfter() time.Duration {
	r := rl.limiter.Reserve()
	defer r.Cancel()
	if !r.OK() {
		return rl.maxWait
	}
	return r.Delay()
}

// Wait takes a token, blocking up to MaxWait for one. It returns
// ErrRateLimitExceeded when the next token is further away than MaxWait.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r := rl.limiter.Reserve()
	if !r.OK() || r.Delay() > rl.maxWait {
		r.Cancel()
		return ErrRateLimitExceeded
	}
	if err := sleep(ctx, r.Delay()); err != nil {
		r.Cancel()
		return err
	}
	return nil
}
