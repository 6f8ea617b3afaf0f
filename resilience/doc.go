// Package resilience provides the retry and time-bounding primitives used to
// bring plugins up and keep their probes bounded.
//
// # Bootstrap
//
// Bootstrap is the startup connection helper: a bounded number of attempts
// separated by a fixed wait. It is meant for short startup races, such as a
// cache container that has not opened its port yet, not for long-running
// resilience:
//
//	client, err := resilience.Bootstrap(ctx,
//	    resilience.RetryPolicy{MaxAttempts: 300, Wait: time.Second},
//	    func(ctx context.Context) (*Client, error) {
//	        return dial(ctx, addr)
//	    },
//	)
//	if errors.Is(err, resilience.ErrBootstrap) {
//	    // all attempts failed; the host should abort startup
//	}
//
// Cancelling ctx aborts the loop at the next attempt or wait.
//
// # Other Patterns
//
//   - Retry: general retries with constant, linear or exponential backoff.
//   - Timeout and Call: run an operation with a deadline.
//   - RateLimiter: token bucket throttling.
package resilience
