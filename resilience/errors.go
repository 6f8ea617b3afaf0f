package resilience

import (
	"errors"
	"fmt"
)

// Sentinel errors for resilience operations.
var (
	// ErrBootstrap is returned when a bootstrap exhausts its attempts.
	ErrBootstrap = errors.New("resilience: bootstrap failed")

	// ErrInvalidPolicy is returned for a retry policy that cannot be run.
	ErrInvalidPolicy = errors.New("resilience: invalid retry policy")

	// ErrRateLimitExceeded is returned when the rate limit is exceeded.
	ErrRateLimitExceeded = errors.New("resilience: rate limit exceeded")

	// ErrTimeout is returned when an operation times out.
	ErrTimeout = errors.New("resilience: operation timed out")
)

// BootstrapError reports the last connection error after all attempts failed.
// It matches both ErrBootstrap and the underlying error with errors.Is.
type BootstrapError struct {
	Attempts int
	Err      error
}

func (e *BootstrapError) Error() string {
	return fmt.Sprintf("resilience: bootstrap failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *BootstrapError) Unwrap() []error {
	return []error{ErrBootstrap, e.Err}
}
