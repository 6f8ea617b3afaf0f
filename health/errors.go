package health

import "errors"

var (
	// ErrCheckTimeout indicates a probe did not finish within the controller
	// timeout.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckPanic indicates a probe panicked.
	ErrCheckPanic = errors.New("health: check panicked")
)
