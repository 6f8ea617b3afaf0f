package plugin

import (
	"errors"
	"fmt"
)

// Sentinel errors for plugin lifecycle operations.
var (
	// ErrConfiguration indicates a missing or wrongly typed configuration.
	ErrConfiguration = errors.New("plugin: invalid configuration")

	// ErrAlreadyInitialized is returned by Init and InitApp on a running plugin.
	ErrAlreadyInitialized = errors.New("plugin: already initialized")

	// ErrNotInitialized is returned by the capability accessor before Init succeeded.
	ErrNotInitialized = errors.New("plugin: not initialized")

	// ErrDuplicateName indicates another plugin is registered under the same name.
	ErrDuplicateName = errors.New("plugin: duplicate name")

	// ErrNotFound indicates no plugin is registered under a name.
	ErrNotFound = errors.New("plugin: not found")

	// ErrWrongType indicates a registered plugin does not have the requested type.
	ErrWrongType = errors.New("plugin: wrong type")
)

// Error records a failed lifecycle operation on a named plugin.
type Error struct {
	Plugin string
	Op     string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("plugin %s: %s: %v", e.Plugin, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(name, op string, err error) error {
	return &Error{Plugin: name, Op: op, Err: err}
}
