package control

import (
	"errors"
	"fmt"

	"github.com/jonwraymond/plugkit/health"
)

var (
	// ErrUnhealthy is returned by Init when the startup aggregation fails.
	ErrUnhealthy = errors.New("control: failed health control")

	// ErrUnbound is returned by Init when InitApp never bound a registry.
	ErrUnbound = errors.New("control: not bound to a registry")
)

// UnhealthyError carries the failing startup report.
type UnhealthyError struct {
	Report health.Report
}

func (e *UnhealthyError) Error() string {
	var names []string
	for _, c := range e.Report.Failed() {
		names = append(names, c.Name)
	}
	return fmt.Sprintf("%v: %v", ErrUnhealthy, names)
}

func (e *UnhealthyError) Unwrap() error {
	return ErrUnhealthy
}
