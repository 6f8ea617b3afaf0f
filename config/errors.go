package config

import "errors"

var (
	// ErrUnknownConfig is returned by Manager.Get for an unregistered name.
	ErrUnknownConfig = errors.New("config: unknown configuration")

	// ErrNilTarget is returned when Load is given a nil or non-pointer target.
	ErrNilTarget = errors.New("config: target must be a non-nil pointer")
)
