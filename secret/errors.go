package secret

import "errors"

var (
	// ErrMissingEnv is returned when ${VAR} names an unset variable.
	ErrMissingEnv = errors.New("secret: missing required environment variables")

	// ErrInvalidRegistration is returned for an empty name or nil factory.
	ErrInvalidRegistration = errors.New("secret: invalid provider registration")

	// ErrDuplicateProvider is returned when a provider name is taken.
	ErrDuplicateProvider = errors.New("secret: provider already registered")

	// ErrUnknownProvider is returned for a provider name with no factory or
	// no instance in the resolver.
	ErrUnknownProvider = errors.New("secret: provider not registered")

	// ErrEmptySecret is returned in strict mode when a provider yields "".
	ErrEmptySecret = errors.New("secret: provider returned empty value")

	// ErrNotFound is returned by providers when a reference does not exist.
	ErrNotFound = errors.New("secret: not found")

	// ErrInvalidRef is returned for a malformed reference.
	ErrInvalidRef = errors.New("secret: invalid reference")
)
