package redis

import "errors"

var (
	// ErrUnknownType is returned for a connection type other than redis,
	// sentinel or fakeredis.
	ErrUnknownType = errors.New("redis: unknown connection type")

	// ErrInvalidSentinels is returned when the sentinel list cannot be parsed.
	ErrInvalidSentinels = errors.New("redis: invalid sentinels")

	// ErrPing is returned when the freshly built client does not answer PING.
	ErrPing = errors.New("redis: ping failed")
)
