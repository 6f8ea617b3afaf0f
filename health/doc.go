// Package health aggregates the health probes of registered plugins into a
// single report.
//
// A plugin opts in by implementing Checker. The Controller discovers
// checkers in a plugin registry in registration order, runs every probe
// concurrently and returns a Report whose checks keep that order no matter
// which probe finished first. A probe that fails, panics or exceeds its
// timeout only marks its own entry as failed:
//
//	ctrl := health.NewController(reg, health.ControllerConfig{Timeout: 5 * time.Second})
//	report, err := ctrl.Health(ctx)
//	// report.Status is true iff every check passed
//
// Handler maps a report onto HTTP: 200 with the report as body when healthy,
// 417 with the report nested under "detail" otherwise.
package health
