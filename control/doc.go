// Package control provides the control plugin: it owns the health
// Controller for its registry and serves the control routes.
//
// Routes, relative to Config.RouterPrefix:
//
//	GET /version    {"version": "..."}
//	GET /environ    {"environ": {...}}
//	GET /heartbeat  {"is_alive": true}
//	GET /health     200 report, or 417 {"detail": report}
//	GET /metrics    prometheus exposition, when EnableMetrics is set
//
// Init runs one aggregation and fails with ErrUnhealthy when any check
// fails. Register the control plugin after the plugins it probes.
package control
