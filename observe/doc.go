// Package observe provides tracing, metrics and structured logging for plugin
// lifecycle operations.
//
// An Observer owns the OpenTelemetry tracer and meter providers plus a JSON
// logger. A Middleware built from it wraps each lifecycle operation
// (init_app, init, terminate, health) so that every call produces one span
// named plugin.<op>.<name>, increments plugin.op.total (and plugin.op.errors
// on failure), records plugin.op.duration_ms and writes one log line.
//
//	obs, err := observe.NewObserver(ctx, observe.Config{
//	    ServiceName: "plugind",
//	    Tracing:     observe.TracingConfig{Enabled: true, Exporter: "stdout", SamplePct: 1},
//	    Metrics:     observe.MetricsConfig{Enabled: true, Exporter: "prometheus"},
//	    Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
//	})
//	mw, err := observe.MiddlewareFromObserver(obs)
//	err = mw.Wrap(observe.PluginMeta{Name: "redis"}, "init", p.Init)(ctx)
package observe
