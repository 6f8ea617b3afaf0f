package observe

import (
	"context"
	"time"
)

// OpFunc is a plugin lifecycle operation.
type OpFunc func(ctx context.Context) error

// Middleware wraps lifecycle operations with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: Wrap returns an OpFunc safe for concurrent use if fn is.
//   - Errors: errors from fn are recorded and returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a Middleware. Nil components are replaced by no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// NopMiddleware returns a Middleware that only calls through.
func NopMiddleware() *Middleware {
	return NewMiddleware(nil, nil, nil)
}

// MiddlewareFromObserver builds a Middleware from an Observer's providers.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// Logger returns the middleware's logger.
func (m *Middleware) Logger() Logger {
	return m.logger
}

// Wrap returns fn instrumented as operation op of the given plugin.
func (m *Middleware) Wrap(meta PluginMeta, op string, fn OpFunc) OpFunc {
	return func(ctx context.Context) error {
		ctx, span := m.tracer.StartSpan(ctx, meta, op)
		start := time.Now()

		err := fn(ctx)

		duration := time.Since(start)
		m.tracer.EndSpan(span, err)
		m.metrics.RecordOp(ctx, meta, op, duration, err)

		fields := []Field{
			{Key: "op", Value: op},
			{Key: "duration_ms", Value: float64(duration.Milliseconds())},
		}
		log := m.logger.WithPlugin(meta)
		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			log.Error(ctx, "plugin "+op+" failed", fields...)
		} else {
			log.Info(ctx, "plugin "+op+" completed", fields...)
		}

		return err
	}
}
