package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Metrics records lifecycle operation metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordOp records one lifecycle operation with its duration and outcome.
	RecordOp(ctx context.Context, meta PluginMeta, op string, duration time.Duration, err error)
}

type metricsImpl struct {
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates the plugin.op.* instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	totalCount, err := meter.Int64Counter(
		"plugin.op.total",
		metric.WithDescription("Total number of plugin lifecycle operations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"plugin.op.errors",
		metric.WithDescription("Total number of failed plugin lifecycle operations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"plugin.op.duration_ms",
		metric.WithDescription("Plugin lifecycle operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:   totalCount,
		errorCount:   errorCount,
		durationHist: durationHist,
	}, nil
}

func (m *metricsImpl) RecordOp(ctx context.Context, meta PluginMeta, op string, duration time.Duration, err error) {
	opt := metric.WithAttributes(meta.attributes(op)...)

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration)/float64(time.Millisecond), opt)
}

type noopMetrics struct{}

func (noopMetrics) RecordOp(ctx context.Context, meta PluginMeta, op string, duration time.Duration, err error) {
}
