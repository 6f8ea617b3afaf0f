package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// metricsHook records command latency and failures. A missing key is not a
// failure.
type metricsHook struct {
	duration metric.Float64Histogram
	errors   metric.Int64Counter
}

func newMetricsHook(meter metric.Meter) (*metricsHook, error) {
	duration, err := meter.Float64Histogram(
		"redis.command.duration_ms",
		metric.WithDescription("Duration of redis commands"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}
	errCount, err := meter.Int64Counter(
		"redis.command.errors",
		metric.WithDescription("Total number of failed redis commands"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}
	return &metricsHook{duration: duration, errors: errCount}, nil
}

func (h *metricsHook) DialHook(next goredis.DialHook) goredis.DialHook {
	return next
}

func (h *metricsHook) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.record(ctx, cmd.Name(), time.Since(start), err)
		return err
	}
}

func (h *metricsHook) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []goredis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		h.record(ctx, "pipeline", time.Since(start), err)
		return err
	}
}

func (h *metricsHook) record(ctx context.Context, name string, d time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("redis.command", name))
	h.duration.Record(ctx, float64(d.Microseconds())/1000, attrs)
	if err != nil && !errors.Is(err, goredis.Nil) {
		h.errors.Add(ctx, 1, attrs)
	}
}
