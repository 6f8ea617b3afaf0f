package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jonwraymond/plugkit/observe"
)

// zapLogger adapts a *zap.Logger to observe.Logger. Fields go through
// observe.Redact and valid span contexts add trace_id and span_id.
type zapLogger struct {
	l *zap.Logger
}

func (z zapLogger) Info(ctx context.Context, msg string, fields ...observe.Field) {
	z.log(ctx, zapcore.InfoLevel, msg, fields)
}

func (z zapLogger) Warn(ctx context.Context, msg string, fields ...observe.Field) {
	z.log(ctx, zapcore.WarnLevel, msg, fields)
}

func (z zapLogger) Error(ctx context.Context, msg string, fields ...observe.Field) {
	z.log(ctx, zapcore.ErrorLevel, msg, fields)
}

func (z zapLogger) Debug(ctx context.Context, msg string, fields ...observe.Field) {
	z.log(ctx, zapcore.DebugLevel, msg, fields)
}

func (z zapLogger) WithPlugin(meta observe.PluginMeta) observe.Logger {
	fields := []zap.Field{zap.String("plugin.name", meta.Name)}
	if meta.Kind != "" {
		fields = append(fields, zap.String("plugin.kind", meta.Kind))
	}
	if meta.Version != "" {
		fields = append(fields, zap.String("plugin.version", meta.Version))
	}
	return zapLogger{l: z.l.With(fields...)}
}

func (z zapLogger) log(ctx context.Context, level zapcore.Level, msg string, fields []observe.Field) {
	ce := z.l.Check(level, msg)
	if ce == nil {
		return
	}
	zf := make([]zap.Field, 0, len(fields)+2)
	if ctx != nil {
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			zf = append(zf,
				zap.String("trace_id", sc.TraceID().String()),
				zap.String("span_id", sc.SpanID().String()),
			)
		}
	}
	for _, f := range fields {
		f = observe.Redact(f)
		if err, ok := f.Value.(error); ok {
			zf = append(zf, zap.NamedError(f.Key, err))
			continue
		}
		zf = append(zf, zap.Any(f.Key, f.Value))
	}
	ce.Write(zf...)
}

var _ observe.Logger = zapLogger{}
