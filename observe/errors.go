package observe

import "errors"

var (
	// ErrMissingServiceName is returned when Config.ServiceName is empty.
	ErrMissingServiceName = errors.New("observe: service name is required")

	// ErrInvalidSamplePct is returned when Tracing.SamplePct is outside [0, 1].
	ErrInvalidSamplePct = errors.New("observe: sample percentage must be between 0.0 and 1.0")

	// ErrInvalidTracingExporter is returned for an exporter name the
	// exporters package does not know.
	ErrInvalidTracingExporter = errors.New("observe: invalid tracing exporter")

	// ErrInvalidMetricsExporter is the metrics counterpart of
	// ErrInvalidTracingExporter.
	ErrInvalidMetricsExporter = errors.New("observe: invalid metrics exporter")

	// ErrInvalidLogLevel is returned for a level other than debug, info,
	// warn or error.
	ErrInvalidLogLevel = errors.New("observe: invalid log level")

	// ErrNilObserver is returned by MiddlewareFromObserver.
	ErrNilObserver = errors.New("observe: observer is nil")
)
