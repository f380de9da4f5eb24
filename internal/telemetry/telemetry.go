package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/grafana/pyroscope-go"
	"go.opentelemetry.io/otel"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/fyrsmithlabs/beacon/internal/config"
)

// Telemetry is the process-wide telemetry context: one pipeline handle per
// enabled subsystem, constructed once at startup and read-only thereafter.
//
// Providers are also registered globally (otel.SetTracerProvider and
// friends) so auto-instrumentation discovers them without explicit wiring,
// but components that emit telemetry directly should take a *Telemetry by
// reference instead of reaching for the globals.
type Telemetry struct {
	cfg       *config.Telemetry
	decisions Decisions

	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	loggerProvider *sdklog.LoggerProvider
	profiler       *pyroscope.Profiler
	sources        *SourceResolver
}

// Option configures New. Used by tests to substitute exporters.
type Option func(*options)

type options struct {
	traceExporter  sdktrace.SpanExporter
	metricExporter sdkmetric.Exporter
	logExporter    sdklog.Exporter
	sourceDirs     []string
}

// WithTraceExporter overrides the OTLP trace exporter.
func WithTraceExporter(exp sdktrace.SpanExporter) Option {
	return func(o *options) { o.traceExporter = exp }
}

// WithMetricExporter overrides the OTLP metric exporter.
func WithMetricExporter(exp sdkmetric.Exporter) Option {
	return func(o *options) { o.metricExporter = exp }
}

// WithLogExporter overrides the OTLP log exporter.
func WithLogExporter(exp sdklog.Exporter) Option {
	return func(o *options) { o.logExporter = exp }
}

// WithSourceDirs sets the search directories for the profiling source
// resolver.
func WithSourceDirs(dirs ...string) Option {
	return func(o *options) { o.sourceDirs = dirs }
}

// New constructs the telemetry context from a resolved config snapshot.
//
// It is called exactly once per process start; calling it twice is
// undefined. Each enabled subsystem gets exactly one pipeline. Failures
// degrade the affected subsystem to disabled (the reason lands in
// Decisions) rather than failing startup; New returns an error only when
// the config itself is unusable.
func New(ctx context.Context, cfg *config.Telemetry, opts ...Option) (*Telemetry, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	t := &Telemetry{
		cfg:       cfg,
		decisions: Decide(cfg),
	}

	res, err := newResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("building resource: %w", err)
	}

	if t.decisions.Tracing.Enabled {
		tp, err := newTracerProvider(ctx, cfg, res, o.traceExporter)
		if err != nil {
			t.decisions.Tracing = Decision{Enabled: false, Reason: fmt.Sprintf("trace exporter: %v", err)}
		} else {
			t.tracerProvider = tp
			otel.SetTracerProvider(tp)
		}
	}

	if t.decisions.Metrics.Enabled {
		mp, err := newMeterProvider(ctx, cfg, res, o.metricExporter)
		if err != nil {
			t.decisions.Metrics = Decision{Enabled: false, Reason: fmt.Sprintf("metric exporter: %v", err)}
		} else {
			t.meterProvider = mp
			otel.SetMeterProvider(mp)
		}
	}

	if t.decisions.Logs.Enabled {
		lp, err := newLoggerProvider(ctx, cfg, res, o.logExporter)
		if err != nil {
			t.decisions.Logs = Decision{Enabled: false, Reason: fmt.Sprintf("log exporter: %v", err)}
		} else {
			t.loggerProvider = lp
			global.SetLoggerProvider(lp)
		}
	}

	if t.decisions.Profiling.Enabled {
		// Source resolution is optional: a failed resolver means profiles
		// without symbol resolution, never a disabled profiler.
		if len(o.sourceDirs) > 0 {
			if sr, err := NewSourceResolver(o.sourceDirs); err == nil {
				t.sources = sr
			} else {
				t.decisions.Warnings = append(t.decisions.Warnings,
					fmt.Sprintf("source resolver unavailable, profiling runs without symbol resolution: %v", err))
			}
		}

		profiler, err := startProfiler(cfg)
		if err != nil {
			t.decisions.Profiling = Decision{Enabled: false, Reason: fmt.Sprintf("profiler: %v", err)}
		} else {
			t.profiler = profiler
		}
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return t, nil
}

// Decisions returns the capability decisions this context was built with,
// including any degradations recorded during initialization.
func (t *Telemetry) Decisions() Decisions {
	if t == nil {
		return Decisions{}
	}
	return t.decisions
}

// Tracer returns a tracer for the given instrumentation scope, falling
// back to the global (no-op by default) provider when tracing is off.
func (t *Telemetry) Tracer(name string, opts ...oteltrace.TracerOption) oteltrace.Tracer {
	if t == nil || t.tracerProvider == nil {
		return otel.GetTracerProvider().Tracer(name, opts...)
	}
	return t.tracerProvider.Tracer(name, opts...)
}

// Meter returns a meter for the given instrumentation scope.
func (t *Telemetry) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if t == nil || t.meterProvider == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return t.meterProvider.Meter(name, opts...)
}

// LoggerProvider returns the logs pipeline handle, or nil when the logs
// subsystem is disabled. The logging facade treats nil as console-only.
func (t *Telemetry) LoggerProvider() otellog.LoggerProvider {
	if t == nil || t.loggerProvider == nil {
		return nil
	}
	return t.loggerProvider
}

// SourceResolver returns the profiling source resolver, or nil when
// symbol resolution is unavailable. Absence is a first-class outcome.
func (t *Telemetry) SourceResolver() *SourceResolver {
	if t == nil {
		return nil
	}
	return t.sources
}

// ForceFlush exports all pending telemetry immediately.
func (t *Telemetry) ForceFlush(ctx context.Context) error {
	if t == nil {
		return nil
	}

	var errs []error
	if t.tracerProvider != nil {
		if err := t.tracerProvider.ForceFlush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("trace flush: %w", err))
		}
	}
	if t.meterProvider != nil {
		if err := t.meterProvider.ForceFlush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter flush: %w", err))
		}
	}
	if t.loggerProvider != nil {
		if err := t.loggerProvider.ForceFlush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("log flush: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Shutdown flushes and stops every pipeline. The demo services never call
// it (process exit reclaims the handles); it exists for tests and for
// embedders that do shut down cleanly.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}

	var errs []error
	if t.tracerProvider != nil {
		if err := t.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("trace provider shutdown: %w", err))
		}
	}
	if t.meterProvider != nil {
		if err := t.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}
	if t.loggerProvider != nil {
		if err := t.loggerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("logger provider shutdown: %w", err))
		}
	}
	if t.profiler != nil {
		if err := t.profiler.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("profiler stop: %w", err))
		}
	}
	return errors.Join(errs...)
}
