package telemetry

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/fyrsmithlabs/beacon/internal/config"
)

// MetricExportInterval is the fixed period between metric exports. It is
// deliberately not configurable.
const MetricExportInterval = 60 * time.Second

// newResource builds the resource describing this service from the
// resolved attribute map. service.name is always present (the resolver
// guarantees it).
func newResource(cfg *config.Telemetry) (*resource.Resource, error) {
	attrs := make([]attribute.KeyValue, 0, len(cfg.ResourceAttributes))
	for k, v := range cfg.ResourceAttributes {
		if k == "service.name" {
			attrs = append(attrs, semconv.ServiceName(v))
			continue
		}
		attrs = append(attrs, attribute.String(k, v))
	}
	return resource.NewWithAttributes(semconv.SchemaURL, attrs...), nil
}

// exportEndpoint returns the configured OTLP base URL, or the local
// collector default when none is configured.
func exportEndpoint(cfg *config.Telemetry) *url.URL {
	if cfg.Endpoint != nil {
		return cfg.Endpoint
	}
	u, _ := config.NormalizeEndpoint(config.DefaultCollectorURL)
	return u
}

// newTracerProvider builds the trace pipeline: an OTLP exporter for the
// configured protocol behind the configured flush policy.
func newTracerProvider(ctx context.Context, cfg *config.Telemetry, res *resource.Resource, exporter sdktrace.SpanExporter) (*sdktrace.TracerProvider, error) {
	if exporter == nil {
		var err error
		exporter, err = newTraceExporter(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if cfg.SpanProcessor == config.SpanProcessorSimple {
		// Immediate flush: every span exported as it ends. Trades
		// throughput for visibility when debugging an export path.
		opts = append(opts, sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)))
	} else {
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	return sdktrace.NewTracerProvider(opts...), nil
}

func newTraceExporter(ctx context.Context, cfg *config.Telemetry) (sdktrace.SpanExporter, error) {
	u := exportEndpoint(cfg)

	switch cfg.Protocol {
	case "grpc":
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(u.Host),
			otlptracegrpc.WithHeaders(cfg.Headers),
		}
		if u.Scheme == "http" {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		return otlptracegrpc.New(ctx, opts...)
	case "http/protobuf", "":
		return otlptracehttp.New(ctx,
			otlptracehttp.WithEndpointURL(config.TracesURL(u)),
			otlptracehttp.WithHeaders(cfg.Headers),
		)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", cfg.Protocol)
	}
}

// newMeterProvider builds the metric pipeline with the fixed periodic
// export interval.
func newMeterProvider(ctx context.Context, cfg *config.Telemetry, res *resource.Resource, exporter sdkmetric.Exporter) (*sdkmetric.MeterProvider, error) {
	if exporter == nil {
		var err error
		exporter, err = newMetricExporter(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(MetricExportInterval)),
		),
	), nil
}

func newMetricExporter(ctx context.Context, cfg *config.Telemetry) (sdkmetric.Exporter, error) {
	u := exportEndpoint(cfg)

	switch cfg.Protocol {
	case "grpc":
		opts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpoint(u.Host),
			otlpmetricgrpc.WithHeaders(cfg.Headers),
		}
		if u.Scheme == "http" {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		return otlpmetricgrpc.New(ctx, opts...)
	case "http/protobuf", "":
		return otlpmetrichttp.New(ctx,
			otlpmetrichttp.WithEndpointURL(config.MetricsURL(u)),
			otlpmetrichttp.WithHeaders(cfg.Headers),
		)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", cfg.Protocol)
	}
}

// newLoggerProvider builds the logs pipeline. It batches like the trace
// pipeline but is a separate pipeline with its own lifecycle: disabling
// metrics or logs never affects tracing or profiling.
func newLoggerProvider(ctx context.Context, cfg *config.Telemetry, res *resource.Resource, exporter sdklog.Exporter) (*sdklog.LoggerProvider, error) {
	if exporter == nil {
		var err error
		exporter, err = newLogExporter(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	return sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	), nil
}

func newLogExporter(ctx context.Context, cfg *config.Telemetry) (sdklog.Exporter, error) {
	u := exportEndpoint(cfg)

	switch cfg.Protocol {
	case "grpc":
		opts := []otlploggrpc.Option{
			otlploggrpc.WithEndpoint(u.Host),
			otlploggrpc.WithHeaders(cfg.Headers),
		}
		if u.Scheme == "http" {
			opts = append(opts, otlploggrpc.WithInsecure())
		}
		return otlploggrpc.New(ctx, opts...)
	case "http/protobuf", "":
		return otlploghttp.New(ctx,
			otlploghttp.WithEndpointURL(config.LogsURL(u)),
			otlploghttp.WithHeaders(cfg.Headers),
		)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", cfg.Protocol)
	}
}
