// Package config resolves telemetry configuration for beacon services.
//
// Configuration is read from environment variables with an optional
// .env-style file as a lower-priority source. The resolved snapshot is
// immutable for the process lifetime: services resolve once at startup
// and pass the result by reference.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap/zapcore"
)

// DefaultCollectorURL is the fallback OTLP destination when no endpoint is
// configured: a collector on the local host speaking OTLP/HTTP.
const DefaultCollectorURL = "http://localhost:4318"

// SpanProcessor selects the trace flush policy.
type SpanProcessor string

const (
	// SpanProcessorBatch groups spans and exports them periodically.
	SpanProcessorBatch SpanProcessor = "batch"
	// SpanProcessorSimple exports each span as soon as it ends. Slower,
	// but useful when debugging whether anything is being sent at all.
	SpanProcessorSimple SpanProcessor = "simple"
)

// BasicAuth holds a basic-auth credential pair for the profiling backend.
type BasicAuth struct {
	User     string
	Password string
}

// Telemetry is the resolved telemetry configuration snapshot.
//
// Endpoint and ProfilingURL are nil when the corresponding variable is
// absent (or, for profiling, explicitly disabled or unparsable); callers
// use that to distinguish "not configured" from "configured".
type Telemetry struct {
	// Endpoint is the normalized OTLP base URL (no /v1/* suffix). It is
	// also nil when the variable was set but unparsable; in that case
	// EndpointInvalidReason says why and exports fall back to the local
	// collector.
	Endpoint              *url.URL
	EndpointInvalidReason string
	// Headers are the parsed OTEL_EXPORTER_OTLP_HEADERS pairs.
	Headers map[string]string
	// ResourceAttributes are the parsed OTEL_RESOURCE_ATTRIBUTES pairs,
	// merged under service.name which always wins.
	ResourceAttributes map[string]string
	// Protocol is the OTLP transport, "http/protobuf" or "grpc".
	Protocol string
	// ServiceName identifies the service in every exported signal.
	ServiceName string

	SpanProcessor  SpanProcessor
	MetricsEnabled bool
	LogsEnabled    bool

	// ProfilingURL is the normalized profiling ingest base URL, nil when
	// profiling is off. ProfilingDisabledReason says why it is nil.
	ProfilingURL            *url.URL
	ProfilingDisabledReason string
	ProfilingAuth           *BasicAuth

	// LogLevel is the diagnostic verbosity from OTEL_LOG_LEVEL.
	LogLevel zapcore.Level
	// Debug is true when DEBUG matches this process (substring match).
	Debug bool
}

// Resolve builds a Telemetry snapshot from the process environment.
//
// envFile, when non-empty and present on disk, is merged as a
// lower-priority source: lines of the form KEY=VALUE, # comments ignored,
// surrounding quotes stripped. A variable already set in the live
// environment is never overwritten by the file.
func Resolve(serviceName, envFile string) (*Telemetry, error) {
	k := koanf.New(".")

	if envFile != "" {
		if content, err := os.ReadFile(envFile); err == nil {
			if err := k.Load(rawbytes.Provider(content), dotenv.Parser()); err != nil {
				return nil, fmt.Errorf("loading env file %s: %w", envFile, err)
			}
		}
	}

	// Live environment wins over the file.
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	cfg := &Telemetry{
		Headers:        ParseKeyValues(k.String("OTEL_EXPORTER_OTLP_HEADERS")),
		Protocol:       stringOr(k, "OTEL_EXPORTER_OTLP_PROTOCOL", "http/protobuf"),
		ServiceName:    stringOr(k, "OTEL_SERVICE_NAME", serviceName),
		SpanProcessor:  SpanProcessorBatch,
		MetricsEnabled: k.String("OTEL_METRICS_ENABLED") != "false",
		LogsEnabled:    k.String("OTEL_LOGS_ENABLED") != "false",
		LogLevel:       logLevel(k.String("OTEL_LOG_LEVEL")),
		Debug:          debugMatches(k.String("DEBUG")),
	}

	if k.String("OTEL_SPAN_PROCESSOR") == "simple" {
		cfg.SpanProcessor = SpanProcessorSimple
	}

	// A malformed endpoint degrades to the local-collector fallback with
	// a recorded reason; it never fails the resolve.
	if raw := k.String("OTEL_EXPORTER_OTLP_ENDPOINT"); raw != "" {
		u, err := NormalizeEndpoint(raw)
		if err != nil {
			cfg.EndpointInvalidReason = fmt.Sprintf("OTEL_EXPORTER_OTLP_ENDPOINT is not a valid URL: %v", err)
		} else {
			cfg.Endpoint = u
		}
	}

	// service.name is supplied explicitly and never overridable by the
	// parsed attribute list.
	cfg.ResourceAttributes = ParseKeyValues(k.String("OTEL_RESOURCE_ATTRIBUTES"))
	cfg.ResourceAttributes["service.name"] = cfg.ServiceName

	resolveProfiling(cfg, k)

	return cfg, nil
}

// resolveProfiling fills the profiling fields. A missing, disabled, or
// unparsable PYROSCOPE_URL turns profiling off with a reason; it never
// fails the resolve.
func resolveProfiling(cfg *Telemetry, k *koanf.Koanf) {
	raw := k.String("PYROSCOPE_URL")
	switch {
	case raw == "":
		cfg.ProfilingDisabledReason = "PYROSCOPE_URL is not set"
		return
	case raw == "false" || raw == "disabled":
		cfg.ProfilingDisabledReason = fmt.Sprintf("PYROSCOPE_URL=%s turns profiling off", raw)
		return
	}

	u, err := NormalizeEndpoint(raw)
	if err != nil {
		cfg.ProfilingDisabledReason = fmt.Sprintf("PYROSCOPE_URL is not a valid URL: %v", err)
		return
	}
	cfg.ProfilingURL = u

	user := k.String("PYROSCOPE_BASIC_AUTH_USER")
	password := k.String("PYROSCOPE_BASIC_AUTH_PASSWORD")
	if user != "" || password != "" {
		cfg.ProfilingAuth = &BasicAuth{User: user, Password: password}
	}
}

// IsCloud reports whether u points at the managed cloud backend, which
// enforces stricter auth requirements than a local collector.
func IsCloud(u *url.URL) bool {
	if u == nil {
		return false
	}
	host := u.Hostname()
	return host == "grafana.net" || strings.HasSuffix(host, ".grafana.net")
}

// ServicePort returns the PORT variable, or def when unset or unparsable.
func ServicePort(def int) int {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 && p < 65536 {
			return p
		}
	}
	return def
}

// BackendURL returns the BACKEND_URL variable, or def when unset.
func BackendURL(def string) string {
	if v := os.Getenv("BACKEND_URL"); v != "" {
		return strings.TrimSuffix(v, "/")
	}
	return def
}

func stringOr(k *koanf.Koanf, key, def string) string {
	if v := k.String(key); v != "" {
		return v
	}
	return def
}

// logLevel parses OTEL_LOG_LEVEL, defaulting to info. Unknown values fall
// back to info rather than failing the resolve.
func logLevel(raw string) zapcore.Level {
	if raw == "" {
		return zapcore.InfoLevel
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(raw))); err != nil {
		return zapcore.InfoLevel
	}
	return l
}

// debugMatches implements the DEBUG convention: a substring match against
// this process's namespaces enables verbose internal diagnostics.
func debugMatches(raw string) bool {
	if raw == "" {
		return false
	}
	return raw == "*" || strings.Contains(raw, "beacon") || strings.Contains(raw, "otel")
}
