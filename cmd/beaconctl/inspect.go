package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/beacon/internal/config"
	"github.com/fyrsmithlabs/beacon/internal/telemetry"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the resolved telemetry configuration without network calls",
	Long: `inspect resolves the telemetry configuration exactly as the services
would, prints it with credentials redacted, and lists heuristic warnings.
It makes no network calls and always exits zero: warnings are for the
operator to weigh, not for scripts to gate on. Use validate for a live
check.`,
	Args: cobra.NoArgs,
	RunE: runInspect,
}

func runInspect(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Resolve(serviceName, envFile)
	if err != nil {
		// Unresolvable config is still an inspection result, not a
		// failure: report it and exit zero.
		cmd.Printf("configuration does not resolve: %v\n", err)
		return nil
	}

	cmd.Printf("service name:     %s\n", cfg.ServiceName)
	if cfg.Endpoint != nil {
		cmd.Printf("otlp endpoint:    %s\n", cfg.Endpoint)
		cmd.Printf("traces url:       %s\n", config.TracesURL(cfg.Endpoint))
	} else {
		cmd.Printf("otlp endpoint:    (unset, local collector %s)\n", config.DefaultCollectorURL)
	}
	cmd.Printf("protocol:         %s\n", cfg.Protocol)
	cmd.Printf("span processor:   %s\n", cfg.SpanProcessor)
	cmd.Printf("headers:          %s\n", formatHeaders(cfg.Headers))
	cmd.Printf("resource attrs:   %s\n", formatPairs(cfg.ResourceAttributes))
	cmd.Printf("metrics enabled:  %t\n", cfg.MetricsEnabled)
	cmd.Printf("logs enabled:     %t\n", cfg.LogsEnabled)
	if cfg.ProfilingURL != nil {
		cmd.Printf("profiling url:    %s\n", cfg.ProfilingURL)
		cmd.Printf("profiling auth:   %s\n", formatAuth(cfg.ProfilingAuth))
	} else {
		cmd.Printf("profiling:        off (%s)\n", cfg.ProfilingDisabledReason)
	}

	for _, w := range collectWarnings(cfg) {
		cmd.Printf("warning: %s\n", w)
	}
	return nil
}

// collectWarnings merges the capability gate's warnings with
// inspect-only heuristics.
func collectWarnings(cfg *config.Telemetry) []string {
	warnings := telemetry.Decide(cfg).Warnings

	if cfg.Protocol != "http/protobuf" && cfg.Protocol != "grpc" {
		warnings = append(warnings,
			fmt.Sprintf("OTEL_EXPORTER_OTLP_PROTOCOL=%q is not supported; exporters will fail to start", cfg.Protocol))
	}
	if cfg.Endpoint == nil {
		warnings = append(warnings,
			"no OTEL_EXPORTER_OTLP_ENDPOINT; telemetry goes to the local collector, fine for development")
	}
	if cfg.SpanProcessor == config.SpanProcessorSimple {
		warnings = append(warnings,
			"OTEL_SPAN_PROCESSOR=simple flushes every span immediately; do not use in production")
	}
	return warnings
}

// formatHeaders renders the header map with values redacted: header
// strings are where credentials live.
func formatHeaders(headers map[string]string) string {
	if len(headers) == 0 {
		return "(none)"
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, redact(headers[k])))
	}
	return strings.Join(parts, ", ")
}

func formatPairs(pairs map[string]string) string {
	if len(pairs) == 0 {
		return "(none)"
	}
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, pairs[k]))
	}
	return strings.Join(parts, ", ")
}

func formatAuth(auth *config.BasicAuth) string {
	if auth == nil {
		return "(none)"
	}
	return fmt.Sprintf("user=%s password=%s", auth.User, redact(auth.Password))
}

// redact keeps a short prefix so an operator can tell which credential is
// configured without exposing it.
func redact(v string) string {
	if len(v) <= 4 {
		return "****"
	}
	return v[:4] + "****"
}
