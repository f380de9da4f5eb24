package telemetry

import (
	"fmt"

	"github.com/fyrsmithlabs/beacon/internal/config"
)

// Decision is the capability gate's verdict for one telemetry subsystem.
type Decision struct {
	Enabled bool
	Reason  string
}

// Decisions holds the verdict for every subsystem plus startup warnings.
//
// Warnings are degraded-but-running conditions an operator should see:
// the pipeline still starts, but exports are expected to be rejected.
// The preflight validator treats the same conditions as hard failures.
type Decisions struct {
	Tracing   Decision
	Metrics   Decision
	Logs      Decision
	Profiling Decision

	Warnings []string
}

// Decide derives subsystem decisions from a resolved config snapshot.
// It is deterministic and side-effect free.
func Decide(cfg *config.Telemetry) Decisions {
	var d Decisions

	// Tracing is always on; only the destination varies.
	if cfg.Endpoint != nil {
		d.Tracing = Decision{Enabled: true, Reason: fmt.Sprintf("exporting to %s", cfg.Endpoint)}
	} else {
		d.Tracing = Decision{Enabled: true, Reason: "no endpoint configured, exporting to local collector " + config.DefaultCollectorURL}
	}

	d.Metrics = Decision{Enabled: cfg.MetricsEnabled, Reason: "enabled by default"}
	if !cfg.MetricsEnabled {
		d.Metrics.Reason = "OTEL_METRICS_ENABLED=false"
	}

	d.Logs = Decision{Enabled: cfg.LogsEnabled, Reason: "enabled by default"}
	if !cfg.LogsEnabled {
		d.Logs.Reason = "OTEL_LOGS_ENABLED=false"
	}

	if cfg.ProfilingURL != nil {
		d.Profiling = Decision{Enabled: true, Reason: fmt.Sprintf("profiling to %s", cfg.ProfilingURL)}
	} else {
		d.Profiling = Decision{Enabled: false, Reason: cfg.ProfilingDisabledReason}
	}

	if cfg.EndpointInvalidReason != "" {
		d.Warnings = append(d.Warnings, cfg.EndpointInvalidReason+
			"; exporting to local collector "+config.DefaultCollectorURL)
	}

	// Cloud endpoints require auth. At startup this is a warning, not a
	// refusal: the demo favors running services over correct telemetry.
	if config.IsCloud(cfg.Endpoint) {
		if _, ok := cfg.Headers["Authorization"]; !ok {
			d.Warnings = append(d.Warnings, fmt.Sprintf(
				"cloud endpoint %s configured without an Authorization header; exports will be rejected", cfg.Endpoint))
		}
	}
	if d.Profiling.Enabled && config.IsCloud(cfg.ProfilingURL) {
		if cfg.ProfilingAuth == nil || cfg.ProfilingAuth.User == "" || cfg.ProfilingAuth.Password == "" {
			d.Warnings = append(d.Warnings, fmt.Sprintf(
				"cloud profiling endpoint %s configured without basic-auth credentials; profiles will be rejected", cfg.ProfilingURL))
		}
	}

	return d
}
