// Package telemetry turns a resolved configuration snapshot into a running
// telemetry pipeline: traces, metrics, logs, and CPU profiles.
//
// The package has two layers. Decide is the capability gate: it inspects a
// config.Telemetry and produces a per-subsystem enabled/disabled decision
// with a human-readable reason, plus warnings for degraded-but-running
// setups (a cloud endpoint missing its auth header, for example). New is
// the pipeline initializer: given the same snapshot it constructs exactly
// one export pipeline per enabled subsystem and registers the providers
// globally so auto-instrumentation can discover them.
//
// A subsystem's pipeline handle exists if and only if its decision is
// enabled. Construction failures never crash the process; the affected
// subsystem degrades to disabled with its reason recorded.
package telemetry
