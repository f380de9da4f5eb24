package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/beacon/internal/config"
)

func baseConfig(t *testing.T) *config.Telemetry {
	t.Helper()
	return &config.Telemetry{
		Headers:            map[string]string{},
		ResourceAttributes: map[string]string{"service.name": "catalog"},
		Protocol:           "http/protobuf",
		ServiceName:        "catalog",
		SpanProcessor:      config.SpanProcessorBatch,
		MetricsEnabled:     true,
		LogsEnabled:        true,
	}
}

func TestDecideDefaults(t *testing.T) {
	d := Decide(baseConfig(t))

	assert.True(t, d.Tracing.Enabled, "tracing is always enabled")
	assert.Contains(t, d.Tracing.Reason, "local collector")
	assert.True(t, d.Metrics.Enabled)
	assert.True(t, d.Logs.Enabled)
	assert.False(t, d.Profiling.Enabled)
	assert.Empty(t, d.Warnings)
}

func TestDecideDisabledFlags(t *testing.T) {
	cfg := baseConfig(t)
	cfg.MetricsEnabled = false
	cfg.LogsEnabled = false

	d := Decide(cfg)
	assert.True(t, d.Tracing.Enabled)
	assert.False(t, d.Metrics.Enabled)
	assert.Equal(t, "OTEL_METRICS_ENABLED=false", d.Metrics.Reason)
	assert.False(t, d.Logs.Enabled)
	assert.Equal(t, "OTEL_LOGS_ENABLED=false", d.Logs.Reason)
}

func TestDecideProfiling(t *testing.T) {
	t.Run("disabled carries the resolver's reason", func(t *testing.T) {
		cfg := baseConfig(t)
		cfg.ProfilingDisabledReason = "PYROSCOPE_URL is not set"

		d := Decide(cfg)
		assert.False(t, d.Profiling.Enabled)
		assert.Equal(t, "PYROSCOPE_URL is not set", d.Profiling.Reason)
	})

	t.Run("enabled when a URL is configured", func(t *testing.T) {
		cfg := baseConfig(t)
		u, err := config.NormalizeEndpoint("http://localhost:4040")
		require.NoError(t, err)
		cfg.ProfilingURL = u

		d := Decide(cfg)
		assert.True(t, d.Profiling.Enabled)
		assert.Empty(t, d.Warnings, "local profiling needs no credentials")
	})
}

func TestDecideInvalidEndpointWarns(t *testing.T) {
	cfg := baseConfig(t)
	cfg.EndpointInvalidReason = "OTEL_EXPORTER_OTLP_ENDPOINT is not a valid URL: bad scheme"

	d := Decide(cfg)
	assert.True(t, d.Tracing.Enabled, "tracing keeps running against the local collector")
	require.Len(t, d.Warnings, 1)
	assert.Contains(t, d.Warnings[0], "local collector")
}

func TestDecideCloudWarnings(t *testing.T) {
	t.Run("cloud tracing endpoint without Authorization warns", func(t *testing.T) {
		cfg := baseConfig(t)
		u, err := config.NormalizeEndpoint("otlp-gateway-prod.grafana.net")
		require.NoError(t, err)
		cfg.Endpoint = u

		d := Decide(cfg)
		assert.True(t, d.Tracing.Enabled, "startup degrades, never refuses")
		require.Len(t, d.Warnings, 1)
		assert.Contains(t, d.Warnings[0], "Authorization")
	})

	t.Run("cloud tracing endpoint with Authorization does not warn", func(t *testing.T) {
		cfg := baseConfig(t)
		u, err := config.NormalizeEndpoint("otlp-gateway-prod.grafana.net")
		require.NoError(t, err)
		cfg.Endpoint = u
		cfg.Headers["Authorization"] = "Basic abc"

		d := Decide(cfg)
		assert.Empty(t, d.Warnings)
	})

	t.Run("cloud profiling endpoint without credentials warns", func(t *testing.T) {
		cfg := baseConfig(t)
		u, err := config.NormalizeEndpoint("profiles-prod.grafana.net")
		require.NoError(t, err)
		cfg.ProfilingURL = u

		d := Decide(cfg)
		assert.True(t, d.Profiling.Enabled)
		require.Len(t, d.Warnings, 1)
		assert.Contains(t, d.Warnings[0], "basic-auth")
	})

	t.Run("cloud profiling endpoint with credentials does not warn", func(t *testing.T) {
		cfg := baseConfig(t)
		u, err := config.NormalizeEndpoint("profiles-prod.grafana.net")
		require.NoError(t, err)
		cfg.ProfilingURL = u
		cfg.ProfilingAuth = &config.BasicAuth{User: "123", Password: "glc_x"}

		d := Decide(cfg)
		assert.Empty(t, d.Warnings)
	})
}
