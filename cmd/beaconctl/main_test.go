package main

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OTEL_EXPORTER_OTLP_ENDPOINT",
		"OTEL_EXPORTER_OTLP_HEADERS",
		"OTEL_RESOURCE_ATTRIBUTES",
		"OTEL_SERVICE_NAME",
		"PYROSCOPE_URL",
		"PYROSCOPE_BASIC_AUTH_USER",
		"PYROSCOPE_BASIC_AUTH_PASSWORD",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestValidateLocalSetupPasses(t *testing.T) {
	clearEnv(t)

	out, err := execute(t, "validate", "--env-file", "")
	require.NoError(t, err, "local-only setups are valid: every backend skips")
	assert.Contains(t, out, "skip")
}

func TestValidateFailsOnCloudWithoutAuth(t *testing.T) {
	clearEnv(t)
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otlp-gateway-prod.grafana.net")

	out, err := execute(t, "validate", "--env-file", "")
	assert.Error(t, err, "cloud endpoint without Authorization is a hard preflight failure")
	assert.Contains(t, out, "FAIL")
}

func TestInspectAlwaysSucceeds(t *testing.T) {
	t.Run("with no configuration", func(t *testing.T) {
		clearEnv(t)

		out, err := execute(t, "inspect", "--env-file", "")
		require.NoError(t, err)
		assert.Contains(t, out, "local collector")
	})

	t.Run("warns but still exits zero", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otlp-gateway-prod.grafana.net")

		out, err := execute(t, "inspect", "--env-file", "")
		require.NoError(t, err, "inspect never fails; warnings are advisory")
		assert.Contains(t, out, "warning:")
	})

	t.Run("redacts header values", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otlp-gateway-prod.grafana.net")
		t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "Authorization=Basic supersecretvalue")

		out, err := execute(t, "inspect", "--env-file", "")
		require.NoError(t, err)
		assert.NotContains(t, out, "supersecretvalue")
		assert.Contains(t, out, "****")
	})
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "****", redact("abc"))
	assert.Equal(t, "Basi****", redact("Basic longsecret"))
}
