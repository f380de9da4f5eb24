package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type captureLogExporter struct {
	records []sdklog.Record
}

func (c *captureLogExporter) Export(_ context.Context, recs []sdklog.Record) error {
	c.records = append(c.records, recs...)
	return nil
}
func (c *captureLogExporter) ForceFlush(context.Context) error { return nil }
func (c *captureLogExporter) Shutdown(context.Context) error   { return nil }

func TestConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New("catalog", WithConsoleWriter(&buf))

	log.Info("service listening", zap.Int("port", 3000))
	log.Warn("degraded")
	log.Error("boom")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	assert.Contains(t, lines[0], "[catalog]")
	assert.Contains(t, lines[0], "INFO")
	assert.Contains(t, lines[0], "service listening")
	assert.Contains(t, lines[1], "WARN")
	assert.Contains(t, lines[2], "ERROR")
}

func TestConsoleOrderingMatchesCallOrder(t *testing.T) {
	var buf bytes.Buffer
	log := New("catalog", WithConsoleWriter(&buf))

	for _, msg := range []string{"first", "second", "third"} {
		log.Info(msg)
	}

	out := buf.String()
	assert.Less(t, strings.Index(out, "first"), strings.Index(out, "second"))
	assert.Less(t, strings.Index(out, "second"), strings.Index(out, "third"))
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New("catalog", WithConsoleWriter(&buf), WithLevel(zapcore.WarnLevel))

	log.Info("hidden")
	log.Warn("visible")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "visible")
}

func TestFanOutToLogsPipeline(t *testing.T) {
	exp := &captureLogExporter{}
	lp := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewSimpleProcessor(exp)),
	)
	t.Cleanup(func() { _ = lp.Shutdown(context.Background()) })

	var buf bytes.Buffer
	log := New("catalog", WithConsoleWriter(&buf), WithLoggerProvider(lp))

	log.Warn("item rejected", zap.String("reason", "missing name"))

	require.Len(t, exp.records, 1)
	rec := exp.records[0]
	assert.Equal(t, "item rejected", rec.Body().AsString())
	assert.Equal(t, otellog.SeverityWarn, rec.Severity())
	assert.True(t, strings.EqualFold(rec.SeverityText(), "warn"))

	attrs := map[string]string{}
	rec.WalkAttributes(func(kv otellog.KeyValue) bool {
		attrs[kv.Key] = kv.Value.AsString()
		return true
	})
	assert.Equal(t, "missing name", attrs["reason"])
	assert.Equal(t, "catalog", attrs["service.name"], "attribute map merged with service identity")

	assert.Contains(t, buf.String(), "item rejected", "console line always written")
}

func TestConsoleOnlyWhenNoProvider(t *testing.T) {
	var buf bytes.Buffer
	log := New("catalog", WithConsoleWriter(&buf))

	// Must not panic and must still write the console line.
	assert.NotPanics(t, func() { log.Error("export path absent") })
	assert.Contains(t, buf.String(), "export path absent")
}

func TestChildLoggerCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	log := New("catalog", WithConsoleWriter(&buf)).With(zap.String("request_id", "r-1"))

	log.Info("handled")
	assert.Contains(t, buf.String(), "r-1")
}
