// Package logging provides the per-service logging facade.
//
// Every log call always writes a console line tagged with the service
// name and level. When a logs export pipeline is available, the same
// record is also emitted to it as a structured OTel log record through the
// otelzap bridge, with the attribute map merged under service.name.
//
// The facade's operations are total: they never return an error, never
// panic, and never block the caller on the export path. Console ordering
// matches call order; export ordering is batched and unspecified relative
// to the console.
package logging

import (
	"io"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	otellog "go.opentelemetry.io/otel/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger fans log records out to the console and, when enabled, the logs
// export pipeline.
type Logger struct {
	zap *zap.Logger
}

// Option configures New.
type Option func(*options)

type options struct {
	provider otellog.LoggerProvider
	level    zapcore.Level
	console  io.Writer
}

// WithLoggerProvider attaches the logs export pipeline. A nil provider
// leaves the logger console-only.
func WithLoggerProvider(lp otellog.LoggerProvider) Option {
	return func(o *options) { o.provider = lp }
}

// WithLevel sets the minimum level for both outputs. Defaults to info.
func WithLevel(level zapcore.Level) Option {
	return func(o *options) { o.level = level }
}

// WithConsoleWriter redirects console output. Used by tests.
func WithConsoleWriter(w io.Writer) Option {
	return func(o *options) { o.console = w }
}

// New builds the facade for a service. It cannot fail: any unusable
// option degrades to the console-only default.
func New(serviceName string, opts ...Option) *Logger {
	o := options{level: zapcore.InfoLevel, console: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderCfg.EncodeName = func(name string, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString("[" + name + "]")
	}

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderCfg),
			zapcore.AddSync(o.console),
			o.level,
		),
	}

	if o.provider != nil {
		cores = append(cores, otelzap.NewCore(serviceName,
			otelzap.WithLoggerProvider(o.provider),
		))
	}

	core := cores[0]
	if len(cores) > 1 {
		core = zapcore.NewTee(cores...)
	}

	return &Logger{
		zap: zap.New(core).Named(serviceName).With(zap.String("service.name", serviceName)),
	}
}

// Info logs at info level.
func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.zap.Info(msg, fields...)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.zap.Warn(msg, fields...)
}

// Error logs at error level.
func (l *Logger) Error(msg string, fields ...zap.Field) {
	l.zap.Error(msg, fields...)
}

// With returns a child logger carrying additional constant fields.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{zap: l.zap.With(fields...)}
}

// Underlying returns the wrapped zap.Logger for libraries that want one.
func (l *Logger) Underlying() *zap.Logger {
	return l.zap
}

// Sync flushes buffered console output. Sync errors on stdout are
// harmless and ignored by callers.
func (l *Logger) Sync() error {
	return l.zap.Sync()
}
