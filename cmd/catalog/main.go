// Package main runs the catalog demo service: an in-memory item list
// served over HTTP, bootstrapped through the beacon telemetry pipeline.
//
// Usage:
//
//	OTEL_EXPORTER_OTLP_ENDPOINT=https://otlp-gateway-prod.grafana.net \
//	OTEL_EXPORTER_OTLP_HEADERS="Authorization=Basic ..." \
//	PORT=3000 ./catalog
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/beacon/internal/catalog"
	"github.com/fyrsmithlabs/beacon/internal/config"
	"github.com/fyrsmithlabs/beacon/internal/logging"
	"github.com/fyrsmithlabs/beacon/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Resolve(catalog.ServiceName, ".env")
	if err != nil {
		return fmt.Errorf("resolving configuration: %w", err)
	}

	tel, err := telemetry.New(ctx, cfg, telemetry.WithSourceDirs("internal", "cmd"))
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() { _ = tel.Shutdown(context.Background()) }()

	log := logging.New(cfg.ServiceName,
		logging.WithLoggerProvider(tel.LoggerProvider()),
		logging.WithLevel(cfg.LogLevel),
	)
	defer func() { _ = log.Sync() }()

	logDecisions(log, tel.Decisions(), cfg.Debug)

	srv, err := catalog.NewServer(catalog.NewStore(), log)
	if err != nil {
		return fmt.Errorf("building server: %w", err)
	}

	addr := fmt.Sprintf(":%d", config.ServicePort(3000))
	log.Info("service listening", zap.String("addr", addr))
	return srv.Start(ctx, addr)
}

// logDecisions surfaces the capability gate's verdicts. Warnings are
// degraded-but-running conditions and always shown; per-subsystem reasons
// only when DEBUG asks for them.
func logDecisions(log *logging.Logger, d telemetry.Decisions, debug bool) {
	for _, w := range d.Warnings {
		log.Warn(w)
	}
	if !debug {
		return
	}
	log.Info("tracing", zap.Bool("enabled", d.Tracing.Enabled), zap.String("reason", d.Tracing.Reason))
	log.Info("metrics", zap.Bool("enabled", d.Metrics.Enabled), zap.String("reason", d.Metrics.Reason))
	log.Info("logs", zap.Bool("enabled", d.Logs.Enabled), zap.String("reason", d.Logs.Reason))
	log.Info("profiling", zap.Bool("enabled", d.Profiling.Enabled), zap.String("reason", d.Profiling.Reason))
}
