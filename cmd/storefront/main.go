// Package main runs the storefront demo service, a thin front over the
// catalog service reached through BACKEND_URL.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/beacon/internal/config"
	"github.com/fyrsmithlabs/beacon/internal/logging"
	"github.com/fyrsmithlabs/beacon/internal/storefront"
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

	cfg, err := config.Resolve(storefront.ServiceName, ".env")
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

	for _, w := range tel.Decisions().Warnings {
		log.Warn(w)
	}

	backendURL := config.BackendURL("http://localhost:3000")
	srv, err := storefront.NewServer(backendURL, log)
	if err != nil {
		return fmt.Errorf("building server: %w", err)
	}

	addr := fmt.Sprintf(":%d", config.ServicePort(3001))
	log.Info("service listening",
		zap.String("addr", addr),
		zap.String("backend", backendURL),
	)
	return srv.Start(ctx, addr)
}
