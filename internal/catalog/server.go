package catalog

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/beacon/internal/logging"
)

// ServiceName identifies this service in telemetry.
const ServiceName = "catalog"

// Server serves the catalog HTTP API.
type Server struct {
	echo         *echo.Echo
	store        *Store
	log          *logging.Logger
	itemsCreated metric.Int64Counter
}

// NewServer builds the catalog server. The logger is required; requests
// are traced through the globally registered tracer provider.
func NewServer(store *Store, log *logging.Logger) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if log == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(otelecho.Middleware(ServiceName))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			log.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
			)
			return err
		}
	})

	// The globally registered meter provider; a no-op when metrics are
	// disabled, so instrument creation cannot fail meaningfully.
	itemsCreated, _ := otel.Meter(ServiceName).Int64Counter("catalog.items.created",
		metric.WithDescription("Items added to the catalog"))

	s := &Server{echo: e, store: store, log: log, itemsCreated: itemsCreated}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/items", s.handleList)
	s.echo.POST("/items", s.handleCreate)
}

// CreateItemRequest is the body for POST /items.
type CreateItemRequest struct {
	Name string `json:"name"`
}

// HealthResponse is the body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleList(c echo.Context) error {
	return c.JSON(http.StatusOK, s.store.List())
}

func (s *Server) handleCreate(c echo.Context) error {
	var req CreateItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Name) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	item := s.store.Add(req.Name)
	s.itemsCreated.Add(c.Request().Context(), 1)
	s.log.Info("item created", zap.String("id", item.ID), zap.String("name", item.Name))
	return c.JSON(http.StatusCreated, item)
}

// Start listens on addr until the context is canceled or the listener
// fails.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.echo.Shutdown(shutdownCtx)
	}
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
