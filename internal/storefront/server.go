// Package storefront implements the second demo service: a thin front
// over the catalog service, reached through BACKEND_URL with an
// instrumented HTTP client so cross-service traces link up.
package storefront

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/beacon/internal/logging"
)

// ServiceName identifies this service in telemetry.
const ServiceName = "storefront"

// Server proxies product requests to the catalog backend. A backend
// failure surfaces as 502 after a single attempt; there are no retries.
type Server struct {
	echo       *echo.Echo
	backendURL string
	client     *http.Client
	log        *logging.Logger
}

// NewServer builds the storefront server against a catalog base URL.
func NewServer(backendURL string, log *logging.Logger) (*Server, error) {
	if backendURL == "" {
		return nil, fmt.Errorf("backend URL cannot be empty")
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

	s := &Server{
		echo:       e,
		backendURL: backendURL,
		// Propagates trace context to the catalog service.
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   10 * time.Second,
		},
		log: log,
	}

	e.GET("/health", s.handleHealth)
	e.GET("/products", s.handleListProducts)
	e.POST("/products", s.handleCreateProduct)

	return s, nil
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListProducts(c echo.Context) error {
	req, err := http.NewRequestWithContext(c.Request().Context(),
		http.MethodGet, s.backendURL+"/items", nil)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "building backend request")
	}
	return s.relay(c, req)
}

func (s *Server) handleCreateProduct(c echo.Context) error {
	req, err := http.NewRequestWithContext(c.Request().Context(),
		http.MethodPost, s.backendURL+"/items", c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "building backend request")
	}
	req.Header.Set("Content-Type", "application/json")
	return s.relay(c, req)
}

// relay performs the backend call once and mirrors its response. The
// backend's own verdict (including a 400) passes through untouched.
func (s *Server) relay(c echo.Context, req *http.Request) error {
	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Error("catalog backend unreachable", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "catalog backend unavailable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		s.log.Error("reading backend response", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "catalog backend unavailable")
	}

	return c.Blob(resp.StatusCode, resp.Header.Get("Content-Type"), body)
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
