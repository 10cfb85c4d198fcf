package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spacesedan/sentiment-api/config"
	"github.com/spacesedan/sentiment-api/internal/models"
	"github.com/spacesedan/sentiment-api/internal/monitoring"
)

type analyzer interface {
	Analyze(ctx context.Context, text string) (models.AnalyzeResponse, error)
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	analyzer   analyzer
	classifier monitoring.ClassifierProbe
	registry   *prometheus.Registry
}

// NewServer wires the HTTP routes. classifier is the same instance the
// analyzer uses; it backs the readiness probe.
func NewServer(cfg *config.Config, analyzer analyzer, classifier monitoring.ClassifierProbe, registry *prometheus.Registry) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:       e,
		config:     cfg,
		analyzer:   analyzer,
		classifier: classifier,
		registry:   registry,
	}

	e.HTTPErrorHandler = srv.handleError
	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("[Server] Starting server", slog.String("port", s.config.Port))
	if err := s.echo.Start(":" + s.config.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// ServeHTTP lets the server be driven directly, e.g. by httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
