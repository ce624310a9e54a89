// Package server assembles the echo HTTP surface.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/middleware"
	aliasroutes "github.com/Muahhidun/poster-helper-bot-sub000/pkg/routes/alias"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/routes/health"
	matchroutes "github.com/Muahhidun/poster-helper-bot-sub000/pkg/routes/match"
	syncroutes "github.com/Muahhidun/poster-helper-bot-sub000/pkg/routes/sync"
)

// Validator adapts go-playground validation to echo
type Validator struct {
	validate *validator.Validate
}

func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// Config holds HTTP server configuration
type Config struct {
	AppName string
	Port    int
}

// Server is the HTTP surface, started and stopped through the startup
// lifecycle.
type Server struct {
	echo    *echo.Echo
	logger  ectologger.Logger
	config  Config
	checker *health.Checker
}

// New builds the echo instance with middleware and routes registered.
func New(config Config, logger ectologger.Logger, checker *health.Checker) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &Validator{validate: validator.New()}
	e.HTTPErrorHandler = middleware.Error(logger)

	e.Use(otelecho.Middleware(config.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	checker.RegisterRoutes(e)

	api := e.Group("/api/v1")
	matchroutes.Register(api.Group("/match"))
	aliasroutes.Register(api.Group("/aliases"))
	syncroutes.Register(api.Group("/sync"))

	return &Server{
		echo:    e,
		logger:  logger,
		config:  config,
		checker: checker,
	}
}

// Echo exposes the underlying echo instance for middleware added by the
// composition root (request-scoped dependency injection).
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) GetName() string {
	return "http_server"
}

func (s *Server) DependsOn() []string {
	return nil
}

// Start begins serving. Listening happens on a goroutine so the startup
// sequence can continue; a bind failure surfaces in logs, not here.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		addr := fmt.Sprintf(":%d", s.config.Port)
		if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("HTTP server stopped unexpectedly")
		}
	}()
	s.checker.SetReady(true)
	s.logger.WithFields(map[string]any{"port": s.config.Port}).Info("HTTP server started")
	return nil
}

// Stop shuts the server down gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.checker.SetReady(false)
	return s.echo.Shutdown(ctx)
}
