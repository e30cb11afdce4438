package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

// ServerConfig tunes the HTTP surface.
type ServerConfig struct {
	CORSOrigins    []string
	BodyLimit      string
	RequestTimeout time.Duration
}

// NewServer builds the echo instance with middleware and routes.
func NewServer(runner Runner, cfg ServerConfig, logger zerolog.Logger) *echo.Echo {
	h := &Handler{Pipeline: runner, Logger: logger}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = h.ErrorHandler

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	limit := cfg.BodyLimit
	if limit == "" {
		limit = "2M"
	}

	e.Use(RequestID())
	e.Use(Logger(logger))
	e.Use(Recovery(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Client-Info", "Apikey", headerRequestID},
	}))
	e.Use(echomw.BodyLimit(limit))
	e.Use(RequestTimeout(cfg.RequestTimeout))

	h.Register(e)
	return e
}
