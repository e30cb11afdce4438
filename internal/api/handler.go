// Package api exposes the extraction pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hyperifyio/rosterscan/internal/candidate"
	"github.com/hyperifyio/rosterscan/internal/pipeline"
)

// Runner processes one extraction request.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// Handler serves the extraction endpoints.
type Handler struct {
	Pipeline Runner
	Logger   zerolog.Logger
	// Now is used for error timestamps; nil means time.Now.
	Now func() time.Time
}

type extractRequest struct {
	Type               string  `json:"type"`
	Content            string  `json:"content"`
	SpecialtyHint      *string `json:"specialtyHint"`
	AllowedDegreesOnly *bool   `json:"allowedDegreesOnly"`
}

type extractResponse struct {
	Success            bool               `json:"success"`
	Providers          []candidate.Record `json:"providers"`
	ProcessedLength    int                `json:"processedLength"`
	SourceType         string             `json:"sourceType"`
	SpecialtyHint      *string            `json:"specialtyHint"`
	AllowedDegreesOnly bool               `json:"allowedDegreesOnly"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Details   string `json:"details"`
	Timestamp string `json:"timestamp"`
}

// Register mounts the handler's routes on e.
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	e.POST("/api/v1/extract", h.Extract)
	e.POST("/extract-providers", h.Extract)
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Extract handles POST /api/v1/extract.
func (h *Handler) Extract(c echo.Context) error {
	var in extractRequest
	dec := json.NewDecoder(c.Request().Body)
	if err := dec.Decode(&in); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		if errors.Is(err, io.EOF) {
			return h.fail(c, http.StatusBadRequest, "Invalid request", "request body is required")
		}
		return h.fail(c, http.StatusBadRequest, "Invalid request", "body must be a JSON object: "+err.Error())
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		return h.fail(c, http.StatusBadRequest, "Invalid request", "body must hold a single JSON object")
	}

	res, err := h.Pipeline.Run(c.Request().Context(), pipeline.Request{
		Type:               pipeline.SourceType(in.Type),
		Content:            in.Content,
		SpecialtyHint:      in.SpecialtyHint,
		AllowedDegreesOnly: in.AllowedDegreesOnly,
	})
	if err != nil {
		return h.failFor(c, err)
	}

	providers := res.Providers
	if providers == nil {
		providers = []candidate.Record{}
	}
	return c.JSON(http.StatusOK, extractResponse{
		Success:            true,
		Providers:          providers,
		ProcessedLength:    res.ProcessedLength,
		SourceType:         string(res.SourceType),
		SpecialtyHint:      res.SpecialtyHint,
		AllowedDegreesOnly: res.AllowedDegreesOnly,
	})
}

func (h *Handler) failFor(c echo.Context, err error) error {
	var (
		inErr    *pipeline.InputError
		fetchErr *pipeline.FetchError
	)
	switch {
	case errors.As(err, &inErr):
		return h.fail(c, http.StatusBadRequest, "Invalid request", inErr.Error())
	case errors.As(err, &fetchErr):
		return h.fail(c, http.StatusBadRequest, "Failed to fetch URL", fetchErr.Error())
	case errors.Is(err, pipeline.ErrNotConfigured):
		return h.fail(c, http.StatusBadRequest, "Extraction not configured", "no language model is configured on the server")
	case errors.Is(err, context.DeadlineExceeded):
		h.Logger.Error().Err(err).Str("request_id", requestID(c)).Msg("extraction timed out")
		return h.fail(c, http.StatusInternalServerError, "Internal server error", "processing timed out")
	default:
		h.Logger.Error().Err(err).Str("request_id", requestID(c)).Msg("extraction failed")
		return h.fail(c, http.StatusInternalServerError, "Internal server error", "unexpected error, request id "+requestID(c))
	}
}

func (h *Handler) fail(c echo.Context, status int, msg, details string) error {
	return c.JSON(status, errorResponse{Error: msg, Details: details, Timestamp: h.timestamp()})
}

func (h *Handler) timestamp() string {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	return now().UTC().Format(time.RFC3339)
}

// ErrorHandler renders errors that escape handlers, such as unknown routes,
// oversized bodies and recovered panics, in the same shape as Extract.
func (h *Handler) ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	msg := "Internal server error"
	details := "unexpected error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		msg = http.StatusText(status)
		if m, ok := he.Message.(string); ok {
			details = m
		}
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = h.fail(c, status, msg, details)
}
