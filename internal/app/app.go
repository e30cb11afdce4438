package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hyperifyio/rosterscan/internal/api"
	"github.com/hyperifyio/rosterscan/internal/cache"
	"github.com/hyperifyio/rosterscan/internal/extract"
	"github.com/hyperifyio/rosterscan/internal/fetch"
	"github.com/hyperifyio/rosterscan/internal/llm"
	"github.com/hyperifyio/rosterscan/internal/pipeline"
	"github.com/hyperifyio/rosterscan/internal/robots"
)

const (
	preflightTimeout = 5 * time.Second
	shutdownTimeout  = 10 * time.Second
)

// App wires configuration into the extraction pipeline and its HTTP surface.
type App struct {
	cfg      Config
	logger   zerolog.Logger
	provider *llm.OpenAIProvider
	pipeline *pipeline.Pipeline
}

// New builds an App from cfg. A missing model is not an error: the App
// starts and every extraction reports that the backend is not configured.
func New(ctx context.Context, cfg Config, logger zerolog.Logger) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, logger: logger}

	var llmCache *cache.LLMCache
	if cfg.CacheDir != "" {
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				logger.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		if cfg.CacheMaxAge > 0 {
			// Purge errors only cost cache hits; startup continues.
			if n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge); err != nil {
				logger.Warn().Err(err).Msg("cache purge failed")
			} else if n > 0 {
				logger.Info().Int("removed", n).Msg("purged stale cache entries")
			}
		}
		llmCache = &cache.LLMCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
	}

	ex := &extract.Extractor{
		Model:        cfg.LLMModel,
		MaxRecords:   cfg.MaxRecords,
		MaxTokens:    cfg.LLMMaxTokens,
		Timeout:      cfg.LLMTimeout,
		Cache:        llmCache,
		SystemPrompt: cfg.SystemPrompt,
	}
	if cfg.LLMConfigured() {
		a.provider = llm.New(cfg.LLMBaseURL, cfg.LLMAPIKey, newHighThroughputHTTPClient(cfg.LLMTimeout, cfg.LLMSSLVerify))
		ex.Client = a.provider
		a.preflight(ctx)
	} else {
		logger.Warn().Msg("LLM not configured; extraction requests will be rejected")
	}

	f := &fetch.Client{
		HTTPClient:        newHighThroughputHTTPClient(cfg.FetchTimeout, true),
		UserAgent:         cfg.FetchUserAgent,
		PerRequestTimeout: cfg.FetchTimeout,
		MaxBodyBytes:      cfg.FetchMaxBytes,
		RedirectMaxHops:   5,
		MaxConcurrent:     8,
	}
	if cfg.FetchRespectRobots {
		f.Robots = &robots.Checker{HTTPClient: f.HTTPClient}
	}

	a.pipeline = &pipeline.Pipeline{
		Fetcher:       f,
		Extractor:     ex,
		MaxChunkChars: cfg.ChunkMaxChars,
		Concurrency:   cfg.ChunkConcurrency,
		Logger:        logger,
	}
	return a, nil
}

// preflight lists models as a connectivity check. It never fails New: an
// unreachable backend surfaces per request instead.
func (a *App) preflight(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, preflightTimeout)
	defer cancel()
	models, err := a.provider.ListModels(ctx)
	if err != nil {
		a.logger.Warn().Err(err).Msg("LLM model list failed; continuing")
		return
	}
	if len(models.Models) == 0 {
		a.logger.Warn().Msg("LLM returned zero models")
		return
	}
	found := false
	for _, m := range models.Models {
		if m.ID == a.cfg.LLMModel {
			found = true
			break
		}
	}
	a.logger.Info().Int("count", len(models.Models)).Bool("model_listed", found).Str("model", a.cfg.LLMModel).Msg("LLM models available")
}

// Extract runs one request through the pipeline.
func (a *App) Extract(ctx context.Context, req pipeline.Request) (pipeline.Result, error) {
	return a.pipeline.Run(ctx, req)
}

// Server returns the configured echo instance.
func (a *App) Server() *echo.Echo {
	return api.NewServer(a.pipeline, api.ServerConfig{
		CORSOrigins:    a.cfg.CORSOrigins,
		BodyLimit:      a.cfg.BodyLimit,
		RequestTimeout: a.cfg.RequestTimeout,
	}, a.logger)
}

// Serve listens on cfg.ListenAddr until ctx is done, then drains in-flight
// requests.
func (a *App) Serve(ctx context.Context) error {
	e := a.Server()
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", a.cfg.ListenAddr).Str("version", BuildVersion).Msg("listening")
		errCh <- e.Start(a.cfg.ListenAddr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.logger.Info().Msg("shutting down")
	if err := e.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
