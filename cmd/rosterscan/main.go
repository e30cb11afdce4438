package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hyperifyio/rosterscan/internal/app"
	"github.com/hyperifyio/rosterscan/internal/candidate"
	"github.com/hyperifyio/rosterscan/internal/normalize"
	"github.com/hyperifyio/rosterscan/internal/pipeline"
	"github.com/hyperifyio/rosterscan/internal/report"
)

// errNoProviders maps to exit code 2: the run worked but found nobody.
var errNoProviders = errors.New("no providers found")

type globalFlags struct {
	configPath string
	envFiles   []string
	verbose    bool
	pretty     bool
	llmBase    string
	llmModel   string
	llmKey     string
	cacheDir   string
}

type extractFlags struct {
	url            string
	file           string
	specialty      string
	allowAnyDegree bool
	pdfPath        string
	outPath        string
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		if errors.Is(err, errNoProviders) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "rosterscan",
		Short:         "Extract resident and fellow rosters from program pages",
		Version:       fmt.Sprintf("%s (%s, %s)", app.BuildVersion, app.BuildCommit, app.BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "Path to YAML or JSON config file")
	pf.StringSliceVar(&g.envFiles, "env-file", []string{".env"}, "Dotenv files to load; later files override earlier ones")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "Verbose logging")
	pf.BoolVar(&g.pretty, "pretty", false, "Human-readable console logs for serve")
	pf.StringVar(&g.llmBase, "llm.base", "", "OpenAI-compatible base URL")
	pf.StringVar(&g.llmModel, "llm.model", "", "Model name")
	pf.StringVar(&g.llmKey, "llm.key", "", "API key for the model server")
	pf.StringVar(&g.cacheDir, "cache.dir", "", "Directory for cached model responses (empty disables)")

	root.AddCommand(serveCmd(g))
	root.AddCommand(extractCmd(g))
	return root
}

// resolveConfig loads dotenv files, the config file and env, then applies
// only the flags the user actually set.
func resolveConfig(cmd *cobra.Command, g *globalFlags) (app.Config, error) {
	if err := app.LoadEnvFiles(g.envFiles...); err != nil {
		return app.Config{}, fmt.Errorf("load env files: %w", err)
	}
	cfg, err := app.LoadConfig(g.configPath)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("llm.base") {
		cfg.LLMBaseURL = g.llmBase
	}
	if flags.Changed("llm.model") {
		cfg.LLMModel = g.llmModel
	}
	if flags.Changed("llm.key") {
		cfg.LLMAPIKey = g.llmKey
	}
	if flags.Changed("cache.dir") {
		cfg.CacheDir = g.cacheDir
	}
	if flags.Changed("verbose") {
		cfg.Verbose = g.verbose
	}
	return cfg, app.ValidateConfig(cfg)
}

// newLogger writes JSON unless console output is requested. The level is
// global, as the rest of the process logs through the same zerolog setup.
func newLogger(out io.Writer, console, verbose bool) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	if console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	logger := zerolog.New(out).With().Timestamp().Logger()
	log.Logger = logger
	return logger
}

func serveCmd(g *globalFlags) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the extraction HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, g)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				cfg.ListenAddr = listen
			}
			logger := newLogger(os.Stdout, g.pretty, cfg.Verbose)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, logger)
			if err != nil {
				logger.Error().Err(err).Msg("init failed")
				return fmt.Errorf("init app: %w", err)
			}
			if err := a.Serve(ctx); err != nil {
				logger.Error().Err(err).Msg("server stopped")
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address, e.g. :8080")
	return cmd
}

func extractCmd(g *globalFlags) *cobra.Command {
	x := &extractFlags{}
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract a roster from one URL or file and print JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, g)
			if err != nil {
				return err
			}
			logger := newLogger(os.Stderr, true, cfg.Verbose)
			err = runExtract(cmd.Context(), cfg, logger, *x, cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil && !errors.Is(err, errNoProviders) {
				log.Error().Err(err).Msg("extract failed")
			}
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&x.url, "url", "", "Roster page URL")
	f.StringVar(&x.file, "file", "", "Text or HTML file to read; '-' reads stdin")
	f.StringVar(&x.specialty, "specialty", "", "Specialty used when a record has none")
	f.BoolVar(&x.allowAnyDegree, "allow-any-degree", false, "Keep records without an MD, DO or MBBS credential nearby")
	f.StringVar(&x.pdfPath, "pdf", "", "Also write the roster as a PDF to this path")
	f.StringVar(&x.outPath, "out", "", "Write JSON to this path instead of stdout")
	return cmd
}

type extractOutput struct {
	Providers          []candidate.Record `json:"providers"`
	ProcessedLength    int                `json:"processedLength"`
	SourceType         string             `json:"sourceType"`
	SpecialtyHint      *string            `json:"specialtyHint"`
	AllowedDegreesOnly bool               `json:"allowedDegreesOnly"`
	ChunkCount         int                `json:"chunkCount"`
	FailedChunks       int                `json:"failedChunks"`
}

func runExtract(ctx context.Context, cfg app.Config, logger zerolog.Logger, x extractFlags, stdin io.Reader, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	req, title, err := buildRequest(x, stdin)
	if err != nil {
		return err
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}

	res, err := a.Extract(ctx, req)
	if err != nil {
		return err
	}
	providers := res.Providers
	if providers == nil {
		providers = []candidate.Record{}
	}
	b, err := json.MarshalIndent(extractOutput{
		Providers:          providers,
		ProcessedLength:    res.ProcessedLength,
		SourceType:         string(res.SourceType),
		SpecialtyHint:      res.SpecialtyHint,
		AllowedDegreesOnly: res.AllowedDegreesOnly,
		ChunkCount:         res.ChunkCount,
		FailedChunks:       res.FailedChunks,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	b = append(b, '\n')
	if x.outPath != "" {
		if err := os.WriteFile(x.outPath, b, 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		logger.Info().Str("out", x.outPath).Int("providers", len(providers)).Msg("wrote roster")
	} else if _, err := stdout.Write(b); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	if x.pdfPath != "" {
		if err := report.WriteRosterPDF(x.pdfPath, title, providers); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
		logger.Info().Str("pdf", x.pdfPath).Msg("wrote roster pdf")
	}
	if len(providers) == 0 {
		return errNoProviders
	}
	return nil
}

// buildRequest turns the source flags into a pipeline request and a title
// for the PDF.
func buildRequest(x extractFlags, stdin io.Reader) (pipeline.Request, string, error) {
	hasURL := strings.TrimSpace(x.url) != ""
	hasFile := strings.TrimSpace(x.file) != ""
	if hasURL == hasFile {
		return pipeline.Request{}, "", errors.New("exactly one of --url or --file is required")
	}
	requireDegree := !x.allowAnyDegree
	req := pipeline.Request{AllowedDegreesOnly: &requireDegree}
	if s := strings.TrimSpace(x.specialty); s != "" {
		req.SpecialtyHint = &s
	}
	if hasURL {
		req.Type = pipeline.SourceURL
		req.Content = strings.TrimSpace(x.url)
		return req, "Roster: " + req.Content, nil
	}

	var (
		b   []byte
		err error
	)
	if x.file == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(x.file)
	}
	if err != nil {
		return pipeline.Request{}, "", fmt.Errorf("read input: %w", err)
	}
	req.Type = pipeline.SourceText
	req.Content = string(b)
	if ext := strings.ToLower(filepath.Ext(x.file)); ext == ".html" || ext == ".htm" {
		req.Content = normalize.HTMLToText(req.Content)
	}
	return req, "Roster: " + x.file, nil
}
