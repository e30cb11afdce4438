// Package pipeline runs one document through normalization, chunked model
// extraction, deduplication and evidence validation.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hyperifyio/rosterscan/internal/candidate"
	"github.com/hyperifyio/rosterscan/internal/chunk"
	"github.com/hyperifyio/rosterscan/internal/evidence"
	"github.com/hyperifyio/rosterscan/internal/extract"
	"github.com/hyperifyio/rosterscan/internal/fetch"
	"github.com/hyperifyio/rosterscan/internal/normalize"
)

// SourceType says how Request.Content is interpreted.
type SourceType string

const (
	SourceText SourceType = "text"
	SourceURL  SourceType = "url"
)

const (
	DefaultConcurrency = 4
	minContentChars    = 10
)

// Fetcher retrieves a URL source.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, string, error)
}

// ChunkExtractor finds candidate records in one chunk of text.
type ChunkExtractor interface {
	Configured() bool
	ExtractChunk(ctx context.Context, text string, opts extract.Options) ([]candidate.Record, error)
}

// Pipeline is safe for concurrent use when its collaborators are.
type Pipeline struct {
	Fetcher       Fetcher
	Extractor     ChunkExtractor
	MaxChunkChars int
	Concurrency   int
	Logger        zerolog.Logger
}

// Request is one document to process.
type Request struct {
	Type    SourceType
	Content string
	// SpecialtyHint fills in records whose specialty the model left empty.
	SpecialtyHint *string
	// AllowedDegreesOnly defaults to true when nil.
	AllowedDegreesOnly *bool
}

// Result is the validated outcome of a Run.
type Result struct {
	Providers          []candidate.Record
	ProcessedLength    int
	SourceType         SourceType
	SpecialtyHint      *string
	AllowedDegreesOnly bool
	ChunkCount         int
	FailedChunks       int
}

// Run processes req. Input problems yield *InputError, unreachable URLs
// *FetchError, and a missing backend ErrNotConfigured. Individual chunk
// failures are logged and skipped.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	started := time.Now()
	if err := req.validate(); err != nil {
		return Result{}, err
	}
	requireDegree := req.AllowedDegreesOnly == nil || *req.AllowedDegreesOnly
	hint := candidate.StringPtr(deref(req.SpecialtyHint))

	var text string
	if req.Type == SourceText {
		t, err := prepare(req.Content)
		if err != nil {
			return Result{}, err
		}
		text = t
	}
	if p.Extractor == nil || !p.Extractor.Configured() {
		return Result{}, ErrNotConfigured
	}
	if req.Type == SourceURL {
		t, err := p.fetchText(ctx, strings.TrimSpace(req.Content))
		if err != nil {
			return Result{}, err
		}
		text = t
	}

	chunks := chunk.Split(text, p.MaxChunkChars)
	perChunk := make([][]candidate.Record, len(chunks))
	var failed int32
	opts := extract.Options{SpecialtyHint: deref(hint), RequireDegree: requireDegree}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency())
	for idx, c := range chunks {
		g.Go(func() error {
			recs, err := p.Extractor.ExtractChunk(gctx, c, opts)
			if err != nil {
				atomic.AddInt32(&failed, 1)
				p.Logger.Warn().Err(err).Int("chunk", idx).Int("chunk_len", len(c)).Msg("chunk extraction failed")
				return nil
			}
			perChunk[idx] = recs
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("extraction: %w", err)
	}

	var merged []candidate.Record
	for _, recs := range perChunk {
		merged = append(merged, recs...)
	}
	providers := evidence.Filter(evidence.Dedupe(merged), text, evidence.Options{RequireDegree: requireDegree})
	// Filter can fill in a training year, which may collide with a kept key.
	providers = evidence.Dedupe(providers)
	evidence.SortByName(providers)

	res := Result{
		Providers:          providers,
		ProcessedLength:    utf8.RuneCountInString(text),
		SourceType:         req.Type,
		SpecialtyHint:      hint,
		AllowedDegreesOnly: requireDegree,
		ChunkCount:         len(chunks),
		FailedChunks:       int(failed),
	}
	p.Logger.Info().
		Str("source_type", string(req.Type)).
		Int("processed_len", res.ProcessedLength).
		Int("chunks", res.ChunkCount).
		Int("failed_chunks", res.FailedChunks).
		Int("candidates", len(merged)).
		Int("providers", len(providers)).
		Dur("elapsed", time.Since(started)).
		Msg("document processed")
	return res, nil
}

func (p *Pipeline) concurrency() int {
	if p.Concurrency > 0 {
		return p.Concurrency
	}
	return DefaultConcurrency
}

func (p *Pipeline) fetchText(ctx context.Context, url string) (string, error) {
	f := p.Fetcher
	if f == nil {
		f = &fetch.Client{}
	}
	body, contentType, err := f.Get(ctx, url)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}
	var text string
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "text/plain") {
		text = normalize.Whitespace(string(body))
	} else {
		text = normalize.HTMLToText(string(body))
	}
	return prepare(text)
}

func (r Request) validate() error {
	switch r.Type {
	case SourceText, SourceURL:
	case "":
		return &InputError{Field: "type", Msg: "is required"}
	default:
		return &InputError{Field: "type", Msg: fmt.Sprintf("must be %q or %q", SourceText, SourceURL)}
	}
	if strings.TrimSpace(r.Content) == "" {
		return &InputError{Field: "content", Msg: "is required"}
	}
	return nil
}

// prepare applies chunk-boundary normalization and enforces the minimum
// content length.
func prepare(text string) (string, error) {
	text = normalize.ForChunking(text)
	if utf8.RuneCountInString(strings.TrimSpace(text)) < minContentChars {
		return "", &InputError{Field: "content", Msg: fmt.Sprintf("must contain at least %d characters of text", minContentChars)}
	}
	return text, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
