// Package extract turns one chunk of roster text into candidate records by
// asking a chat model for strict JSON and validating what comes back.
package extract

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/rosterscan/internal/budget"
	"github.com/hyperifyio/rosterscan/internal/cache"
	"github.com/hyperifyio/rosterscan/internal/candidate"
	"github.com/hyperifyio/rosterscan/internal/chunk"
	"github.com/hyperifyio/rosterscan/internal/llm"
)

const (
	DefaultMaxRecords = 20
	DefaultMaxTokens  = 4000
)

// ErrNotConfigured is returned when no model client or model name is set.
var ErrNotConfigured = errors.New("extractor not configured")

// Options tune a single extraction call.
type Options struct {
	SpecialtyHint string
	RequireDegree bool
}

// Extractor calls an OpenAI-compatible chat model once per chunk.
type Extractor struct {
	Client     llm.Client
	Model      string
	MaxRecords int
	// MaxTokens is the wanted response ceiling before budget clamping.
	MaxTokens int
	// Timeout bounds each model call. Zero leaves the caller's deadline alone.
	Timeout time.Duration
	Cache   *cache.LLMCache
	// SystemPrompt overrides the built-in system message when non-empty.
	SystemPrompt string
}

// Configured reports whether e can make model calls.
func (e *Extractor) Configured() bool {
	return e != nil && e.Client != nil && strings.TrimSpace(e.Model) != ""
}

// ExtractChunk returns the trainee records the model finds in text. Chunks
// with too little content are skipped without a model call. Malformed model
// output yields a *ParseError.
func (e *Extractor) ExtractChunk(ctx context.Context, text string, opts Options) ([]candidate.Record, error) {
	if !e.Configured() {
		return nil, ErrNotConfigured
	}
	if !chunk.Meaningful(text) {
		return nil, nil
	}
	limit := e.MaxRecords
	if limit <= 0 {
		limit = DefaultMaxRecords
	}
	system := e.systemMessage()
	user := buildUserPrompt(text, opts, limit)
	key := cache.KeyFrom(e.Model, system+"\n\n"+user)

	if e.Cache != nil {
		if raw, ok, _ := e.Cache.Get(ctx, key); ok {
			if recs, err := parseProviders(raw); err == nil {
				log.Debug().Str("stage", "extract").Bool("cache_hit", true).Msg("extract cache hit")
				return finalize(recs, opts, limit), nil
			}
		}
	}

	raw, err := e.complete(ctx, system, user)
	if err != nil {
		return nil, err
	}
	recs, err := parseProviders(raw)
	if err != nil {
		return nil, err
	}
	if e.Cache != nil {
		_ = e.Cache.Save(ctx, key, e.Model, raw)
	}
	return finalize(recs, opts, limit), nil
}

func (e *Extractor) systemMessage() string {
	if s := strings.TrimSpace(e.SystemPrompt); s != "" {
		return s
	}
	return systemMessage
}

func (e *Extractor) complete(ctx context.Context, system, user string) (string, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}
	want := e.MaxTokens
	if want <= 0 {
		want = DefaultMaxTokens
	}
	maxTokens := budget.OutputCeiling(e.Model, budget.EstimatePromptTokens(system, user), want)
	// Log prompt skeleton only; never the page text
	log.Debug().Str("stage", "extract").Str("model", e.Model).Int("system_len", len(system)).Int("user_len", len(user)).Int("max_tokens", maxTokens).Msg("extract prompt")

	resp, err := e.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		// omitempty drops an explicit zero temperature
		Temperature:    math.SmallestNonzeroFloat32,
		MaxTokens:      maxTokens,
		N:              1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return "", fmt.Errorf("extract call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
