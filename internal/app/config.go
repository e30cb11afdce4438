package app

import (
    "errors"
    "strings"
    "time"
)

// Config holds runtime configuration for the service and CLI.
type Config struct {
	// LLM
	LLMBaseURL   string
	LLMModel     string
	LLMAPIKey    string
	LLMTimeout   time.Duration
	LLMMaxTokens int
	// LLMSSLVerify can be disabled for local model servers with self-signed certs.
	LLMSSLVerify bool
	SystemPrompt string

	// HTTP service
	ListenAddr     string
	CORSOrigins    []string
	BodyLimit      string
	RequestTimeout time.Duration

	// Fetch
	FetchTimeout   time.Duration
	FetchUserAgent string
	FetchMaxBytes  int64

	// FetchRespectRobots consults robots.txt before fetching a URL source.
	FetchRespectRobots bool

	// Extraction
	ChunkMaxChars    int
	ChunkConcurrency int
	MaxRecords       int

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool

	Verbose bool
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		LLMTimeout:         60 * time.Second,
		LLMMaxTokens:       4000,
		LLMSSLVerify:       true,
		ListenAddr:         ":8080",
		CORSOrigins:        []string{"*"},
		BodyLimit:          "2M",
		RequestTimeout:     5 * time.Minute,
		FetchTimeout:       15 * time.Second,
		FetchUserAgent:     "rosterscan/1.0 (+https://github.com/hyperifyio/rosterscan)",
		FetchMaxBytes:      5 << 20,
		FetchRespectRobots: true,
		ChunkMaxChars:      5500,
		ChunkConcurrency:   4,
		MaxRecords:         20,
	}
}

// LLMConfigured reports whether a model can be called: a model name is set
// and either an API key or a custom (self-hosted) base URL is present.
func (c Config) LLMConfigured() bool {
	if strings.TrimSpace(c.LLMModel) == "" {
		return false
	}
	return strings.TrimSpace(c.LLMAPIKey) != "" || strings.TrimSpace(c.LLMBaseURL) != ""
}

// ValidateConfig performs minimal schema validation. A missing model is not
// an error: the service starts and reports "not configured" per request.
func ValidateConfig(cfg Config) error {
	if cfg.LLMMaxTokens < 0 || cfg.ChunkMaxChars < 0 || cfg.ChunkConcurrency < 0 || cfg.MaxRecords < 0 || cfg.FetchMaxBytes < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	if cfg.LLMTimeout < 0 || cfg.FetchTimeout < 0 || cfg.RequestTimeout < 0 || cfg.CacheMaxAge < 0 {
		return errors.New("config: negative durations are not allowed")
	}
	if cfg.ChunkMaxChars > 0 && cfg.ChunkMaxChars < 200 {
		return errors.New("config: chunk max chars must be at least 200")
	}
	return nil
}

// splitList parses a comma-separated list, dropping blanks.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
