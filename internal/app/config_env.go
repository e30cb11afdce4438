package app

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// ApplyEnvOverrides overrides cfg fields with environment variables when the
// corresponding env vars are set. This lets env take precedence over values
// coming from a config file while flags remain highest precedence.
func ApplyEnvOverrides(cfg *Config) {
    if cfg == nil { return }

    setString := func(dst *string, key string) {
        if v := strings.TrimSpace(os.Getenv(key)); v != "" { *dst = v }
    }
    setInt := func(dst *int, key string) {
        if v := strings.TrimSpace(os.Getenv(key)); v != "" {
            if n, err := strconv.Atoi(v); err == nil { *dst = n }
        }
    }
    setDuration := func(dst *time.Duration, key string) {
        if v := strings.TrimSpace(os.Getenv(key)); v != "" {
            if d, err := parseDuration(v); err == nil { *dst = d }
        }
    }
    // Booleans override when env present and truthy/falsey
    setBool := func(dst *bool, key string) {
        switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
        case "1", "true", "yes", "on":
            *dst = true
        case "0", "false", "no", "off":
            *dst = false
        }
    }

    setString(&cfg.LLMBaseURL, "LLM_BASE_URL")
    setString(&cfg.LLMModel, "LLM_MODEL")
    setString(&cfg.LLMAPIKey, "LLM_API_KEY")
    setDuration(&cfg.LLMTimeout, "LLM_TIMEOUT")
    setInt(&cfg.LLMMaxTokens, "LLM_MAX_TOKENS")
    setBool(&cfg.LLMSSLVerify, "LLM_SSL_VERIFY")
    setString(&cfg.SystemPrompt, "LLM_SYSTEM_PROMPT")

    setString(&cfg.ListenAddr, "LISTEN_ADDR")
    if v := strings.TrimSpace(os.Getenv("CORS_ORIGINS")); v != "" { cfg.CORSOrigins = splitList(v) }
    setString(&cfg.BodyLimit, "BODY_LIMIT")
    setDuration(&cfg.RequestTimeout, "REQUEST_TIMEOUT")

    setDuration(&cfg.FetchTimeout, "FETCH_TIMEOUT")
    setString(&cfg.FetchUserAgent, "FETCH_USER_AGENT")
    if v := strings.TrimSpace(os.Getenv("FETCH_MAX_BYTES")); v != "" {
        if n, err := strconv.ParseInt(v, 10, 64); err == nil { cfg.FetchMaxBytes = n }
    }

    setBool(&cfg.FetchRespectRobots, "FETCH_RESPECT_ROBOTS")

    setInt(&cfg.ChunkMaxChars, "CHUNK_MAX_CHARS")
    setInt(&cfg.ChunkConcurrency, "CHUNK_CONCURRENCY")
    setInt(&cfg.MaxRecords, "MAX_RECORDS")

    setString(&cfg.CacheDir, "CACHE_DIR")
    setDuration(&cfg.CacheMaxAge, "CACHE_MAX_AGE")
    setBool(&cfg.CacheClear, "CACHE_CLEAR")
    setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
    setBool(&cfg.Verbose, "VERBOSE")
}

// parseDuration accepts Go durations plus a "d" suffix for days, e.g. "7d".
func parseDuration(s string) (time.Duration, error) {
    if strings.HasSuffix(s, "d") {
        if n, err := strconv.Atoi(strings.TrimSuffix(s, "d")); err == nil {
            return time.Duration(n) * 24 * time.Hour, nil
        }
    }
    return time.ParseDuration(s)
}
