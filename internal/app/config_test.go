package app

import (
    "os"
    "path/filepath"
    "testing"
    "time"
)

var configEnvKeys = []string{
    "LLM_BASE_URL", "LLM_MODEL", "LLM_API_KEY", "LLM_TIMEOUT", "LLM_MAX_TOKENS", "LLM_SSL_VERIFY", "LLM_SYSTEM_PROMPT",
    "LISTEN_ADDR", "CORS_ORIGINS", "BODY_LIMIT", "REQUEST_TIMEOUT",
    "FETCH_TIMEOUT", "FETCH_USER_AGENT", "FETCH_MAX_BYTES", "FETCH_RESPECT_ROBOTS",
    "CHUNK_MAX_CHARS", "CHUNK_CONCURRENCY", "MAX_RECORDS",
    "CACHE_DIR", "CACHE_MAX_AGE", "CACHE_CLEAR", "CACHE_STRICT_PERMS", "VERBOSE",
}

func clearConfigEnv(t *testing.T) {
    t.Helper()
    for _, k := range configEnvKeys {
        t.Setenv(k, "")
    }
}

func TestDefaults(t *testing.T) {
    cfg := Defaults()
    if cfg.FetchTimeout != 15*time.Second || cfg.ChunkMaxChars != 5500 || cfg.ChunkConcurrency != 4 || cfg.MaxRecords != 20 {
        t.Fatalf("unexpected defaults %+v", cfg)
    }
    if cfg.LLMTimeout != 60*time.Second {
        t.Fatalf("LLM timeout default = %v", cfg.LLMTimeout)
    }
    if err := ValidateConfig(cfg); err != nil {
        t.Fatalf("defaults must validate: %v", err)
    }
    if cfg.LLMConfigured() {
        t.Fatalf("defaults must not look configured")
    }
}

func TestLoadConfig_Precedence(t *testing.T) {
    clearConfigEnv(t)
    dir := t.TempDir()
    path := filepath.Join(dir, "rosterscan.yaml")
    yml := `
llm:
  base: http://file-llm:8080/v1
  model: file-model
  timeout: 90s
server:
  listen: ":9000"
  corsOrigins: ["https://a.example", "https://b.example"]
chunk:
  maxChars: 4000
cache:
  dir: /var/cache/rosterscan
  maxAge: 7d
`
    if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
        t.Fatal(err)
    }
    t.Setenv("LLM_MODEL", "env-model")
    t.Setenv("CHUNK_CONCURRENCY", "8")
    t.Setenv("CACHE_CLEAR", "yes")

    cfg, err := LoadConfig(path)
    if err != nil {
        t.Fatalf("LoadConfig: %v", err)
    }
    if cfg.LLMModel != "env-model" {
        t.Fatalf("env should beat file, got %q", cfg.LLMModel)
    }
    if cfg.LLMBaseURL != "http://file-llm:8080/v1" || cfg.ListenAddr != ":9000" || cfg.ChunkMaxChars != 4000 {
        t.Fatalf("file values not applied: %+v", cfg)
    }
    if cfg.LLMTimeout != 90*time.Second || cfg.CacheMaxAge != 7*24*time.Hour {
        t.Fatalf("durations not parsed: %v %v", cfg.LLMTimeout, cfg.CacheMaxAge)
    }
    if len(cfg.CORSOrigins) != 2 {
        t.Fatalf("cors origins = %v", cfg.CORSOrigins)
    }
    if cfg.ChunkConcurrency != 8 || !cfg.CacheClear {
        t.Fatalf("env values not applied: %+v", cfg)
    }
    if cfg.FetchTimeout != 15*time.Second {
        t.Fatalf("defaults should survive where nothing is set")
    }
    if !cfg.LLMConfigured() {
        t.Fatalf("custom base URL without key should count as configured")
    }
}

func TestLoadConfig_JSONAndErrors(t *testing.T) {
    clearConfigEnv(t)
    dir := t.TempDir()
    good := filepath.Join(dir, "c.json")
    if err := os.WriteFile(good, []byte(`{"llm":{"model":"m","key":"k","sslVerify":false},"maxRecords":5}`), 0o600); err != nil {
        t.Fatal(err)
    }
    cfg, err := LoadConfig(good)
    if err != nil {
        t.Fatalf("LoadConfig: %v", err)
    }
    if cfg.MaxRecords != 5 || cfg.LLMSSLVerify || !cfg.LLMConfigured() {
        t.Fatalf("json values not applied: %+v", cfg)
    }

    bad := filepath.Join(dir, "bad.yaml")
    if err := os.WriteFile(bad, []byte("fetch:\n  timeout: soon\n"), 0o600); err != nil {
        t.Fatal(err)
    }
    if _, err := LoadConfig(bad); err == nil {
        t.Fatalf("expected duration parse error")
    }
    if _, err := LoadConfig(filepath.Join(dir, "absent.yaml")); err == nil {
        t.Fatalf("expected error for missing config file")
    }
}

func TestApplyEnvOverrides_Lists(t *testing.T) {
    clearConfigEnv(t)
    t.Setenv("CORS_ORIGINS", " https://x.example , ,https://y.example")
    t.Setenv("LLM_SSL_VERIFY", "false")
    cfg := Defaults()
    ApplyEnvOverrides(&cfg)
    if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://y.example" {
        t.Fatalf("cors origins = %v", cfg.CORSOrigins)
    }
    if cfg.LLMSSLVerify {
        t.Fatalf("LLM_SSL_VERIFY=false should disable verification")
    }
}

func TestValidateConfig_RejectsNegative(t *testing.T) {
    cfg := Defaults()
    cfg.ChunkConcurrency = -1
    if err := ValidateConfig(cfg); err == nil {
        t.Fatalf("expected error for negative limit")
    }
    cfg = Defaults()
    cfg.FetchTimeout = -time.Second
    if err := ValidateConfig(cfg); err == nil {
        t.Fatalf("expected error for negative duration")
    }
    cfg = Defaults()
    cfg.ChunkMaxChars = 50
    if err := ValidateConfig(cfg); err == nil {
        t.Fatalf("expected error for tiny chunks")
    }
}
