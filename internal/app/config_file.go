package app

import (
    "encoding/json"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema.
// Nested sections improve readability and map naturally to flags/env.
type FileConfig struct {
    LLM struct {
        BaseURL      string `yaml:"base" json:"base"`
        Model        string `yaml:"model" json:"model"`
        APIKey       string `yaml:"key" json:"key"`
        Timeout      string `yaml:"timeout" json:"timeout"`
        MaxTokens    int    `yaml:"maxTokens" json:"maxTokens"`
        SSLVerify    *bool  `yaml:"sslVerify" json:"sslVerify"`
        SystemPrompt string `yaml:"systemPrompt" json:"systemPrompt"`
    } `yaml:"llm" json:"llm"`

    Server struct {
        Listen         string   `yaml:"listen" json:"listen"`
        CORSOrigins    []string `yaml:"corsOrigins" json:"corsOrigins"`
        BodyLimit      string   `yaml:"bodyLimit" json:"bodyLimit"`
        RequestTimeout string   `yaml:"requestTimeout" json:"requestTimeout"`
    } `yaml:"server" json:"server"`

    Fetch struct {
        Timeout       string `yaml:"timeout" json:"timeout"`
        UserAgent     string `yaml:"userAgent" json:"userAgent"`
        MaxBytes      int64  `yaml:"maxBytes" json:"maxBytes"`
        RespectRobots *bool  `yaml:"respectRobots" json:"respectRobots"`
    } `yaml:"fetch" json:"fetch"`

    Chunk struct {
        MaxChars    int `yaml:"maxChars" json:"maxChars"`
        Concurrency int `yaml:"concurrency" json:"concurrency"`
    } `yaml:"chunk" json:"chunk"`

    MaxRecords int `yaml:"maxRecords" json:"maxRecords"`

    Cache struct {
        Dir         string `yaml:"dir" json:"dir"`
        MaxAge      string `yaml:"maxAge" json:"maxAge"`
        Clear       bool   `yaml:"clear" json:"clear"`
        StrictPerms bool   `yaml:"strictPerms" json:"strictPerms"`
    } `yaml:"cache" json:"cache"`

    Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
    var fc FileConfig
    b, err := os.ReadFile(path)
    if err != nil {
        return fc, err
    }
    switch ext := strings.ToLower(filepath.Ext(path)); ext {
    case ".yaml", ".yml":
        if err := yaml.Unmarshal(b, &fc); err != nil {
            return fc, fmt.Errorf("parse yaml: %w", err)
        }
    case ".json":
        if err := json.Unmarshal(b, &fc); err != nil {
            return fc, fmt.Errorf("parse json: %w", err)
        }
    default:
        // Try YAML then JSON
        if err := yaml.Unmarshal(b, &fc); err != nil {
            if jerr := json.Unmarshal(b, &fc); jerr != nil {
                return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
            }
        }
    }
    return fc, nil
}

// ApplyFileConfig overlays every value set in fc onto cfg. It runs before
// env and flags, so file values only replace defaults.
func ApplyFileConfig(cfg *Config, fc FileConfig) error {
    if cfg == nil { return nil }
    setString := func(dst *string, v string) {
        if strings.TrimSpace(v) != "" { *dst = strings.TrimSpace(v) }
    }
    setInt := func(dst *int, v int) {
        if v > 0 { *dst = v }
    }

    setString(&cfg.LLMBaseURL, fc.LLM.BaseURL)
    setString(&cfg.LLMModel, fc.LLM.Model)
    setString(&cfg.LLMAPIKey, fc.LLM.APIKey)
    setInt(&cfg.LLMMaxTokens, fc.LLM.MaxTokens)
    if fc.LLM.SSLVerify != nil { cfg.LLMSSLVerify = *fc.LLM.SSLVerify }
    setString(&cfg.SystemPrompt, fc.LLM.SystemPrompt)

    setString(&cfg.ListenAddr, fc.Server.Listen)
    if len(fc.Server.CORSOrigins) > 0 { cfg.CORSOrigins = append([]string{}, fc.Server.CORSOrigins...) }
    setString(&cfg.BodyLimit, fc.Server.BodyLimit)

    setString(&cfg.FetchUserAgent, fc.Fetch.UserAgent)
    if fc.Fetch.MaxBytes > 0 { cfg.FetchMaxBytes = fc.Fetch.MaxBytes }
    if fc.Fetch.RespectRobots != nil { cfg.FetchRespectRobots = *fc.Fetch.RespectRobots }

    setInt(&cfg.ChunkMaxChars, fc.Chunk.MaxChars)
    setInt(&cfg.ChunkConcurrency, fc.Chunk.Concurrency)
    setInt(&cfg.MaxRecords, fc.MaxRecords)

    setString(&cfg.CacheDir, fc.Cache.Dir)
    if fc.Cache.Clear { cfg.CacheClear = true }
    if fc.Cache.StrictPerms { cfg.CacheStrictPerms = true }
    if fc.Verbose { cfg.Verbose = true }

    // Durations are strings in the file so "90s" and "7d" both work in YAML and JSON.
    durations := []struct {
        name string
        raw  string
        dst  *time.Duration
    }{
        {"llm.timeout", fc.LLM.Timeout, &cfg.LLMTimeout},
        {"server.requestTimeout", fc.Server.RequestTimeout, &cfg.RequestTimeout},
        {"fetch.timeout", fc.Fetch.Timeout, &cfg.FetchTimeout},
        {"cache.maxAge", fc.Cache.MaxAge, &cfg.CacheMaxAge},
    }
    for _, d := range durations {
        if strings.TrimSpace(d.raw) == "" { continue }
        v, err := parseDuration(strings.TrimSpace(d.raw))
        if err != nil {
            return fmt.Errorf("config: %s: %w", d.name, err)
        }
        *d.dst = v
    }
    return nil
}

// LoadConfig resolves defaults, then the optional config file, then the
// environment. Callers apply explicitly set flags afterwards.
func LoadConfig(path string) (Config, error) {
    cfg := Defaults()
    if strings.TrimSpace(path) != "" {
        fc, err := LoadConfigFile(path)
        if err != nil {
            return cfg, fmt.Errorf("load config %s: %w", path, err)
        }
        if err := ApplyFileConfig(&cfg, fc); err != nil {
            return cfg, err
        }
    }
    ApplyEnvOverrides(&cfg)
    return cfg, nil
}
