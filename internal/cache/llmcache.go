package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
    "time"
)

// LLMCache stores raw extraction responses keyed by a digest of model and
// prompt, so re-submitting an unchanged page costs no model calls.
type LLMCache struct {
    Dir         string
    // StrictPerms, when true, enforces 0700 on cache directories and 0600 on
    // files to provide at-rest protection via restricted permissions.
    StrictPerms bool
}

// Entry is the on-disk form of a cached response.
type Entry struct {
    Model   string    `json:"model"`
    SavedAt time.Time `json:"savedAt"`
    Content string    `json:"content"`
}

func (c *LLMCache) ensureDir() error {
	if c == nil || c.Dir == "" {
		return errors.New("cache dir not configured")
	}
    perm := os.FileMode(0o755)
    if c.StrictPerms {
        perm = 0o700
    }
    if err := os.MkdirAll(c.Dir, perm); err != nil {
        return err
    }
    // If directory already existed and StrictPerms is on, tighten perms
    if c.StrictPerms {
        if info, err := os.Stat(c.Dir); err == nil {
            if info.Mode()&0o777 != 0o700 {
                _ = os.Chmod(c.Dir, 0o700)
            }
        }
    }
    return nil
}

// KeyFrom builds a cache key from model and prompt digest.
func KeyFrom(model string, prompt string) string {
	h := sha256.Sum256([]byte(model + "\n\n" + prompt))
	return hex.EncodeToString(h[:])
}

func (c *LLMCache) pathFor(key string) string {
	return filepath.Join(c.Dir, key+".json")
}

// Get returns the cached content for key. Unreadable or malformed entries
// are reported as misses.
func (c *LLMCache) Get(_ context.Context, key string) (string, bool, error) {
	if err := c.ensureDir(); err != nil {
		return "", false, err
	}
	p := c.pathFor(key)
    b, err := os.ReadFile(p)
    if err != nil {
        return "", false, nil
    }
    var e Entry
    if err := json.Unmarshal(b, &e); err != nil {
        return "", false, nil
    }
    // Touch file mtime on access so age-based purging keeps hot entries
    now := time.Now()
    _ = os.Chtimes(p, now, now)
	return e.Content, true, nil
}

// Save writes content under key.
func (c *LLMCache) Save(_ context.Context, key string, model string, content string) error {
	if err := c.ensureDir(); err != nil {
		return err
	}
    b, err := json.Marshal(Entry{Model: model, SavedAt: time.Now().UTC(), Content: content})
    if err != nil {
        return err
    }
    mode := os.FileMode(0o644)
    if c.StrictPerms {
        mode = 0o600
    }
    return os.WriteFile(c.pathFor(key), b, mode)
}
