// Package robots decides whether a roster URL may be fetched according to
// the site's robots.txt.
package robots

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"
)

const (
	defaultTTL     = 30 * time.Minute
	maxRobotsBytes = 512 << 10
	defaultTimeout = 5 * time.Second
)

// Rules is a parsed robots.txt.
type Rules struct {
	Groups []Group
}

// Group is one User-agent block.
type Group struct {
	Agents []string
	rules  []rule
}

type rule struct {
	allow       bool
	pattern     string
	re          *regexp.Regexp
	specificity int
}

// Checker fetches robots.txt once per origin and caches the result.
// Unreachable or missing robots files allow everything.
type Checker struct {
	HTTPClient *http.Client
	// TTL bounds how long parsed rules are reused. Zero means 30 minutes.
	TTL time.Duration

	mu  sync.Mutex
	mem map[string]entry
	now func() time.Time
}

type entry struct {
	rules  Rules
	expiry time.Time
}

// Allowed reports whether userAgent may fetch u.
func (c *Checker) Allowed(ctx context.Context, u *url.URL, userAgent string) (bool, error) {
	if u == nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false, fmt.Errorf("robots: unsupported url %v", u)
	}
	rules, err := c.rulesFor(ctx, u.Scheme+"://"+u.Host)
	if err != nil {
		return true, err
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return rules.IsAllowed(userAgent, path), nil
}

func (c *Checker) rulesFor(ctx context.Context, origin string) (Rules, error) {
	c.mu.Lock()
	if c.now == nil {
		c.now = time.Now
	}
	if c.mem == nil {
		c.mem = make(map[string]entry)
	}
	if e, ok := c.mem[origin]; ok && c.now().Before(e.expiry) {
		c.mu.Unlock()
		return e.rules, nil
	}
	c.mu.Unlock()

	rules, err := c.download(ctx, origin+"/robots.txt")
	if err != nil {
		return Rules{}, err
	}
	ttl := c.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	c.mu.Lock()
	c.mem[origin] = entry{rules: rules, expiry: c.now().Add(ttl)}
	c.mu.Unlock()
	return rules, nil
}

// download treats any non-2xx answer as "no rules".
func (c *Checker) download(ctx context.Context, robotsURL string) (Rules, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return Rules{}, fmt.Errorf("robots request: %w", err)
	}
	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Rules{}, fmt.Errorf("robots fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Rules{}, nil
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBytes))
	if err != nil {
		return Rules{}, fmt.Errorf("robots read: %w", err)
	}
	return Parse(string(data)), nil
}

// Parse reads robots.txt text. Unknown directives are ignored.
func Parse(text string) Rules {
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var groups []Group
	cur := Group{}
	flush := func() {
		if len(cur.Agents) > 0 || len(cur.rules) > 0 {
			groups = append(groups, cur)
		}
		cur = Group{}
	}
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.TrimSpace(val)
		switch key {
		case "user-agent", "useragent":
			// consecutive agent lines share one group
			if len(cur.rules) > 0 {
				flush()
			}
			cur.Agents = append(cur.Agents, strings.ToLower(val))
		case "allow", "disallow":
			if val == "" {
				continue
			}
			cur.rules = append(cur.rules, newRule(key == "allow", val))
		}
	}
	flush()
	return Rules{Groups: groups}
}

func newRule(allow bool, pattern string) rule {
	anchored := strings.HasSuffix(pattern, "$")
	p := strings.TrimSuffix(pattern, "$")
	var b strings.Builder
	b.WriteString("^")
	for i, part := range strings.Split(p, "*") {
		if i > 0 {
			b.WriteString(".*")
		}
		b.WriteString(regexp.QuoteMeta(part))
	}
	if anchored {
		b.WriteString("$")
	}
	return rule{
		allow:       allow,
		pattern:     pattern,
		re:          regexp.MustCompile(b.String()),
		specificity: len(strings.ReplaceAll(p, "*", "")),
	}
}

// IsAllowed applies the most specific matching rule of the best matching
// agent group. Allow wins ties; no matching rule means allowed.
func (r Rules) IsAllowed(userAgent, path string) bool {
	g := r.group(userAgent)
	if g == nil {
		return true
	}
	best, allowed := -1, true
	for _, ru := range g.rules {
		if !ru.re.MatchString(path) {
			continue
		}
		if ru.specificity > best || (ru.specificity == best && ru.allow) {
			best, allowed = ru.specificity, ru.allow
		}
	}
	return allowed
}

// group picks the longest agent token contained in userAgent, falling back
// to "*".
func (r Rules) group(userAgent string) *Group {
	ua := strings.ToLower(userAgent)
	bestIdx, bestLen := -1, -1
	for i := range r.Groups {
		for _, a := range r.Groups[i].Agents {
			n := -1
			switch {
			case a == "*":
				n = 0
			case a != "" && strings.Contains(ua, a):
				n = len(a)
			}
			if n > bestLen {
				bestIdx, bestLen = i, n
			}
		}
	}
	if bestIdx < 0 {
		return nil
	}
	return &r.Groups[bestIdx]
}
