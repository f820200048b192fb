// Package probe checks whether a page will refuse to render inside a frame
// before the browser gets a chance to report it.
package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultTimeout = 8 * time.Second
	cacheSize      = 128
	cacheTTL       = 10 * time.Minute
	userAgent      = "gazescout-probe/1.0"
)

// Result is the framing verdict for one URL.
type Result struct {
	URL       string
	Blocked   bool
	Reason    string
	CheckedAt time.Time
}

// Prober fetches response headers and caches verdicts in memory.
type Prober struct {
	client *http.Client
	cache  *expirable.LRU[string, Result]
	now    func() time.Time
}

// New returns a prober. A nil client gets a short default timeout.
func New(client *http.Client) *Prober {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Prober{
		client: client,
		cache:  expirable.NewLRU[string, Result](cacheSize, nil, cacheTTL),
		now:    time.Now,
	}
}

// Check requests target and inspects its framing headers. A transport error
// means the verdict is unknown; callers should not treat it as blocked.
// Failed checks are not cached.
func (p *Prober) Check(ctx context.Context, target string) (Result, error) {
	if cached, ok := p.cache.Get(target); ok {
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Result{}, fmt.Errorf("build probe request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,*/*;q=0.8")

	resp, err := p.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("probe %s: %w", target, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	blocked, reason := Evaluate(resp.Header)
	result := Result{URL: target, Blocked: blocked, Reason: reason, CheckedAt: p.now()}
	p.cache.Add(target, result)
	return result, nil
}

// Evaluate applies the browser framing rules to response headers. A CSP
// frame-ancestors directive wins over X-Frame-Options when both are present.
func Evaluate(h http.Header) (bool, string) {
	for _, policy := range h.Values("Content-Security-Policy") {
		sources, ok := frameAncestors(policy)
		if !ok {
			continue
		}
		if len(sources) == 0 {
			return true, "Content-Security-Policy: frame-ancestors (empty)"
		}
		for _, src := range sources {
			if src == "*" {
				return false, ""
			}
		}
		return true, "Content-Security-Policy: frame-ancestors " + strings.Join(sources, " ")
	}

	for _, value := range h.Values("X-Frame-Options") {
		for _, option := range strings.Split(value, ",") {
			switch strings.ToUpper(strings.TrimSpace(option)) {
			case "DENY", "SAMEORIGIN":
				return true, "X-Frame-Options: " + strings.ToUpper(strings.TrimSpace(option))
			}
		}
	}
	return false, ""
}

func frameAncestors(policy string) ([]string, bool) {
	for _, directive := range strings.Split(policy, ";") {
		fields := strings.Fields(directive)
		if len(fields) == 0 || !strings.EqualFold(fields[0], "frame-ancestors") {
			continue
		}
		return fields[1:], true
	}
	return nil, false
}
