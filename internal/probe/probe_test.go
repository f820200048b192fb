package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestEvaluate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers map[string]string
		blocked bool
	}{
		{"no headers", nil, false},
		{"deny", map[string]string{"X-Frame-Options": "DENY"}, true},
		{"sameorigin lowercase", map[string]string{"X-Frame-Options": "sameorigin"}, true},
		{"allow-from ignored", map[string]string{"X-Frame-Options": "ALLOW-FROM https://a.example"}, false},
		{"csp none", map[string]string{"Content-Security-Policy": "default-src 'self'; frame-ancestors 'none'"}, true},
		{"csp self", map[string]string{"Content-Security-Policy": "frame-ancestors 'self'"}, true},
		{"csp wildcard", map[string]string{"Content-Security-Policy": "frame-ancestors *"}, false},
		{"csp wins over xfo", map[string]string{"Content-Security-Policy": "frame-ancestors *", "X-Frame-Options": "DENY"}, false},
		{"csp without directive", map[string]string{"Content-Security-Policy": "script-src 'self'"}, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := http.Header{}
			for k, v := range tt.headers {
				h.Set(k, v)
			}
			blocked, reason := Evaluate(h)
			if blocked != tt.blocked {
				t.Fatalf("Evaluate(%v) blocked = %v, want %v (reason %q)", tt.headers, blocked, tt.blocked, reason)
			}
			if blocked && reason == "" {
				t.Fatalf("expected a reason for a blocked verdict")
			}
		})
	}
}

func TestCheckCachesVerdict(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("X-Frame-Options", "DENY")
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	p := New(srv.Client())
	for i := 0; i < 3; i++ {
		res, err := p.Check(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("Check: %v", err)
		}
		if !res.Blocked || res.Reason != "X-Frame-Options: DENY" {
			t.Fatalf("unexpected result %+v", res)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("expected a single request, got %d", got)
	}
}

func TestCheckFailureIsNotCached(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	p := New(nil)
	if _, err := p.Check(context.Background(), url); err == nil {
		t.Fatalf("expected an error for a closed server")
	}
	if p.cache.Len() != 0 {
		t.Fatalf("failed checks must not be cached")
	}
}

func TestCheckAllowsFraming(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != userAgent {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	res, err := New(srv.Client()).Check(context.Background(), srv.URL+"/page")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Blocked {
		t.Fatalf("expected page to be frameable, got %+v", res)
	}
	if res.CheckedAt.IsZero() {
		t.Fatalf("expected CheckedAt to be set")
	}
}
