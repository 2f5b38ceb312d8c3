package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/FranksOps/slant/internal/fingerprint"
	"github.com/FranksOps/slant/pkg/proxy"
	"github.com/FranksOps/slant/pkg/ratelimit"
	"github.com/FranksOps/slant/pkg/useragent"
)

func newTestFetcher(t *testing.T, cfg FetchConfig) *Fetcher {
	t.Helper()
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	cfg.Fingerprint = fingerprint.ProfileGo
	f, err := NewFetcher(cfg)
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	return f
}

func TestFetcher_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "TestBrowser/1.0" {
			t.Errorf("expected rotated User-Agent, got %q", got)
		}
		w.Header().Set("X-Test", "true")
		_, _ = w.Write([]byte("ok"))
	}))
	defer ts.Close()

	fetcher := newTestFetcher(t, FetchConfig{
		UAPool: useragent.NewPool([]string{"TestBrowser/1.0"}, useragent.Sequential),
		Hosts:  ratelimit.NewHostLimiter(0, 0),
	})

	page, err := fetcher.Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", page.StatusCode)
	}
	if string(page.Body) != "ok" {
		t.Errorf("expected body 'ok', got %s", page.Body)
	}
	if page.Headers.Get("X-Test") != "true" {
		t.Errorf("expected X-Test header 'true', got %v", page.Headers)
	}
	if page.Duration == 0 {
		t.Errorf("expected non-zero duration")
	}
	if page.BlockedBy != "" {
		t.Errorf("expected no detection, got %s", page.BlockedBy)
	}
}

func TestFetcher_DetectsChallenge(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "cloudflare")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("Attention Required! | Cloudflare"))
	}))
	defer ts.Close()

	page, err := newTestFetcher(t, FetchConfig{}).Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.BlockedBy != "Cloudflare" {
		t.Errorf("expected Cloudflare detection, got %q", page.BlockedBy)
	}
}

func TestFetcher_BodyLimit(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 100)))
	}))
	defer ts.Close()

	page, err := newTestFetcher(t, FetchConfig{MaxBodyBytes: 10}).Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Body) != 10 {
		t.Errorf("expected body truncated to 10 bytes, got %d", len(page.Body))
	}
}

func TestFetcher_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	_, err := newTestFetcher(t, FetchConfig{Timeout: 10 * time.Millisecond}).Fetch(context.Background(), ts.URL)
	if err == nil || !strings.Contains(err.Error(), "request failed") {
		t.Errorf("expected timeout error, got %v", err)
	}
}

func TestFetcher_Proxy(t *testing.T) {
	// The "proxy" answers every request itself, so a teapot proves routing.
	proxyServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer proxyServer.Close()

	pool := proxy.NewPool(proxy.Config{MaxFailures: 1, Cooldown: time.Second})
	if err := pool.Add(proxyServer.URL); err != nil {
		t.Fatalf("failed to add proxy: %v", err)
	}

	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer target.Close()

	page, err := newTestFetcher(t, FetchConfig{ProxyPool: pool}).Fetch(context.Background(), target.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.StatusCode != http.StatusTeapot {
		t.Errorf("expected 418 Teapot from proxy, got %d", page.StatusCode)
	}
	if st := pool.Statuses(); st[0].Successes != 1 {
		t.Errorf("expected proxy success to be recorded, got %+v", st[0])
	}
}
