// Package scraper fetches article pages directly and extracts their title and
// body, as a local alternative to a hosted extraction API.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/FranksOps/slant/internal/bypass"
	"github.com/FranksOps/slant/internal/fingerprint"
	"github.com/FranksOps/slant/internal/metrics"
	"github.com/FranksOps/slant/pkg/httpclient"
	"github.com/FranksOps/slant/pkg/proxy"
	"github.com/FranksOps/slant/pkg/ratelimit"
	"github.com/FranksOps/slant/pkg/useragent"
)

type contextKey string

const proxyKey contextKey = "proxy_url"

// defaultMaxBody caps how much of a page is read.
const defaultMaxBody = 5 << 20

// FetchConfig configures a Fetcher.
type FetchConfig struct {
	Timeout      time.Duration
	MaxRedirects int
	UseCookieJar bool
	ProxyPool    *proxy.Pool
	UAPool       *useragent.Pool
	Fingerprint  fingerprint.Profile
	// Hosts spaces requests per hostname. Nil disables limiting.
	Hosts        *ratelimit.HostLimiter
	MaxBodyBytes int64
	Signatures   []bypass.Signature
}

// Page is the raw outcome of one GET.
type Page struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
	// BlockedBy names the bot-protection vendor that challenged the request.
	BlockedBy string
}

// Fetcher performs single page fetches with a fingerprinted transport, UA
// rotation and optional proxy rotation.
type Fetcher struct {
	config FetchConfig
	client *httpclient.Client
}

// NewFetcher builds a Fetcher. The transport is created once so connections
// and cookies are reused across fetches.
func NewFetcher(cfg FetchConfig) (*Fetcher, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UAPool == nil {
		cfg.UAPool = useragent.NewPool(nil, useragent.Sequential)
	}
	if cfg.Fingerprint == "" {
		cfg.Fingerprint = fingerprint.ProfileChrome
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBody
	}
	if cfg.Signatures == nil {
		cfg.Signatures = bypass.DefaultSignatures
	}

	// Per-request proxy rotation: the chosen proxy rides on the request
	// context because Transport.Proxy cannot be swapped concurrently.
	proxyFunc := func(req *http.Request) (*url.URL, error) {
		if u, ok := req.Context().Value(proxyKey).(*url.URL); ok && u != nil {
			return u, nil
		}
		return http.ProxyFromEnvironment(req)
	}

	transport, err := fingerprint.Transport(cfg.Fingerprint, proxyFunc)
	if err != nil {
		return nil, fmt.Errorf("scraper: setup transport: %w", err)
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
		UseCookieJar: cfg.UseCookieJar,
		Transport:    transport,
	})
	if err != nil {
		return nil, fmt.Errorf("scraper: create client: %w", err)
	}

	return &Fetcher{config: cfg, client: client}, nil
}

// userAgent picks the agent for the next request.
func (f *Fetcher) userAgent() string {
	return f.config.UAPool.Next()
}

// Fetch GETs targetURL. Transport failures are returned as errors; any HTTP
// answer, including challenge pages, is returned as a Page.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("scraper: create request: %w", err)
	}
	host := req.URL.Hostname()

	if f.config.Hosts != nil {
		if err := f.config.Hosts.Wait(ctx, host); err != nil {
			return nil, err
		}
	}

	var activeProxy *url.URL
	if f.config.ProxyPool != nil {
		if activeProxy = f.config.ProxyPool.Next(); activeProxy != nil {
			req = req.WithContext(context.WithValue(req.Context(), proxyKey, activeProxy))
		}
	}

	req.Header.Set("User-Agent", f.userAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	start := time.Now()
	resp, err := f.client.Do(req.Context(), req)
	if err != nil {
		if activeProxy != nil {
			_ = f.config.ProxyPool.MarkFailure(activeProxy)
			metrics.ProxyFailures.WithLabelValues(activeProxy.Redacted()).Inc()
		}
		metrics.RecordFetch(host, 0, "", time.Since(start))
		return nil, fmt.Errorf("scraper: request failed: %w", err)
	}
	defer resp.Body.Close()

	if activeProxy != nil {
		_ = f.config.ProxyPool.MarkSuccess(activeProxy)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodyBytes))
	if err != nil {
		metrics.RecordFetch(host, resp.StatusCode, "", time.Since(start))
		return nil, fmt.Errorf("scraper: read body: %w", err)
	}

	page := &Page{
		URL:        targetURL,
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
		Duration:   time.Since(start),
	}
	page.BlockedBy = bypass.Detect(&bypass.Response{
		StatusCode: page.StatusCode,
		Headers:    page.Headers,
		Body:       page.Body,
	}, f.config.Signatures)

	metrics.RecordFetch(host, page.StatusCode, page.BlockedBy, page.Duration)
	return page, nil
}
