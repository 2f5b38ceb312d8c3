package proxy

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned when marking a proxy the pool does not hold.
	ErrNotFound = errors.New("proxy: not found in pool")
	// ErrNilURL is returned when marking a nil proxy URL.
	ErrNilURL = errors.New("proxy: url cannot be nil")
)

// endpoint is a proxy plus its health bookkeeping.
type endpoint struct {
	url           *url.URL
	failures      int
	successes     int
	lastUsed      time.Time
	disabledUntil time.Time
}

func (e *endpoint) disabled(now time.Time) bool {
	return now.Before(e.disabledUntil)
}

// Status is a point-in-time view of one proxy.
type Status struct {
	URL       string
	Failures  int
	Successes int
	LastUsed  time.Time
	Disabled  bool
}

// Config defines settings for the proxy pool.
type Config struct {
	// MaxFailures before a proxy is benched for Cooldown.
	MaxFailures int
	Cooldown    time.Duration
}

// Pool rotates through proxies round-robin, benching ones that keep failing.
type Pool struct {
	mu          sync.Mutex
	endpoints   []*endpoint
	byURL       map[string]*endpoint
	next        int
	maxFailures int
	cooldown    time.Duration
}

// NewPool creates an empty pool. Zero config values select defaults.
func NewPool(cfg Config) *Pool {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 5 * time.Minute
	}
	return &Pool{
		byURL:       make(map[string]*endpoint),
		maxFailures: cfg.MaxFailures,
		cooldown:    cfg.Cooldown,
	}
}

// LoadFile adds one proxy per line of path, skipping blanks and # comments.
func (p *Pool) LoadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("proxy: %w", err)
	}
	defer file.Close()

	var urls []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("proxy: read %s: %w", path, err)
	}

	return p.Add(urls...)
}

// Add parses raw proxy URLs, defaulting to http:// when no scheme is given.
// Duplicates are ignored.
func (p *Pool) Add(rawURLs ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, raw := range rawURLs {
		if !strings.Contains(raw, "://") {
			raw = "http://" + raw
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("proxy: %w", err)
		}
		key := u.String()
		if _, dup := p.byURL[key]; dup {
			continue
		}
		e := &endpoint{url: u}
		p.endpoints = append(p.endpoints, e)
		p.byURL[key] = e
	}
	return nil
}

// Len returns the number of proxies in the pool.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.endpoints)
}

// Next returns the next proxy that is not cooling down, or nil when none is.
func (p *Pool) Next() *url.URL {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	for range p.endpoints {
		e := p.endpoints[p.next]
		p.next = (p.next + 1) % len(p.endpoints)

		if e.disabled(now) {
			continue
		}
		if !e.disabledUntil.IsZero() {
			// Back from the bench with a clean slate.
			e.disabledUntil = time.Time{}
			e.failures = 0
		}
		e.lastUsed = now
		return e.url
	}
	return nil
}

// MarkSuccess records a good request through proxyURL and forgives one
// earlier failure.
func (p *Pool) MarkSuccess(proxyURL *url.URL) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, err := p.lookup(proxyURL)
	if err != nil {
		return err
	}
	e.successes++
	if e.failures > 0 {
		e.failures--
	}
	return nil
}

// MarkFailure records a failed request; after MaxFailures the proxy is
// benched for the cooldown.
func (p *Pool) MarkFailure(proxyURL *url.URL) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, err := p.lookup(proxyURL)
	if err != nil {
		return err
	}
	e.failures++
	if e.failures >= p.maxFailures {
		e.disabledUntil = time.Now().Add(p.cooldown)
	}
	return nil
}

// Statuses reports the health of every proxy in insertion order.
func (p *Pool) Statuses() []Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	out := make([]Status, len(p.endpoints))
	for i, e := range p.endpoints {
		out[i] = Status{
			URL:       e.url.String(),
			Failures:  e.failures,
			Successes: e.successes,
			LastUsed:  e.lastUsed,
			Disabled:  e.disabled(now),
		}
	}
	return out
}

func (p *Pool) lookup(u *url.URL) (*endpoint, error) {
	if u == nil {
		return nil, ErrNilURL
	}
	e, ok := p.byURL[u.String()]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}
