package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Limiter spaces operations at a fixed rate with optional jitter. It is safe
// for concurrent use.
type Limiter struct {
	ticker   *time.Ticker
	jitter   float64 // 0.0 to 1.0
	interval time.Duration
}

// NewLimiter creates a limiter for rps operations per second. Jitter is
// clamped to [0, 1]. A non-positive rps yields a limiter that never blocks.
func NewLimiter(rps float64, jitter float64) *Limiter {
	if rps <= 0 {
		return &Limiter{}
	}

	if jitter < 0 {
		jitter = 0
	} else if jitter > 1 {
		jitter = 1
	}

	interval := time.Duration(float64(time.Second) / rps)
	return &Limiter{
		ticker:   time.NewTicker(interval),
		jitter:   jitter,
		interval: interval,
	}
}

// Wait blocks until the next slot or until ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.ticker == nil {
		return ctx.Err()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.ticker.C:
	}

	if l.jitter == 0 {
		return nil
	}

	// Negative jitter cannot run earlier than the tick, so only positive
	// offsets add a delay.
	offset := time.Duration(float64(l.interval) * l.jitter * (rand.Float64()*2 - 1))
	if offset <= 0 {
		return nil
	}
	timer := time.NewTimer(offset)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop releases the underlying ticker.
func (l *Limiter) Stop() {
	if l != nil && l.ticker != nil {
		l.ticker.Stop()
	}
}

// HostLimiter keeps one Limiter per key, typically a hostname, so that
// fetches against different sites do not slow each other down.
type HostLimiter struct {
	rps    float64
	jitter float64

	mu       sync.Mutex
	limiters map[string]*Limiter
}

// NewHostLimiter creates a HostLimiter whose per-key limiters share rps and
// jitter.
func NewHostLimiter(rps, jitter float64) *HostLimiter {
	return &HostLimiter{
		rps:      rps,
		jitter:   jitter,
		limiters: make(map[string]*Limiter),
	}
}

// Wait blocks on the limiter for host.
func (h *HostLimiter) Wait(ctx context.Context, host string) error {
	return h.get(host).Wait(ctx)
}

func (h *HostLimiter) get(host string) *Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()

	l, ok := h.limiters[host]
	if !ok {
		l = NewLimiter(h.rps, h.jitter)
		h.limiters[host] = l
	}
	return l
}

// Len returns the number of hosts seen so far.
func (h *HostLimiter) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.limiters)
}

// Stop stops every per-host limiter. A nil HostLimiter is a no-op.
func (h *HostLimiter) Stop() {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, l := range h.limiters {
		l.Stop()
	}
}
