package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type client struct {
	lim  *rate.Limiter
	seen time.Time
}

// Limiter keeps one token bucket per key, such as a client IP.
type Limiter struct {
	mu      sync.Mutex
	m       map[string]*client
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	swept   time.Time
	now     func() time.Time
}

// New allows perSec sustained events per key with the given burst.
// Buckets idle for longer than ten minutes are dropped; Allow sweeps at most
// once per idle period.
func New(perSec float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		m:       make(map[string]*client),
		limit:   rate.Limit(perSec),
		burst:   burst,
		idleTTL: 10 * time.Minute,
		now:     time.Now,
	}
}

// Allow reports whether one event for key may happen now.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	if now.Sub(l.lastSweep()) > l.idleTTL {
		l.Sweep()
	}
	l.mu.Lock()
	c, ok := l.m[key]
	if !ok {
		c = &client{lim: rate.NewLimiter(l.limit, l.burst)}
		l.m[key] = c
	}
	c.seen = now
	l.mu.Unlock()
	return c.lim.AllowN(now, 1)
}

// Sweep drops buckets idle for longer than the idle TTL and returns how many
// remain.
func (l *Limiter) Sweep() int {
	now := l.now()
	cutoff := now.Add(-l.idleTTL)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.swept = now
	for k, c := range l.m {
		if c.seen.Before(cutoff) {
			delete(l.m, k)
		}
	}
	return len(l.m)
}

func (l *Limiter) lastSweep() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.swept.IsZero() {
		l.swept = l.now()
	}
	return l.swept
}
