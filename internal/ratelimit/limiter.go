package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter manages an independent token bucket per key (one per feed).
// A zero PerMinute budget disables limiting entirely.
type Limiter struct {
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
}

// New creates a limiter allowing perMinute requests per key with the given burst.
// perMinute <= 0 means unlimited.
func New(perMinute, burst int) *Limiter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	if burst < 1 {
		burst = 1
	}

	return &Limiter{
		limit:    limit,
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

// get returns the bucket for key, creating it on first use
func (l *Limiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = limiter
	}
	return limiter
}

// Wait blocks until the rate limiter permits an event for the given key
// It returns an error if the context is canceled before the event can proceed
func (l *Limiter) Wait(ctx context.Context, key string) error {
	return l.get(key).Wait(ctx)
}

// Allow reports whether an event for the given key may happen now
func (l *Limiter) Allow(key string) bool {
	return l.get(key).Allow()
}

// Unlimited reports whether the limiter lets every request through
func (l *Limiter) Unlimited() bool {
	return l.limit == rate.Inf
}
