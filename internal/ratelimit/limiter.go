// Package ratelimit throttles requests to upstream APIs and remembers when
// an upstream has told us its quota is spent.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// Limiter wraps rate.Limiter with a name for logging/debugging.
type Limiter struct {
	limiter   *rate.Limiter
	name      string
	exhausted atomic.Bool
}

// New creates a new rate limiter with the given requests per second.
// The burst size equals the rate, allowing short bursts up to the rate limit.
// A non-positive rate disables throttling.
func New(name string, requestsPerSecond int) *Limiter {
	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}
	return &Limiter{
		limiter: rate.NewLimiter(limit, max(requestsPerSecond, 1)),
		name:    name,
	}
}

// Wait blocks until the rate limiter allows a request to proceed.
// Returns an error if the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait for %s: %w", l.name, err)
	}
	return nil
}

// Name returns the name of this rate limiter.
func (l *Limiter) Name() string {
	return l.name
}

// MarkExhausted records that the upstream quota is spent for this run.
// Only the first call logs.
func (l *Limiter) MarkExhausted() {
	if l.exhausted.CompareAndSwap(false, true) {
		slog.Warn("API quota reached; skipping further requests for this run", "api", l.name)
	}
}

// Exhausted reports whether MarkExhausted has been called.
func (l *Limiter) Exhausted() bool {
	return l.exhausted.Load()
}
