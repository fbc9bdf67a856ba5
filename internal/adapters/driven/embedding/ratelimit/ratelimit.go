// Package ratelimit throttles requests to embedding providers.
package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBackoff is used when a 429 response carries no usable Retry-After.
const DefaultBackoff = 20 * time.Second

// Limiter is a token bucket with an additional backoff window set after the
// provider rejects a request. A nil *Limiter never blocks.
type Limiter struct {
	mu      sync.Mutex
	bucket  *rate.Limiter
	retryAt time.Time
}

// New returns a limiter allowing requestsPerSecond sustained requests with
// the given burst. A non-positive rate disables throttling and returns nil.
func New(requestsPerSecond float64, burst int) *Limiter {
	if requestsPerSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{bucket: rate.NewLimiter(rate.Limit(requestsPerSecond), burst)}
}

// Wait blocks until a request may be sent, honouring any backoff window.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return ctx.Err()
	}

	l.mu.Lock()
	retryAt := l.retryAt
	l.mu.Unlock()

	if delay := time.Until(retryAt); delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return l.bucket.Wait(ctx)
}

// Backoff delays subsequent requests by d.
func (l *Limiter) Backoff(d time.Duration) {
	if l == nil {
		return
	}
	if d <= 0 {
		d = DefaultBackoff
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if next := time.Now().Add(d); next.After(l.retryAt) {
		l.retryAt = next
	}
}

// RetryAfter parses a Retry-After header given in seconds.
func RetryAfter(h http.Header) time.Duration {
	secs, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || secs <= 0 {
		return DefaultBackoff
	}
	return time.Duration(secs) * time.Second
}
