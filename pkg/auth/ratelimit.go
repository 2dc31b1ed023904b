package auth

import (
	"sync"

	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per identity subject. Anonymous callers
// share a single bucket.
type Limiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// NewLimiter allows requestsPerMinute per subject with the given burst.
// A non-positive rate returns nil, which Middleware treats as unlimited.
func NewLimiter(requestsPerMinute, burst int) *Limiter {
	if requestsPerMinute <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = requestsPerMinute
	}
	return &Limiter{
		limit:   rate.Limit(float64(requestsPerMinute) / 60),
		burst:   burst,
		buckets: make(map[string]*rate.Limiter),
	}
}

// Allow spends one token from the identity's bucket.
func (l *Limiter) Allow(id *Identity) bool {
	key := AnonymousSubject
	if !id.Anonymous() {
		key = id.Subject
	}

	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[key] = b
	}
	l.mu.Unlock()

	return b.Allow()
}
