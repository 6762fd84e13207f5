// Package ratelimit gates incoming commands with a fixed window counter per
// caller identity.
package ratelimit

import (
	"sync"
	"time"
)

// Result is the outcome of one Check call.
type Result struct {
	Allowed bool
	// ResetIn is how long until the window resets. Only meaningful when the
	// call was denied.
	ResetIn time.Duration
}

type bucket struct {
	windowStart time.Time
	count       int
}

// Limiter counts requests per identity in fixed windows. All mutation happens
// under one lock so concurrent calls for the same identity never interleave a
// read with a write.
type Limiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	buckets map[string]*bucket
	now     func() time.Time
}

// New returns a limiter allowing max requests per window per identity.
func New(max int, window time.Duration) *Limiter {
	return &Limiter{
		max:     max,
		window:  window,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Check records one request for the identity and reports whether it is
// allowed. An expired or missing bucket is replaced with a fresh one.
func (l *Limiter) Check(identity string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[identity]
	if !ok || now.Sub(b.windowStart) >= l.window {
		l.buckets[identity] = &bucket{windowStart: now, count: 1}
		return Result{Allowed: true}
	}
	b.count++
	if b.count > l.max {
		return Result{Allowed: false, ResetIn: b.windowStart.Add(l.window).Sub(now)}
	}
	return Result{Allowed: true}
}
