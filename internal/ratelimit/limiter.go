// Package ratelimit provides a token bucket limiter for polite access
// to upstream listing sites.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a token bucket. Tokens refill one per interval up to the
// bucket capacity.
type Limiter struct {
	mu       sync.Mutex
	tokens   int
	capacity int
	interval time.Duration
	last     time.Time
}

// New returns a full bucket of the given capacity refilling one token
// per interval.
func New(capacity int, interval time.Duration) *Limiter {
	return &Limiter{
		tokens:   capacity,
		capacity: capacity,
		interval: interval,
		last:     time.Now(),
	}
}

// Allow consumes a token if one is available.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()
	if l.tokens > 0 {
		l.tokens--
		return true
	}
	return false
}

// Wait blocks until a token is consumed.
func (l *Limiter) Wait() {
	for !l.Allow() {
		time.Sleep(l.interval / time.Duration(l.capacity))
	}
}

// WaitTimeout blocks until a token is consumed or the timeout passes,
// reporting whether a token was acquired.
func (l *Limiter) WaitTimeout(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if l.Allow() {
			return true
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		nap := l.interval / time.Duration(l.capacity)
		if nap > remaining {
			nap = remaining
		}
		time.Sleep(nap)
	}
}

// Available returns the current token count.
func (l *Limiter) Available() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refill()
	return l.tokens
}

// refill credits tokens earned since the last refill. Caller holds mu.
func (l *Limiter) refill() {
	now := time.Now()
	if l.interval <= 0 {
		l.tokens = l.capacity
		return
	}
	earned := int(now.Sub(l.last) / l.interval)
	if earned > 0 {
		l.tokens += earned
		if l.tokens > l.capacity {
			l.tokens = l.capacity
		}
		l.last = l.last.Add(time.Duration(earned) * l.interval)
	}
}
