// Package ratelimit implements a thread-safe token-bucket limiter shared
// across all injector goroutines (§4.3).
package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a token bucket parameterized by rate (tokens/sec) and burst
// (bucket capacity). Refill uses the monotonic clock, so it is immune to
// wall-clock adjustment. Acquire releases its internal lock before
// sleeping so other callers can observe and consume refilled tokens.
type Limiter struct {
	mu         sync.Mutex
	rate       float64
	burst      float64
	tokens     float64
	lastUpdate time.Time
}

// New constructs a Limiter starting with a full bucket of burst tokens.
func New(rate float64, burst int) *Limiter {
	if rate <= 0 {
		rate = 1
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		rate:       rate,
		burst:      float64(burst),
		tokens:     float64(burst),
		lastUpdate: time.Now(),
	}
}

func (l *Limiter) refillLocked() {
	now := time.Now()
	elapsed := now.Sub(l.lastUpdate).Seconds()
	l.tokens = min(l.burst, l.tokens+elapsed*l.rate)
	l.lastUpdate = now
}

// Acquire blocks until one token is available, then consumes it.
func (l *Limiter) Acquire() {
	for {
		l.mu.Lock()
		l.refillLocked()

		if l.tokens >= 1.0 {
			l.tokens -= 1.0
			l.mu.Unlock()
			return
		}

		wait := time.Duration((1.0 - l.tokens) / l.rate * float64(time.Second))
		l.mu.Unlock()

		time.Sleep(wait)
	}
}

// TryAcquire attempts a non-blocking acquire, returning false immediately
// if no token is available.
func (l *Limiter) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refillLocked()
	if l.tokens >= 1.0 {
		l.tokens -= 1.0
		return true
	}
	return false
}

// Rate returns the configured requests-per-second rate.
func (l *Limiter) Rate() float64 { return l.rate }

// Burst returns the configured bucket capacity.
func (l *Limiter) Burst() int { return int(l.burst) }

// AvailableTokens returns an approximate current token count, refilling
// first.
func (l *Limiter) AvailableTokens() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refillLocked()
	return l.tokens
}
