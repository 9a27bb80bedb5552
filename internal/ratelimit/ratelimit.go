// Package ratelimit provides a token-bucket limiter for outbound Jama
// API calls.
//
// Jama Connect enforces 10 requests per second per account; the default
// bucket runs at 9 to leave headroom for other clients sharing the
// account.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultRate is the default refill rate (and capacity) in tokens per second.
const DefaultRate = 9.0

// timeNow is swapped out by tests to control refill timing.
var timeNow = time.Now

// Limiter is a token bucket. Capacity equals the refill rate, so a full
// bucket holds one second worth of requests.
type Limiter struct {
	mu         sync.Mutex
	rate       float64
	capacity   float64
	tokens     float64
	lastRefill time.Time
}

// New creates a limiter refilling at rate tokens per second. Rates at or
// below zero fall back to DefaultRate.
func New(rate float64) *Limiter {
	if rate <= 0 {
		rate = DefaultRate
	}
	return &Limiter{
		rate:       rate,
		capacity:   rate,
		tokens:     rate,
		lastRefill: timeNow(),
	}
}

// refill adds tokens for the time elapsed since the last refill.
// Callers must hold mu.
func (l *Limiter) refill() {
	now := timeNow()
	elapsed := now.Sub(l.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	l.tokens = min(l.capacity, l.tokens+elapsed*l.rate)
	l.lastRefill = now
}

// Wait blocks until a token is available or ctx is done. The lock is not
// held while sleeping, so concurrent callers queue fairly on wakeup.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		l.refill()
		if l.tokens >= 1 {
			l.tokens--
			l.mu.Unlock()
			return nil
		}
		needed := 1 - l.tokens
		wait := time.Duration(needed / l.rate * float64(time.Second))
		l.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// TryAcquire takes a token without blocking and reports whether one was
// available.
func (l *Limiter) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refill()
	if l.tokens >= 1 {
		l.tokens--
		return true
	}
	return false
}
