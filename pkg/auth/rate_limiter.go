package auth

import (
	"sync"
	"time"
)

// RateLimiter is a token bucket refilled continuously at rate tokens per second.
type RateLimiter struct {
	mu       sync.Mutex
	rate     float64
	capacity float64
	tokens   float64
	last     time.Time
	now      func() time.Time
}

// NewRateLimiter allows rate operations per interval, bursting up to rate.
func NewRateLimiter(rate int64, interval time.Duration) *RateLimiter {
	return newRateLimiter(rate, interval, time.Now)
}

func newRateLimiter(rate int64, interval time.Duration, now func() time.Time) *RateLimiter {
	if rate <= 0 || interval <= 0 {
		panic("rate and interval must be positive")
	}

	return &RateLimiter{
		rate:     float64(rate) / interval.Seconds(),
		capacity: float64(rate),
		tokens:   float64(rate),
		last:     now(),
		now:      now,
	}
}

// Allow takes a token if one is available.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()

	if rl.tokens < 1.0 {
		return false
	}

	rl.tokens--
	return true
}

// WaitTime returns the time until the next token is available.
func (rl *RateLimiter) WaitTime() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()

	if rl.tokens >= 1.0 {
		return 0
	}

	return time.Duration((1.0 - rl.tokens) / rl.rate * float64(time.Second))
}

// Reset refills the bucket.
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.tokens = rl.capacity
	rl.last = rl.now()
}

func (rl *RateLimiter) refill() {
	now := rl.now()
	elapsed := now.Sub(rl.last).Seconds()
	rl.last = now

	if elapsed > 0 {
		rl.tokens = min(rl.capacity, rl.tokens+elapsed*rl.rate)
	}
}

// Limiters hands out one bucket per client key.
type Limiters struct {
	buckets  *sync.Map
	rate     int64
	interval time.Duration
	now      func() time.Time
}

func NewLimiters(rate int64, interval time.Duration) *Limiters {
	return &Limiters{buckets: new(sync.Map), rate: rate, interval: interval, now: time.Now}
}

// Allow takes a token from the bucket of key.
func (limiters *Limiters) Allow(key string) bool {
	bucket, ok := limiters.buckets.Load(key)

	if !ok {
		bucket, _ = limiters.buckets.LoadOrStore(key, newRateLimiter(limiters.rate, limiters.interval, limiters.now))
	}

	return bucket.(*RateLimiter).Allow()
}
