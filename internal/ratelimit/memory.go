package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Buckets refilled back to their burst are dropped on the next sweep, so
// the map does not accumulate one entry per client address forever. The
// redis limiter gets the same effect from key expiry.
const sweepInterval = time.Minute

type bucket struct {
	tokens float64
	last   time.Time
	rate   float64
	burst  float64
}

// MemoryLimiter is a process-local token bucket, suitable for single
// instance deployments.
type MemoryLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string, rate float64, burst int) (bool, error) {
	if key == "" || rate <= 0 || burst <= 0 {
		return false, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(burst), last: now, rate: rate, burst: float64(burst)}
		l.buckets[key] = b
	} else {
		b.rate = rate
		b.burst = float64(burst)
		elapsed := now.Sub(b.last).Seconds()
		if elapsed > 0 {
			b.tokens += elapsed * rate
			if b.tokens > b.burst {
				b.tokens = b.burst
			}
			b.last = now
		}
	}

	if b.tokens < 1 {
		return false, nil
	}
	b.tokens--
	return true, nil
}

func (l *MemoryLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < sweepInterval {
		return
	}
	l.lastSweep = now
	for key, b := range l.buckets {
		if b.tokens+now.Sub(b.last).Seconds()*b.rate >= b.burst {
			delete(l.buckets, key)
		}
	}
}
