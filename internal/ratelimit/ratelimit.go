// Package ratelimit provides a keyed token-bucket rate limiter with idle
// key eviction.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Defaults for New.
const (
	DefaultIdleTTL       = 10 * time.Minute
	DefaultSweepInterval = time.Minute
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedRateLimiter manages per-key rate limiting.
// Each unique key gets its own independent token bucket. Keys that have not
// been seen for idleTTL are evicted by a background janitor until Stop.
type KeyedRateLimiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

// New creates a keyed rate limiter with the default eviction settings.
// rps: requests per second allowed.
// burst: maximum burst size (tokens available immediately).
func New(rps float64, burst int) *KeyedRateLimiter {
	return NewWithEviction(rps, burst, DefaultIdleTTL, DefaultSweepInterval)
}

// PerMinute creates a limiter allowing perMinute requests per minute per key.
func PerMinute(perMinute, burst int) *KeyedRateLimiter {
	return New(float64(perMinute)/60, burst)
}

// NewWithEviction creates a limiter whose janitor runs every sweepInterval
// and drops keys idle for longer than idleTTL.
func NewWithEviction(rps float64, burst int, idleTTL, sweepInterval time.Duration) *KeyedRateLimiter {
	krl := &KeyedRateLimiter{
		entries: make(map[string]*entry),
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: idleTTL,
		now:     time.Now,
		done:    make(chan struct{}),
	}

	go krl.janitor(sweepInterval)

	return krl
}

// Allow reports whether a request for key may proceed. It never blocks.
func (krl *KeyedRateLimiter) Allow(key string) bool {
	krl.mu.Lock()
	e, ok := krl.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(krl.limit, krl.burst)}
		krl.entries[key] = e
	}
	now := krl.now()
	e.lastSeen = now
	krl.mu.Unlock()

	return e.limiter.AllowN(now, 1)
}

// Len returns the number of tracked keys.
func (krl *KeyedRateLimiter) Len() int {
	krl.mu.Lock()
	defer krl.mu.Unlock()
	return len(krl.entries)
}

// Stop shuts down the janitor. Safe to call more than once.
func (krl *KeyedRateLimiter) Stop() {
	krl.stopOnce.Do(func() {
		close(krl.done)
	})
}

func (krl *KeyedRateLimiter) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-krl.done:
			return
		case <-ticker.C:
			krl.sweep()
		}
	}
}

// sweep evicts keys idle for longer than idleTTL.
func (krl *KeyedRateLimiter) sweep() int {
	krl.mu.Lock()
	defer krl.mu.Unlock()

	cutoff := krl.now().Add(-krl.idleTTL)
	evicted := 0
	for key, e := range krl.entries {
		if e.lastSeen.Before(cutoff) {
			delete(krl.entries, key)
			evicted++
		}
	}
	return evicted
}
