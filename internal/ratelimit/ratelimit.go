// Package ratelimit limits how fast a single client may post comments and
// webhook payloads into an instance.
package ratelimit

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

// DefaultIdleTTL is how long an unused client entry is kept.
const DefaultIdleTTL = 10 * time.Minute

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedRateLimiter keeps one token bucket per key (a client address).
// Buckets that stay unused for the idle TTL are evicted.
type KeyedRateLimiter struct {
	clock   clockwork.Clock
	entries map[string]*entry
	done    chan struct{}
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu       sync.Mutex
	stopOnce sync.Once
}

// New creates a keyed limiter allowing perMinute requests per key with the
// given burst. A nil clock means the real clock.
func New(perMinute, burst int, clock clockwork.Clock) *KeyedRateLimiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if burst < 1 {
		burst = 1
	}

	krl := &KeyedRateLimiter{
		clock:   clock,
		entries: make(map[string]*entry),
		done:    make(chan struct{}),
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   burst,
		idleTTL: DefaultIdleTTL,
	}

	go krl.sweepLoop()

	return krl
}

// Allow reports whether a request for key may proceed now.
func (krl *KeyedRateLimiter) Allow(key string) bool {
	now := krl.clock.Now()

	krl.mu.Lock()
	e, ok := krl.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(krl.limit, krl.burst)}
		krl.entries[key] = e
	}
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

// Stop ends the eviction loop.
func (krl *KeyedRateLimiter) Stop() {
	krl.stopOnce.Do(func() {
		close(krl.done)
	})
}

func (krl *KeyedRateLimiter) sweepLoop() {
	ticker := krl.clock.NewTicker(krl.idleTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			krl.sweep(krl.clock.Now())
		case <-krl.done:
			return
		}
	}
}

// sweep drops entries idle since before now minus the TTL.
func (krl *KeyedRateLimiter) sweep(now time.Time) {
	cutoff := now.Add(-krl.idleTTL)

	krl.mu.Lock()
	defer krl.mu.Unlock()
	for key, e := range krl.entries {
		if e.lastSeen.Before(cutoff) {
			delete(krl.entries, key)
		}
	}
}
