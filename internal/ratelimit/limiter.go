// Package ratelimit provides the per-driver position-update throttle: a
// process-wide store of last-accepted timestamps keyed by driver id. The
// clock is injected so tests can drive time explicitly.
package ratelimit

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Clock returns the current time. Production code passes time.Now; tests
// pass a fake.
type Clock func() time.Time

// Limiter allows at most one event per key per interval.
// It is safe for concurrent use from any number of goroutines; independent
// keys never contend beyond the shared mutex.
type Limiter struct {
	interval time.Duration
	now      Clock

	mu   sync.Mutex
	last map[uuid.UUID]time.Time
}

// New constructs a Limiter with the given minimum interval, using the wall
// clock.
func New(interval time.Duration) *Limiter {
	return NewWithClock(interval, time.Now)
}

// NewWithClock constructs a Limiter with an explicit clock.
func NewWithClock(interval time.Duration, now Clock) *Limiter {
	return &Limiter{
		interval: interval,
		now:      now,
		last:     make(map[uuid.UUID]time.Time),
	}
}

// Allow reports whether an event for key may proceed now. An allowed event
// records its timestamp; a denied one leaves the previous timestamp in
// place, so a burst does not push the window forward.
func (l *Limiter) Allow(key uuid.UUID) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if last, ok := l.last[key]; ok && now.Sub(last) < l.interval {
		return false
	}
	l.last[key] = now
	return true
}

// Forget drops the stored timestamp for key, so the next event is allowed
// immediately. Call it when a driver's trip ends.
func (l *Limiter) Forget(key uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.last, key)
}

// Reset clears all stored timestamps.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.last = make(map[uuid.UUID]time.Time)
}
