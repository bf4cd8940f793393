package ratelimit_test

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/akorchak/fleet-dispatch/internal/ratelimit"
)

// fakeClock is a manually advanced clock for deterministic limiter tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func TestLimiter_BlocksWithinInterval(t *testing.T) {
	clock := newFakeClock()
	l := ratelimit.NewWithClock(5*time.Second, clock.Now)
	key := uuid.New()

	assert.True(t, l.Allow(key), "first event is always allowed")

	clock.Advance(2 * time.Second)
	assert.False(t, l.Allow(key), "second event within interval is blocked")

	clock.Advance(3 * time.Second)
	assert.True(t, l.Allow(key), "allowed again once the interval has elapsed")
}

func TestLimiter_DeniedEventDoesNotExtendWindow(t *testing.T) {
	clock := newFakeClock()
	l := ratelimit.NewWithClock(5*time.Second, clock.Now)
	key := uuid.New()

	assert.True(t, l.Allow(key))

	// Hammering during the window must not push the next allowed slot out.
	for i := 0; i < 4; i++ {
		clock.Advance(time.Second)
		assert.False(t, l.Allow(key))
	}

	clock.Advance(time.Second) // 5s since the accepted event
	assert.True(t, l.Allow(key))
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	clock := newFakeClock()
	l := ratelimit.NewWithClock(5*time.Second, clock.Now)
	a, b := uuid.New(), uuid.New()

	assert.True(t, l.Allow(a))
	assert.True(t, l.Allow(b), "a different driver is not affected")
	assert.False(t, l.Allow(a))
}

func TestLimiter_Forget(t *testing.T) {
	clock := newFakeClock()
	l := ratelimit.NewWithClock(5*time.Second, clock.Now)
	key := uuid.New()

	assert.True(t, l.Allow(key))
	l.Forget(key)
	assert.True(t, l.Allow(key), "forgotten keys start fresh")
}

func TestLimiter_ConcurrentAccess(t *testing.T) {
	l := ratelimit.New(time.Nanosecond)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := uuid.New()
			for j := 0; j < 100; j++ {
				l.Allow(key)
			}
		}()
	}
	wg.Wait()
}
