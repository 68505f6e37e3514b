package ratelimit

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

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

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 30, 10, 30, 0, 0, time.UTC)}
}

func TestAllowMinuteWindow(t *testing.T) {
	clock := newClock()
	limiter := New(3, 100, WithClock(clock.Now))

	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Allow("10.0.0.1"))
	}

	err := limiter.Allow("10.0.0.1")
	var limitErr *LimitError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, "minute", limitErr.Window.Name)
	assert.Equal(t, 3, limitErr.Window.Limit)
	assert.Contains(t, err.Error(), "3 requests per minute")

	// Other clients are unaffected.
	assert.NoError(t, limiter.Allow("10.0.0.2"))

	clock.Advance(61 * time.Second)
	assert.NoError(t, limiter.Allow("10.0.0.1"))
}

func TestAllowHourWindow(t *testing.T) {
	clock := newClock()
	limiter := New(100, 5, WithClock(clock.Now))

	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.Allow("client"))
		clock.Advance(2 * time.Minute)
	}

	err := limiter.Allow("client")
	var limitErr *LimitError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, "hour", limitErr.Window.Name)

	clock.Advance(time.Hour)
	assert.NoError(t, limiter.Allow("client"))
}

func TestRejectedRequestsAreNotRecorded(t *testing.T) {
	clock := newClock()
	store := NewMemoryStore()
	limiter := New(1, 0, WithClock(clock.Now), WithStore(store))

	require.NoError(t, limiter.Allow("client"))
	for i := 0; i < 5; i++ {
		assert.Error(t, limiter.Allow("client"))
	}

	recent := store.Prune("client", clock.Now().Add(-time.Hour))
	assert.Len(t, recent, 1)
}

func TestDisabledWindows(t *testing.T) {
	limiter := New(0, 0)
	for i := 0; i < 1000; i++ {
		require.NoError(t, limiter.Allow("client"))
	}
}

func TestMemoryStorePrune(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		store.Add("k", base.Add(time.Duration(i)*time.Minute))
	}

	kept := store.Prune("k", base.Add(2*time.Minute))
	require.Len(t, kept, 2)
	assert.Equal(t, base.Add(3*time.Minute), kept[0])

	assert.Nil(t, store.Prune("k", base.Add(time.Hour)))
	assert.Equal(t, 0, store.Keys())
}

func TestMemoryStoreSweep(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.Add("idle", base)
	store.Add("active", base)
	store.Add("active", base.Add(30*time.Minute))

	assert.Equal(t, 1, store.Sweep(base.Add(10*time.Minute)))
	assert.Equal(t, 1, store.Keys())
	assert.Len(t, store.Prune("active", base), 1)
}

func TestAllowSweepsIdleClients(t *testing.T) {
	clock := newClock()
	store := NewMemoryStore()
	limiter := New(10, 100, WithClock(clock.Now), WithStore(store))

	for _, key := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		require.NoError(t, limiter.Allow(key))
	}
	assert.Equal(t, 3, store.Keys())

	// Still inside the hour window: nothing is swept.
	clock.Advance(30 * time.Minute)
	require.NoError(t, limiter.Allow("10.0.0.4"))
	assert.Equal(t, 4, store.Keys())

	// An hour after the first sweep check the first three have gone idle.
	clock.Advance(40 * time.Minute)
	require.NoError(t, limiter.Allow("10.0.0.5"))
	assert.Equal(t, 2, store.Keys())
}

func TestAllowIsSafeForConcurrentUse(t *testing.T) {
	defer goleak.VerifyNone(t)

	limiter := New(50, 0)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.Allow("shared") == nil {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, allowed)
}
