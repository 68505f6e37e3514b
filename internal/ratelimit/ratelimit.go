// Package ratelimit implements per-client sliding-window request limits.
// Limiters are constructed explicitly and injected where they are needed;
// the request log lives behind the Store interface so it can move to a
// shared cache without touching callers.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Store records request timestamps per client key.
type Store interface {
	// Prune drops timestamps for key at or before cutoff and returns those
	// that remain, oldest first.
	Prune(key string, cutoff time.Time) []time.Time
	// Add records a request for key at ts.
	Add(key string, ts time.Time)
	// Sweep forgets every key whose newest request is at or before cutoff
	// and reports how many were removed.
	Sweep(cutoff time.Time) int
}

// Window is a single sliding limit.
type Window struct {
	Name   string
	Length time.Duration
	Limit  int
}

// LimitError is returned when a client has exhausted a window.
type LimitError struct {
	Window Window
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("limit of %d requests per %s exceeded", e.Window.Limit, e.Window.Name)
}

// Limiter enforces every configured window for each client key.
// Keys that go idle are swept at most once per longest window, so the store
// holds at most the clients seen within the last two windows.
type Limiter struct {
	mu        sync.Mutex
	store     Store
	windows   []Window
	now       func() time.Time
	lastSweep time.Time
}

// Option customizes a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithStore replaces the default in-memory store.
func WithStore(store Store) Option {
	return func(l *Limiter) {
		if store != nil {
			l.store = store
		}
	}
}

// New builds a Limiter with minute and hour windows. A non-positive limit
// disables that window.
func New(perMinute, perHour int, opts ...Option) *Limiter {
	l := &Limiter{
		store: NewMemoryStore(),
		now:   time.Now,
	}
	if perMinute > 0 {
		l.windows = append(l.windows, Window{Name: "minute", Length: time.Minute, Limit: perMinute})
	}
	if perHour > 0 {
		l.windows = append(l.windows, Window{Name: "hour", Length: time.Hour, Limit: perHour})
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow records a request for key if every window has room, otherwise it
// returns a *LimitError naming the first exhausted window. Rejected requests
// are not recorded.
func (l *Limiter) Allow(key string) error {
	if len(l.windows) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	longest := l.windows[0].Length
	for _, w := range l.windows[1:] {
		if w.Length > longest {
			longest = w.Length
		}
	}
	switch {
	case l.lastSweep.IsZero():
		l.lastSweep = now
	case now.Sub(l.lastSweep) >= longest:
		l.store.Sweep(now.Add(-longest))
		l.lastSweep = now
	}

	recent := l.store.Prune(key, now.Add(-longest))

	for _, w := range l.windows {
		if countSince(recent, now.Add(-w.Length)) >= w.Limit {
			return &LimitError{Window: w}
		}
	}

	l.store.Add(key, now)
	return nil
}

func countSince(timestamps []time.Time, cutoff time.Time) int {
	count := 0
	for i := len(timestamps) - 1; i >= 0; i-- {
		if !timestamps[i].After(cutoff) {
			break
		}
		count++
	}
	return count
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu       sync.Mutex
	requests map[string][]time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{requests: make(map[string][]time.Time)}
}

// Prune implements Store.
func (s *MemoryStore) Prune(key string, cutoff time.Time) []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	timestamps := s.requests[key]
	idx := 0
	for idx < len(timestamps) && !timestamps[idx].After(cutoff) {
		idx++
	}
	kept := timestamps[idx:]
	if len(kept) == 0 {
		delete(s.requests, key)
		return nil
	}
	s.requests[key] = kept

	out := make([]time.Time, len(kept))
	copy(out, kept)
	return out
}

// Add implements Store.
func (s *MemoryStore) Add(key string, ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[key] = append(s.requests[key], ts)
}

// Sweep implements Store.
func (s *MemoryStore) Sweep(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, timestamps := range s.requests {
		if len(timestamps) == 0 || !timestamps[len(timestamps)-1].After(cutoff) {
			delete(s.requests, key)
			removed++
		}
	}
	return removed
}

// Keys reports how many clients currently have recorded requests.
func (s *MemoryStore) Keys() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}
