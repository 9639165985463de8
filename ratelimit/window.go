// Package ratelimit implements the per-client admission gate: a fixed-window
// request counter per client identifier, held in a process-wide registry.
//
// The window has hard boundaries. A client may burst up to twice the limit
// across a window boundary; that is the expected behavior of the algorithm.
package ratelimit

import (
	"sync"
	"time"
)

// Clock supplies the current time to the limiter.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Window is a fixed-window counter for one client.
type Window struct {
	mu       sync.Mutex
	max      int
	length   time.Duration
	start    time.Time
	count    int
	lastSeen time.Time
	evicted  bool
}

// NewWindow returns a window of the given length admitting max requests,
// whose first window opens at now.
func NewWindow(max int, length time.Duration, now time.Time) *Window {
	return &Window{max: max, length: length, start: now, lastSeen: now}
}

// Allow reports whether a request arriving at now is admitted, and counts it
// if so.
func (w *Window) Allow(now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	allowed, _ := w.allowLocked(now)
	return allowed
}

// allowLocked returns ok=false when the window was evicted from its registry
// and must not be used any more.
func (w *Window) allowLocked(now time.Time) (allowed, ok bool) {
	if w.evicted {
		return false, false
	}
	w.lastSeen = now
	if now.Sub(w.start) >= w.length {
		w.start = now
		w.count = 1
		return true, true
	}
	if w.count < w.max {
		w.count++
		return true, true
	}
	return false, true
}

// Remaining returns how many more requests the current window admits at now.
func (w *Window) Remaining(now time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if now.Sub(w.start) >= w.length {
		return w.max
	}
	if n := w.max - w.count; n > 0 {
		return n
	}
	return 0
}

// RetryAfter returns the time until the current window closes, or zero if a
// request would be admitted at now.
func (w *Window) RetryAfter(now time.Time) time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	elapsed := now.Sub(w.start)
	if elapsed >= w.length || w.count < w.max {
		return 0
	}
	return w.length - elapsed
}

// evictIfIdle marks the window evicted if it has not been used since cutoff.
func (w *Window) evictIfIdle(cutoff time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.lastSeen.After(cutoff) {
		return false
	}
	w.evicted = true
	return true
}
