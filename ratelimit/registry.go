package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"dqx0.com/go/httpcore/internal/obs"
)

const (
	DefaultLimit         = 100
	DefaultWindow        = time.Minute
	DefaultIdleTTL       = 5 * time.Minute
	DefaultSweepInterval = time.Minute
)

// Registry maps client identifiers to their windows. Windows are created on
// first contact and evicted by Sweep once idle for longer than the idle TTL.
// A Registry is safe for concurrent use.
type Registry struct {
	limit   int
	window  time.Duration
	idleTTL time.Duration
	clock   Clock
	logger  zerolog.Logger
	meter   obs.Meter

	windows sync.Map // string -> *Window
}

// Option configures a Registry.
type Option func(*Registry)

// WithLimit sets the number of requests admitted per window.
func WithLimit(n int) Option { return func(r *Registry) { r.limit = n } }

// WithWindow sets the window length.
func WithWindow(d time.Duration) Option { return func(r *Registry) { r.window = d } }

// WithIdleTTL sets how long an unused window is kept. Zero disables eviction.
func WithIdleTTL(d time.Duration) Option { return func(r *Registry) { r.idleTTL = d } }

func WithClock(c Clock) Option { return func(r *Registry) { r.clock = c } }

func WithLogger(l zerolog.Logger) Option { return func(r *Registry) { r.logger = l } }

func WithMeter(m obs.Meter) Option { return func(r *Registry) { r.meter = m } }

// New returns a Registry admitting DefaultLimit requests per DefaultWindow
// unless overridden by opts.
func New(opts ...Option) *Registry {
	r := &Registry{
		limit:   DefaultLimit,
		window:  DefaultWindow,
		idleTTL: DefaultIdleTTL,
		clock:   SystemClock{},
		logger:  obs.Nop(),
		meter:   obs.NopMeter{},
	}
	for _, o := range opts {
		o(r)
	}
	if r.limit < 0 {
		r.limit = 0
	}
	if r.window <= 0 {
		r.window = DefaultWindow
	}
	return r
}

// Allow reports whether clientID may make another request now. Denial is a
// normal outcome and never an error.
func (r *Registry) Allow(clientID string) bool {
	for {
		w := r.get(clientID)
		w.mu.Lock()
		allowed, ok := w.allowLocked(r.clock.Now())
		w.mu.Unlock()
		if !ok {
			// Lost a race with Sweep; the next get creates a fresh window.
			r.windows.CompareAndDelete(clientID, w)
			continue
		}
		if allowed {
			r.meter.Counter("httpcore_ratelimit_decisions_total", 1, obs.Label{Key: "decision", Value: "allow"})
		} else {
			r.meter.Counter("httpcore_ratelimit_decisions_total", 1, obs.Label{Key: "decision", Value: "deny"})
			r.logger.Debug().Str("client", clientID).Msg("rate limit exceeded")
		}
		return allowed
	}
}

// IsRequestAllowed is Allow.
func (r *Registry) IsRequestAllowed(clientID string) bool { return r.Allow(clientID) }

// Remaining returns how many requests clientID may still make in its
// current window. Unknown clients get the full limit.
func (r *Registry) Remaining(clientID string) int {
	v, ok := r.windows.Load(clientID)
	if !ok {
		return r.limit
	}
	return v.(*Window).Remaining(r.clock.Now())
}

// RetryAfter returns how long clientID has to wait before its next request
// is admitted.
func (r *Registry) RetryAfter(clientID string) time.Duration {
	v, ok := r.windows.Load(clientID)
	if !ok {
		return 0
	}
	return v.(*Window).RetryAfter(r.clock.Now())
}

// Limit returns the per-window request ceiling.
func (r *Registry) Limit() int { return r.limit }

// Len returns the number of tracked clients.
func (r *Registry) Len() int {
	n := 0
	r.windows.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (r *Registry) get(clientID string) *Window {
	if v, ok := r.windows.Load(clientID); ok {
		return v.(*Window)
	}
	w := NewWindow(r.limit, r.window, r.clock.Now())
	actual, _ := r.windows.LoadOrStore(clientID, w)
	return actual.(*Window)
}

// Sweep evicts windows idle for longer than the idle TTL and returns how
// many were removed.
func (r *Registry) Sweep() int {
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := r.clock.Now().Add(-r.idleTTL)
	n := 0
	r.windows.Range(func(k, v any) bool {
		w := v.(*Window)
		if w.evictIfIdle(cutoff) {
			r.windows.CompareAndDelete(k, w)
			n++
		}
		return true
	})
	if n > 0 {
		r.meter.Counter("httpcore_ratelimit_evictions_total", float64(n))
		r.logger.Debug().Int("evicted", n).Msg("swept idle rate limit windows")
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Sweep()
		}
	}
}
