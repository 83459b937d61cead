// Package ratelimit admits upstream requests against a sliding-window quota.
//
// A request is charged when it is admitted, not when it completes. Limiters
// never block: a denied caller skips the request and may try again on a later
// cycle.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrInvalidConfiguration is returned when a limiter is built with a
// non-positive quota or window.
var ErrInvalidConfiguration = errors.New("invalid rate limiter configuration")

// Limiter is the admission contract consumed by collectors.
type Limiter interface {
	// Allow reports whether one request may proceed now. A true result has
	// already been charged against the current window.
	Allow(ctx context.Context) bool

	// Remaining returns how many requests the current window can still admit.
	Remaining(ctx context.Context) int
}

// SlidingWindow is an in-process Limiter. It is safe for concurrent use.
//
// Timestamps whose age is greater than or equal to the window are evicted
// before every check, so a request made exactly one window ago no longer
// counts.
type SlidingWindow struct {
	mu          sync.Mutex
	maxRequests int
	window      time.Duration
	timestamps  []time.Time
	now         func() time.Time
}

// Option configures a SlidingWindow.
type Option func(*SlidingWindow)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(w *SlidingWindow) { w.now = now }
}

// NewSlidingWindow creates a limiter admitting at most maxRequests within any
// window-long interval.
func NewSlidingWindow(maxRequests int, window time.Duration, opts ...Option) (*SlidingWindow, error) {
	if err := validate(maxRequests, window); err != nil {
		return nil, err
	}

	w := &SlidingWindow{
		maxRequests: maxRequests,
		window:      window,
		timestamps:  make([]time.Time, 0, maxRequests),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

func validate(maxRequests int, window time.Duration) error {
	if maxRequests <= 0 {
		return fmt.Errorf("%w: max requests must be positive, got %d", ErrInvalidConfiguration, maxRequests)
	}
	if window <= 0 {
		return fmt.Errorf("%w: time window must be positive, got %s", ErrInvalidConfiguration, window)
	}
	return nil
}

// Allow implements Limiter.
func (w *SlidingWindow) Allow(_ context.Context) bool {
	if w.maxRequests <= 0 {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.evict(now)
	if len(w.timestamps) >= w.maxRequests {
		return false
	}
	w.timestamps = append(w.timestamps, now)
	return true
}

// Remaining implements Limiter.
func (w *SlidingWindow) Remaining(_ context.Context) int {
	if w.maxRequests <= 0 {
		return 0
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.evict(w.now())
	return w.maxRequests - len(w.timestamps)
}

// MaxRequests returns the configured quota.
func (w *SlidingWindow) MaxRequests() int { return w.maxRequests }

// Window returns the configured window length.
func (w *SlidingWindow) Window() time.Duration { return w.window }

// evict drops expired timestamps. Caller holds mu.
func (w *SlidingWindow) evict(now time.Time) {
	cutoff := 0
	for cutoff < len(w.timestamps) && now.Sub(w.timestamps[cutoff]) >= w.window {
		cutoff++
	}
	if cutoff > 0 {
		w.timestamps = append(w.timestamps[:0], w.timestamps[cutoff:]...)
	}
}
