// Package ratelimit implements a fixed-window request limiter keyed by caller identity.
//
// Each key owns a Record {Count, WindowStart}. A request inside a live window
// increments Count until it reaches the maximum, after which requests are
// rejected without touching the record. The first request at or after
// WindowStart+window replaces the record with {1, now}; windows never slide.
// Bursts of up to 2*max requests can therefore straddle a window boundary.
package ratelimit

import (
	"context"
	"log"
	"time"
)

const (
	DefaultWindow = 60 * time.Second
	DefaultMax    = 5

	// UnknownKey is the bucket shared by every caller without a usable identity.
	UnknownKey = "unknown"
)

// Record is the per-key fixed-window state.
type Record struct {
	Count       int
	WindowStart time.Time
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed bool
	Count   int // requests counted in the current window, never above Limit
	Limit   int
	ResetAt time.Time
}

// Remaining returns how many more requests the current window admits.
func (d Decision) Remaining() int {
	if r := d.Limit - d.Count; r > 0 {
		return r
	}
	return 0
}

// RetryAfter is the time left until the window resets, relative to now.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	if wait := d.ResetAt.Sub(now); wait > 0 {
		return wait
	}
	return 0
}

// Store applies one fixed-window hit for key atomically.
type Store interface {
	Hit(ctx context.Context, key string, now time.Time, window time.Duration, max int) (Decision, error)
}

// Sweeper is implemented by stores that hold expired records in memory.
type Sweeper interface {
	Sweep(now time.Time, window time.Duration) int
}

// Limiter applies the fixed-window policy through a Store.
type Limiter struct {
	store  Store
	window time.Duration
	max    int
	now    func() time.Time
}

// NewLimiter returns a limiter admitting max requests per window per key.
// Non-positive values fall back to DefaultWindow and DefaultMax.
func NewLimiter(store Store, window time.Duration, max int) *Limiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if max <= 0 {
		max = DefaultMax
	}
	return &Limiter{store: store, window: window, max: max, now: time.Now}
}

// WithClock replaces the limiter's time source. Intended for tests.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Window is the length of each fixed window.
func (l *Limiter) Window() time.Duration { return l.window }

// Max is how many requests a key may make per window.
func (l *Limiter) Max() int { return l.max }

// Now reports the limiter's clock, which WithClock can replace.
func (l *Limiter) Now() time.Time { return l.now() }

// Allow counts one request for key. An empty key is charged to UnknownKey.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	if key == "" {
		key = UnknownKey
	}
	return l.store.Hit(ctx, key, l.now(), l.window, l.max)
}

// StartSweeper periodically evicts elapsed records when the store supports it.
// It returns immediately; the sweeper stops when ctx is cancelled.
func (l *Limiter) StartSweeper(ctx context.Context, interval time.Duration) {
	sweeper, ok := l.store.(Sweeper)
	if !ok || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := sweeper.Sweep(l.now(), l.window); n > 0 {
					log.Printf("[RateLimit] Swept %d expired records", n)
				}
			}
		}
	}()
}
