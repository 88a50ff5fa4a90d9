package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Result of one hit against a counter.
type Result struct {
	Allowed bool
	// Count is the counter value after the hit; a rejected hit leaves it unchanged.
	Count int64
	// RetryAfter is the time left before the counter expires.
	RetryAfter time.Duration
}

// Store keeps per-key counters with expiry. Hit is a single atomic check-and-increment:
// when the counter is below limit it is incremented and its expiry is reset to window
// from now, otherwise the hit is rejected and the counter is left untouched.
type Store interface {
	Hit(ctx context.Context, key string, limit int64, window time.Duration) (Result, error)
}

// Limiter applies a threshold per client over a sliding window: the window restarts
// with every accepted request, so a client keeps being rejected until it has been
// quiet for a full window after its last accepted request.
type Limiter struct {
	store     Store
	threshold int64
	window    time.Duration
	prefix    string
}

func NewLimiter(store Store, threshold int, window time.Duration) *Limiter {
	return &Limiter{
		store:     store,
		threshold: int64(threshold),
		window:    window,
		prefix:    "ratelimit:",
	}
}

func (l *Limiter) Allow(ctx context.Context, client string) (Result, error) {
	res, err := l.store.Hit(ctx, l.prefix+client, l.threshold, l.window)
	if err != nil {
		return Result{}, fmt.Errorf("rate limit store: %w", err)
	}
	return res, nil
}

func (l *Limiter) Threshold() int64 {
	return l.threshold
}

func (l *Limiter) Window() time.Duration {
	return l.window
}
