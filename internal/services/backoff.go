package services

import (
	"context"
	"time"
)

// Backoff is the retry policy shared by provider strategies. Waits grow
// exponentially from Base up to Max and respect context cancellation.
type Backoff struct {
	Base     time.Duration
	Max      time.Duration
	Attempts int
}

// DefaultBackoff keeps provider retries short: upstream outages are handled
// by advancing the fallback chain, not by waiting a provider out.
var DefaultBackoff = Backoff{
	Base:     2 * time.Second,
	Max:      30 * time.Second,
	Attempts: 3,
}

// Delay returns the wait before the given zero-based attempt. Attempt 0 has
// no delay.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	d := b.Base << (attempt - 1)
	if d > b.Max || d <= 0 {
		d = b.Max
	}
	return d
}

// Wait sleeps for the attempt's delay, returning early if ctx is done.
func (b Backoff) Wait(ctx context.Context, attempt int) error {
	d := b.Delay(attempt)
	if d == 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
