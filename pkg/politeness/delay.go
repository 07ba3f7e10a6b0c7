// Package politeness paces outbound page loads. The crawl scheduler waits
// on a Delayer after each successful render, so the request rate against a
// target site is bounded regardless of how long individual renders take.
package politeness

import (
	"context"
	"math/rand"
	"time"
)

// Delayer suspends the caller for a fixed interval, with optional jitter.
// It is safe for concurrent use by multiple goroutines.
type Delayer struct {
	interval time.Duration
	jitter   float64 // 0.0 to 1.0
}

// NewDelayer creates a delayer with the given base interval and jitter
// factor. Jitter must be between 0.0 and 1.0; values outside that range
// are clamped. A zero or negative interval produces a no-op delayer.
func NewDelayer(interval time.Duration, jitter float64) *Delayer {
	if jitter < 0 {
		jitter = 0
	} else if jitter > 1 {
		jitter = 1
	}
	if interval < 0 {
		interval = 0
	}
	return &Delayer{
		interval: interval,
		jitter:   jitter,
	}
}

// Interval returns the configured base interval.
func (d *Delayer) Interval() time.Duration {
	return d.interval
}

// Wait blocks for the configured interval (plus or minus jitter), or until
// the context is canceled, whichever comes first.
func (d *Delayer) Wait(ctx context.Context) error {
	if d.interval == 0 {
		return ctx.Err()
	}

	sleep := d.interval
	if d.jitter > 0 {
		// Random factor in [-1, 1], scaled by the jitter fraction.
		factor := (rand.Float64() * 2) - 1.0
		sleep += time.Duration(float64(d.interval) * d.jitter * factor)
		if sleep < 0 {
			sleep = 0
		}
	}

	timer := time.NewTimer(sleep)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
