// Package retry implements the bounded exponential backoff used by the
// pipeline stages and export paths. Delays double per attempt up to a cap and
// are jittered to avoid lockstep retries.
package retry

import (
	"context"
	"math/rand"
	"time"

	"slidecast/internal/services"
)

// Sleeper pauses between attempts and is injectable for tests.
type Sleeper func(ctx context.Context, d time.Duration) error

// Policy bounds retries for one operation.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	sleep Sleeper
	rnd   func() float64
}

// Option adjusts policy internals.
type Option func(*Policy)

// WithSleeper overrides the inter-attempt sleep, used by tests to avoid real
// delays.
func WithSleeper(s Sleeper) Option {
	return func(p *Policy) {
		if s != nil {
			p.sleep = s
		}
	}
}

// WithRand overrides the jitter source.
func WithRand(r func() float64) Option {
	return func(p *Policy) {
		if r != nil {
			p.rnd = r
		}
	}
}

// NewPolicy builds a retry policy with the given attempt budget and base
// delay. MaxDelay caps the exponential growth.
func NewPolicy(maxAttempts int, baseDelay, maxDelay time.Duration, opts ...Option) Policy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	if maxDelay <= 0 {
		maxDelay = 10 * time.Second
	}
	p := Policy{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		MaxDelay:    maxDelay,
		sleep:       sleepContext,
		rnd:         rand.Float64,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Do invokes fn until it succeeds, the attempt budget is exhausted, or the
// failure is classified as non-recoverable. The error from the final attempt
// is returned unchanged so sentinel markers survive for classification.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return nil
		}
		if !services.Recoverable(lastErr) {
			return lastErr
		}
		if attempt == p.MaxAttempts {
			break
		}
		if err := p.sleep(ctx, p.delay(attempt)); err != nil {
			return err
		}
	}
	return lastErr
}

// delay computes the jittered backoff following the completed attempt. The
// undistorted delay doubles per attempt, capped at MaxDelay; jitter keeps the
// result in [delay/2, delay).
func (p Policy) delay(attempt int) time.Duration {
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			delay = p.MaxDelay
			break
		}
	}
	jittered := float64(delay) * (0.5 + p.rnd()*0.5)
	return time.Duration(jittered)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
