// Package retry runs an operation under a bounded exponential backoff policy.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Policy describes how many times an operation is attempted and how long to wait between attempts.
// The wait before attempt n+1 is BaseDelay*Factor^(n-1) plus Jitter of that delay.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Factor      float64
	Jitter      func(time.Duration) time.Duration
	// Sleep waits for d or until ctx is done. Defaults to a timer-based sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy returns three attempts, a one second base delay doubling each time, with up to 20% jitter.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Factor:      2,
		Jitter:      RatioJitter(0.2),
	}
}

// RatioJitter returns a jitter function adding a random fraction in [0, ratio) of the delay.
// Additive-only jitter keeps successive delays non-decreasing when Factor >= 1+ratio.
func RatioJitter(ratio float64) func(time.Duration) time.Duration {
	return func(d time.Duration) time.Duration {
		if d <= 0 || ratio <= 0 {
			return 0
		}
		return time.Duration(rand.Float64() * ratio * float64(d))
	}
}

// NoJitter disables jitter.
func NoJitter(time.Duration) time.Duration { return 0 }

// Delay returns the wait before the attempt following attempt number n (1-based), jitter included.
func (p Policy) Delay(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	factor := p.Factor
	if factor < 1 {
		factor = 1
	}
	d := time.Duration(float64(p.BaseDelay) * math.Pow(factor, float64(n-1)))
	if p.Jitter != nil {
		d += p.Jitter(d)
	}
	return d
}

// Error reports the last failure of an exhausted retry loop.
type Error struct {
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Do runs op until it succeeds, the attempt budget is spent, or ctx is done.
// It returns the number of attempts made. A failure after the budget is spent is a *Error.
func Do(ctx context.Context, p Policy, op func(ctx context.Context, attempt int) error) (int, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt - 1, err
		}
		lastErr = op(ctx, attempt)
		if lastErr == nil {
			return attempt, nil
		}
		if attempt == maxAttempts {
			break
		}
		if err := sleep(ctx, p.Delay(attempt)); err != nil {
			return attempt, err
		}
	}
	return maxAttempts, &Error{Attempts: maxAttempts, Err: lastErr}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
