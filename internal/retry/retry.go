// Package retry runs fallible operations with jittered exponential backoff.
//
// A [Policy] makes at most Attempts calls. After a failed attempt n it waits
// Base*2^(n-1) plus a random offset in [0, delay) before the next call, but only
// when the caller's predicate classifies the error as retryable. Non-retryable
// errors are returned after the attempt that produced them.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
)

const (
	DefaultAttempts = 3
	DefaultBase     = 200 * time.Millisecond
	DefaultMax      = 5 * time.Second
)

// ErrExhausted marks a retryable error that survived every attempt.
var ErrExhausted = errors.New("retry attempts exhausted")

// Operation is one attempt. attempt is 1-based.
type Operation func(ctx context.Context, attempt int) error

// Retryable classifies an error as transient.
type Retryable func(error) bool

// Policy holds the attempt budget and backoff parameters. The zero value uses the defaults.
type Policy struct {
	Attempts int
	Base     time.Duration
	Max      time.Duration // caps the delay before jitter; 0 means DefaultMax

	// Rand returns a value in [0, n). Defaults to math/rand/v2.
	Rand func(n int64) int64
	// Sleep waits for d or until ctx is done. Defaults to a timer select.
	Sleep func(ctx context.Context, d time.Duration) error

	Logger *log.Logger
}

// New returns a Policy with the given attempts and base delay.
func New(attempts int, base time.Duration) *Policy {
	return &Policy{Attempts: attempts, Base: base}
}

func (p *Policy) attempts() int {
	if p == nil || p.Attempts < 1 {
		return DefaultAttempts
	}
	return p.Attempts
}

// Backoff returns the un-jittered delay after the given failed attempt: Base*2^(attempt-1), capped at Max.
func (p *Policy) Backoff(attempt int) time.Duration {
	base, ceiling := DefaultBase, DefaultMax
	if p != nil {
		if p.Base > 0 {
			base = p.Base
		}
		if p.Max > 0 {
			ceiling = p.Max
		}
	}
	if attempt < 1 {
		attempt = 1
	}

	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= ceiling {
			return ceiling
		}
	}
	if d > ceiling {
		return ceiling
	}
	return d
}

// Delay returns Backoff(attempt) plus jitter drawn from [0, Backoff(attempt)).
func (p *Policy) Delay(attempt int) time.Duration {
	d := p.Backoff(attempt)
	if d <= 0 {
		return 0
	}
	rnd := rand.Int64N
	if p != nil && p.Rand != nil {
		rnd = p.Rand
	}
	return d + time.Duration(rnd(int64(d)))
}

func (p *Policy) sleep(ctx context.Context, d time.Duration) error {
	if p != nil && p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	return Sleep(ctx, d)
}

// Do calls op until it succeeds, returns a non-retryable error, or the attempt budget runs out.
//
// A retryable error from the last attempt is wrapped with [ErrExhausted].
// Context cancellation during a backoff wait returns ctx.Err().
func (p *Policy) Do(ctx context.Context, op Operation, retryable Retryable) error {
	budget := p.attempts()

	var lastErr error
	for attempt := 1; attempt <= budget; attempt++ {
		lastErr = op(ctx, attempt)
		if lastErr == nil {
			return nil
		}

		if retryable == nil || !retryable(lastErr) {
			return lastErr
		}

		if attempt == budget {
			break
		}

		delay := p.Delay(attempt)
		if p != nil && p.Logger != nil {
			p.Logger.Warn("retrying", "attempt", attempt, "max_attempts", budget, "delay", delay, "error", lastErr)
		}

		if err := p.sleep(ctx, delay); err != nil {
			return fmt.Errorf("retry aborted after attempt %d: %w", attempt, err)
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, budget, lastErr)
}

// DoValue is [Policy.Do] for operations that produce a value.
func DoValue[T any](ctx context.Context, p *Policy, op func(ctx context.Context, attempt int) (T, error), retryable Retryable) (T, error) {
	var out T
	err := p.Do(ctx, func(ctx context.Context, attempt int) error {
		v, err := op(ctx, attempt)
		if err != nil {
			return err
		}
		out = v
		return nil
	}, retryable)
	return out, err
}

// Sleep waits for d, returning early with ctx.Err() when ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
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
