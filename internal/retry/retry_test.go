package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTransient = errors.New("timeout")
var errFatal = errors.New("http 404")

func isTransient(err error) bool { return errors.Is(err, errTransient) }

// recorder collects the delays a Policy sleeps for without waiting.
type recorder struct {
	delays []time.Duration
}

func (r *recorder) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func newTestPolicy(rec *recorder, jitter int64) *Policy {
	return &Policy{
		Attempts: 3,
		Base:     10 * time.Millisecond,
		Rand:     func(n int64) int64 { return jitter % n },
		Sleep:    rec.sleep,
	}
}

func TestPolicyDo(t *testing.T) {
	t.Run("success on first attempt", func(t *testing.T) {
		rec := &recorder{}
		calls := 0
		err := newTestPolicy(rec, 0).Do(context.Background(), func(ctx context.Context, attempt int) error {
			calls++
			return nil
		}, isTransient)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 1 || len(rec.delays) != 0 {
			t.Errorf("expected 1 call and no waits, got %d calls %v", calls, rec.delays)
		}
	})

	t.Run("transient error retried up to budget", func(t *testing.T) {
		rec := &recorder{}
		calls := 0
		err := newTestPolicy(rec, 0).Do(context.Background(), func(ctx context.Context, attempt int) error {
			calls++
			return errTransient
		}, isTransient)

		if calls != 3 {
			t.Errorf("expected 3 attempts, got %d", calls)
		}
		if !errors.Is(err, ErrExhausted) || !errors.Is(err, errTransient) {
			t.Errorf("expected exhausted error wrapping cause, got %v", err)
		}
		if len(rec.delays) != 2 {
			t.Errorf("expected 2 backoff waits, got %v", rec.delays)
		}
	})

	t.Run("non-retryable error returned immediately", func(t *testing.T) {
		rec := &recorder{}
		calls := 0
		err := newTestPolicy(rec, 0).Do(context.Background(), func(ctx context.Context, attempt int) error {
			calls++
			return errFatal
		}, isTransient)

		if calls != 1 {
			t.Errorf("expected a single attempt, got %d", calls)
		}
		if !errors.Is(err, errFatal) || errors.Is(err, ErrExhausted) {
			t.Errorf("expected bare fatal error, got %v", err)
		}
		if len(rec.delays) != 0 {
			t.Errorf("expected no waits, got %v", rec.delays)
		}
	})

	t.Run("succeeds on third attempt", func(t *testing.T) {
		rec := &recorder{}
		var seen []int
		err := newTestPolicy(rec, 0).Do(context.Background(), func(ctx context.Context, attempt int) error {
			seen = append(seen, attempt)
			if attempt < 3 {
				return errTransient
			}
			return nil
		}, isTransient)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(seen) != 3 || seen[0] != 1 || seen[2] != 3 {
			t.Errorf("unexpected attempt numbers %v", seen)
		}
	})

	t.Run("nil predicate never retries", func(t *testing.T) {
		calls := 0
		_ = newTestPolicy(&recorder{}, 0).Do(context.Background(), func(ctx context.Context, attempt int) error {
			calls++
			return errTransient
		}, nil)
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})

	t.Run("cancelled context aborts backoff", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		calls := 0
		err := newTestPolicy(&recorder{}, 0).Do(ctx, func(ctx context.Context, attempt int) error {
			calls++
			return errTransient
		}, isTransient)

		if calls != 1 {
			t.Errorf("expected 1 call before abort, got %d", calls)
		}
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestPolicyDelay(t *testing.T) {
	t.Run("exponential without jitter", func(t *testing.T) {
		p := newTestPolicy(&recorder{}, 0)
		want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond}
		for i, w := range want {
			if got := p.Delay(i + 1); got != w {
				t.Errorf("Delay(%d) = %v, want %v", i+1, got, w)
			}
		}
	})

	t.Run("jitter stays within [delay, 2*delay)", func(t *testing.T) {
		p := &Policy{Base: 10 * time.Millisecond, Rand: func(n int64) int64 { return n - 1 }}
		for attempt := 1; attempt <= 3; attempt++ {
			base := p.Backoff(attempt)
			got := p.Delay(attempt)
			if got < base || got >= 2*base {
				t.Errorf("Delay(%d) = %v outside [%v, %v)", attempt, got, base, 2*base)
			}
		}
	})

	t.Run("default random source respects bounds", func(t *testing.T) {
		p := &Policy{Base: time.Millisecond}
		for i := 0; i < 100; i++ {
			got := p.Delay(2)
			if got < 2*time.Millisecond || got >= 4*time.Millisecond {
				t.Fatalf("Delay(2) = %v outside [2ms, 4ms)", got)
			}
		}
	})

	t.Run("capped at Max", func(t *testing.T) {
		p := &Policy{Base: time.Second, Max: 3 * time.Second}
		if got := p.Backoff(5); got != 3*time.Second {
			t.Errorf("Backoff(5) = %v, want 3s", got)
		}
	})

	t.Run("recorded waits match schedule", func(t *testing.T) {
		rec := &recorder{}
		p := newTestPolicy(rec, 3*int64(time.Millisecond))
		_ = p.Do(context.Background(), func(ctx context.Context, attempt int) error { return errTransient }, isTransient)

		want := []time.Duration{13 * time.Millisecond, 23 * time.Millisecond}
		if len(rec.delays) != len(want) {
			t.Fatalf("expected %d waits, got %v", len(want), rec.delays)
		}
		for i := range want {
			if rec.delays[i] != want[i] {
				t.Errorf("wait %d = %v, want %v", i, rec.delays[i], want[i])
			}
		}
	})
}

func TestDoValue(t *testing.T) {
	p := newTestPolicy(&recorder{}, 0)
	got, err := DoValue(context.Background(), p, func(ctx context.Context, attempt int) ([]byte, error) {
		if attempt == 1 {
			return nil, errTransient
		}
		return []byte("ok"), nil
	}, isTransient)

	if err != nil || string(got) != "ok" {
		t.Fatalf("DoValue() = %q, %v", got, err)
	}
}

func TestZeroPolicyDefaults(t *testing.T) {
	var p *Policy
	if p.attempts() != DefaultAttempts {
		t.Errorf("expected default attempts %d", DefaultAttempts)
	}
	if p.Backoff(1) != DefaultBase {
		t.Errorf("expected default base %v, got %v", DefaultBase, p.Backoff(1))
	}
}
