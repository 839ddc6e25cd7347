package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"slidecast/internal/services"
	"slidecast/internal/services/retry"
)

func noSleep() retry.Option {
	return retry.WithSleeper(func(ctx context.Context, d time.Duration) error { return ctx.Err() })
}

func TestDoRetriesRecoverableFailures(t *testing.T) {
	policy := retry.NewPolicy(3, time.Second, 10*time.Second, noSleep())
	attempts := 0
	err := policy.Do(context.Background(), func(ctx context.Context, attempt int) error {
		attempts++
		if attempts < 3 {
			return services.Wrap(services.ErrNetwork, "generate", "", "", errors.New("refused"))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestDoStopsOnNonRecoverable(t *testing.T) {
	policy := retry.NewPolicy(3, time.Second, 10*time.Second, noSleep())
	attempts := 0
	wantErr := services.Wrap(services.ErrValidation, "upload", "", "unsupported type", nil)
	err := policy.Do(context.Background(), func(ctx context.Context, attempt int) error {
		attempts++
		return wantErr
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestDoExhaustsBudget(t *testing.T) {
	policy := retry.NewPolicy(2, time.Second, 10*time.Second, noSleep())
	attempts := 0
	err := policy.Do(context.Background(), func(ctx context.Context, attempt int) error {
		attempts++
		return services.Wrap(services.ErrTimeout, "transcribe", "", "", nil)
	})
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestDoHonorsContextDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := retry.NewPolicy(3, time.Second, 10*time.Second, retry.WithSleeper(func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}))
	err := policy.Do(ctx, func(ctx context.Context, attempt int) error {
		return services.Wrap(services.ErrNetwork, "generate", "", "", nil)
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}

func TestDelayGrowsAndCaps(t *testing.T) {
	var delays []time.Duration
	policy := retry.NewPolicy(5, 2*time.Second, 10*time.Second,
		retry.WithSleeper(func(ctx context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		}),
		retry.WithRand(func() float64 { return 1.0 }),
	)
	_ = policy.Do(context.Background(), func(ctx context.Context, attempt int) error {
		return services.Wrap(services.ErrTransient, "generate", "", "", nil)
	})
	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 10 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("expected %d sleeps, got %d", len(want), len(delays))
	}
	for i, d := range delays {
		if d != want[i] {
			t.Fatalf("sleep %d: expected %s, got %s", i, want[i], d)
		}
	}
}

func TestDelayJitterStaysInRange(t *testing.T) {
	var got time.Duration
	policy := retry.NewPolicy(2, 2*time.Second, 10*time.Second,
		retry.WithSleeper(func(ctx context.Context, d time.Duration) error {
			got = d
			return nil
		}),
		retry.WithRand(func() float64 { return 0 }),
	)
	_ = policy.Do(context.Background(), func(ctx context.Context, attempt int) error {
		return services.Wrap(services.ErrTransient, "generate", "", "", nil)
	})
	if got != time.Second {
		t.Fatalf("expected lower jitter bound of 1s, got %s", got)
	}
}
