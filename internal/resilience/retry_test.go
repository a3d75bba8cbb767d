package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func fastPolicy(attempts int) Policy {
	return Policy{Attempts: attempts, Initial: time.Millisecond, Max: 5 * time.Millisecond, Multiplier: 2}
}

func TestRetry_SuccessOnFirstAttempt(t *testing.T) {
	var calls int
	v, err := Retry(context.Background(), DefaultPolicy(), func(_ context.Context) (int, error) {
		calls++
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 || calls != 1 {
		t.Errorf("expected 42 after 1 call, got %d after %d", v, calls)
	}
}

func TestRetry_SuccessAfterTransient(t *testing.T) {
	var calls int
	var retried []int
	p := fastPolicy(3)
	p.OnRetry = func(attempt int, _ error) { retried = append(retried, attempt) }

	v, err := Retry(context.Background(), p, func(_ context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", Transient(errors.New("temporary"))
		}
		return "page-1", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "page-1" || calls != 3 {
		t.Errorf("expected page-1 after 3 calls, got %q after %d", v, calls)
	}
	if len(retried) != 2 || retried[0] != 1 || retried[1] != 2 {
		t.Errorf("unexpected retry attempts: %v", retried)
	}
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	var calls int
	_, err := Retry(context.Background(), fastPolicy(4), func(_ context.Context) (int, error) {
		calls++
		return 0, Transient(fmt.Errorf("attempt %d", calls))
	})
	if err == nil || err.Error() != "attempt 4" {
		t.Errorf("expected last error, got %v", err)
	}
	if calls != 4 {
		t.Errorf("expected 4 calls, got %d", calls)
	}
}

func TestRetry_PermanentErrorStops(t *testing.T) {
	var calls int
	_, err := Retry(context.Background(), fastPolicy(5), func(_ context.Context) (int, error) {
		calls++
		return 0, errors.New("validation_error: bad property")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_CustomRetryable(t *testing.T) {
	var calls int
	p := fastPolicy(3)
	p.Retryable = func(error) bool { return true }

	_, _ = Retry(context.Background(), p, func(_ context.Context) (int, error) {
		calls++
		return 0, errors.New("anything")
	})
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	_, err := Retry(ctx, Policy{Attempts: 5, Initial: time.Hour}, func(_ context.Context) (int, error) {
		calls++
		cancel()
		return 0, Transient(errors.New("temporary"))
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestPolicy_BackoffCapped(t *testing.T) {
	p := Policy{Initial: 100 * time.Millisecond, Max: time.Second, Multiplier: 10}.withDefaults()
	if got := p.backoff(0); got != 100*time.Millisecond {
		t.Errorf("attempt 0: got %v", got)
	}
	if got := p.backoff(5); got != time.Second {
		t.Errorf("attempt 5: expected cap, got %v", got)
	}
}

func TestPolicy_BackoffJitterBounds(t *testing.T) {
	p := Policy{Initial: 100 * time.Millisecond, Multiplier: 2, Jitter: 0.5}.withDefaults()
	for i := 0; i < 50; i++ {
		d := p.backoff(1)
		if d < 100*time.Millisecond || d > 300*time.Millisecond {
			t.Fatalf("jittered backoff %v out of range", d)
		}
	}
}
