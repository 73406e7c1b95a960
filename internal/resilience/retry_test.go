package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/castforge/castforge/internal/core/domain"
)

func fastPolicy(maxRetries int) RetryPolicy {
	return RetryPolicy{
		MaxRetries:         maxRetries,
		BaseDelay:          time.Millisecond,
		MaxDelay:           5 * time.Millisecond,
		ExponentialBackoff: true,
	}
}

func newTestRetrier() *Retrier {
	return NewRetrier(newTestClassifier())
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	result, err := newTestRetrier().Execute(context.Background(), OpInfo{}, fastPolicy(3),
		func(ctx context.Context) (any, error) {
			calls++
			if calls <= 2 {
				return nil, errors.New("connection refused")
			}
			return "ok", nil
		})

	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if result != "ok" {
		t.Errorf("result = %v, want ok", result)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3 (2 failures + 1 success)", calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := newTestRetrier().Execute(context.Background(), OpInfo{}, fastPolicy(3),
		func(ctx context.Context) (any, error) {
			calls++
			return nil, errors.New("503 service unavailable")
		})

	if calls != 4 {
		t.Errorf("calls = %d, want 4 (MaxRetries+1)", calls)
	}

	ce, ok := AsClassified(err)
	if !ok {
		t.Fatalf("error is %T, want *ClassifiedError", err)
	}
	if ce.Classification.Code != domain.CodeServiceUnavailable {
		t.Errorf("code = %s, want SERVICE_UNAVAILABLE", ce.Classification.Code)
	}
}

func TestRetryNonRetryableFailsImmediately(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code domain.ErrorCode
	}{
		{"auth", errors.New("401 unauthorized"), domain.CodeAuthError},
		{"validation", errors.New("400 bad request"), domain.CodeValidationError},
		{"content policy", errors.New("flagged by moderation"), domain.CodeContentPolicy},
		{"unknown", errors.New("mystery failure"), domain.CodeUnknownError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			_, err := newTestRetrier().Execute(context.Background(), OpInfo{}, fastPolicy(3),
				func(ctx context.Context) (any, error) {
					calls++
					return nil, tt.err
				})

			if calls != 1 {
				t.Errorf("calls = %d, want 1 (no retries)", calls)
			}
			ce, ok := AsClassified(err)
			if !ok {
				t.Fatalf("error is %T, want *ClassifiedError", err)
			}
			if ce.Classification.Code != tt.code {
				t.Errorf("code = %s, want %s", ce.Classification.Code, tt.code)
			}
		})
	}
}

func TestRetryableCodesOverride(t *testing.T) {
	policy := fastPolicy(2)
	policy.RetryableCodes = map[domain.ErrorCode]bool{
		domain.CodeValidationError: true,
	}

	calls := 0
	newTestRetrier().Execute(context.Background(), OpInfo{}, policy,
		func(ctx context.Context) (any, error) {
			calls++
			return nil, errors.New("400 bad request")
		})
	if calls != 3 {
		t.Errorf("calls = %d, want 3 (override makes validation retryable)", calls)
	}

	calls = 0
	newTestRetrier().Execute(context.Background(), OpInfo{}, policy,
		func(ctx context.Context) (any, error) {
			calls++
			return nil, errors.New("connection refused")
		})
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (override excludes network errors)", calls)
	}
}

func TestRetryContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	policy := fastPolicy(5)
	policy.BaseDelay = time.Second
	policy.MaxDelay = time.Second

	calls := 0
	done := make(chan error, 1)
	go func() {
		_, err := newTestRetrier().Execute(ctx, OpInfo{}, policy,
			func(ctx context.Context) (any, error) {
				calls++
				return nil, errors.New("connection refused")
			})
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Execute did not return after cancellation")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (cancelled during first backoff)", calls)
	}
}

func TestBackoffDelayGrowsAndCaps(t *testing.T) {
	policy := RetryPolicy{
		BaseDelay:          100 * time.Millisecond,
		MaxDelay:           time.Second,
		ExponentialBackoff: true,
	}

	prevMax := time.Duration(0)
	for attempt := 0; attempt < 6; attempt++ {
		d := backoffDelay(attempt, policy)

		exp := policy.BaseDelay * (1 << attempt)
		wantMax := min(time.Duration(float64(exp)*1.1), policy.MaxDelay)
		wantMin := min(exp, policy.MaxDelay)

		if d < wantMin || d > wantMax {
			t.Errorf("attempt %d: delay = %v, want in [%v, %v]", attempt, d, wantMin, wantMax)
		}
		if d > policy.MaxDelay {
			t.Errorf("attempt %d: delay %v exceeds cap %v", attempt, d, policy.MaxDelay)
		}
		if wantMin > prevMax && d < prevMax {
			t.Errorf("attempt %d: delay %v shrank below previous bound %v", attempt, d, prevMax)
		}
		prevMax = wantMax
	}
}

func TestBackoffDelayLargeAttemptCapped(t *testing.T) {
	policy := RetryPolicy{
		BaseDelay:          time.Second,
		MaxDelay:           10 * time.Second,
		ExponentialBackoff: true,
	}
	for _, attempt := range []int{30, 62, 63, 64, 128} {
		if d := backoffDelay(attempt, policy); d != policy.MaxDelay {
			t.Errorf("attempt %d: delay = %v, want %v", attempt, d, policy.MaxDelay)
		}
	}
}

func TestBackoffDisabled(t *testing.T) {
	policy := RetryPolicy{
		BaseDelay:          100 * time.Millisecond,
		MaxDelay:           time.Second,
		ExponentialBackoff: false,
	}
	for attempt := 0; attempt < 4; attempt++ {
		if d := backoffDelay(attempt, policy); d != policy.BaseDelay {
			t.Errorf("attempt %d: delay = %v, want constant %v", attempt, d, policy.BaseDelay)
		}
	}
}
