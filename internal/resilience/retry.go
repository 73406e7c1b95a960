package resilience

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/castforge/castforge/internal/core/domain"
	"github.com/castforge/castforge/internal/metrics"
)

// RetryPolicy configures retry behavior for one operation class.
type RetryPolicy struct {
	MaxRetries         int
	BaseDelay          time.Duration
	MaxDelay           time.Duration
	ExponentialBackoff bool
	// RetryableCodes overrides the default retryable set when non-nil.
	RetryableCodes map[domain.ErrorCode]bool
}

// DefaultRetryPolicy provides sensible defaults: 4 total attempts with
// exponential backoff between 1s and 10s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:         3,
		BaseDelay:          1 * time.Second,
		MaxDelay:           10 * time.Second,
		ExponentialBackoff: true,
	}
}

var defaultRetryable = map[domain.ErrorCode]bool{
	domain.CodeNetworkError:       true,
	domain.CodeRateLimit:          true,
	domain.CodeTimeout:            true,
	domain.CodeServiceUnavailable: true,
	domain.CodeAutomationBlocked:  true,
	domain.CodeInternalError:      true,
}

func (p RetryPolicy) retryable(code domain.ErrorCode) bool {
	if p.RetryableCodes != nil {
		return p.RetryableCodes[code]
	}
	return defaultRetryable[code]
}

// Retrier executes operations under a retry policy, consulting the
// classifier on each failure.
type Retrier struct {
	classifier *Classifier
	logger     *slog.Logger
}

// NewRetrier creates a retrier bound to a classifier.
func NewRetrier(c *Classifier) *Retrier {
	return &Retrier{
		classifier: c,
		logger:     slog.Default().With("component", "retry"),
	}
}

// Execute runs op, retrying retryable failures up to policy limits.
// Total attempts are MaxRetries+1. The returned error is always a
// *ClassifiedError carrying the final classification; cancellation
// surfaces as the context error.
func (r *Retrier) Execute(
	ctx context.Context,
	info OpInfo,
	policy RetryPolicy,
	op func(ctx context.Context) (any, error),
) (any, error) {
	for attempt := 0; ; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		cls := r.classifier.Classify(err, info)
		metrics.ProviderErrorsTotal.WithLabelValues(
			info.Capability, info.Provider, string(cls.Code),
		).Inc()

		if attempt == policy.MaxRetries || !policy.retryable(cls.Code) {
			return nil, &ClassifiedError{Classification: cls, Err: err}
		}

		delay := backoffDelay(attempt, policy)
		r.logger.Warn("Retrying after failure",
			"operation", info.Operation,
			"provider", info.Provider,
			"attempt", attempt+1,
			"max_attempts", policy.MaxRetries+1,
			"code", string(cls.Code),
			"delay", delay,
		)
		metrics.RetriesTotal.WithLabelValues(info.Capability).Inc()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}

// backoffDelay computes the sleep before the next attempt:
// min(maxDelay, baseDelay*2^attempt + jitter), where jitter is uniform
// up to 10% of the exponential term.
func backoffDelay(attempt int, policy RetryPolicy) time.Duration {
	if !policy.ExponentialBackoff {
		return min(policy.BaseDelay, policy.MaxDelay)
	}

	// 1<<attempt wraps past 62 doublings; the cap applies long before.
	if attempt > 62 {
		return policy.MaxDelay
	}
	exp := float64(policy.BaseDelay) * float64(uint64(1)<<uint(attempt))
	if exp >= float64(policy.MaxDelay) {
		return policy.MaxDelay
	}
	jitter := rand.Float64() * 0.1 * exp
	return min(time.Duration(exp+jitter), policy.MaxDelay)
}
