package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/castforge/castforge/internal/core/domain"
	"github.com/castforge/castforge/internal/metrics"
	"github.com/castforge/castforge/internal/provider"
)

// Chain is an ordered sequence of providers tried in turn. Order is
// deterministic: the preferred provider (when present) sits at the
// front, the rest keep their configured relative order.
type Chain struct {
	Providers []provider.Provider
	Preferred string
}

// BuildChain constructs a chain from the configured ordering and an
// optional preferred-provider hint. Duplicate names are rejected.
func BuildChain(providers []provider.Provider, preferred string) (Chain, error) {
	seen := make(map[string]bool, len(providers))
	for _, p := range providers {
		if seen[p.Name()] {
			return Chain{}, fmt.Errorf("duplicate provider in chain: %s", p.Name())
		}
		seen[p.Name()] = true
	}

	ordered := make([]provider.Provider, 0, len(providers))
	if preferred != "" {
		for _, p := range providers {
			if p.Name() == preferred {
				ordered = append(ordered, p)
				break
			}
		}
	}
	for _, p := range providers {
		if p.Name() != preferred {
			ordered = append(ordered, p)
		}
	}

	return Chain{Providers: ordered, Preferred: preferred}, nil
}

// Outcome is a successful fallback-chain result.
type Outcome struct {
	Payload any
	Meta    domain.CallMetadata
}

// InvokeFunc performs the capability-specific call against one
// provider. The context it receives already carries the provider's
// per-invocation timeout.
type InvokeFunc func(ctx context.Context, p provider.Provider) (any, error)

// Executor walks a fallback chain, running each provider under the
// retry controller until one succeeds.
type Executor struct {
	retrier *Retrier
	logger  *slog.Logger
}

// NewExecutor creates an executor on top of a retrier.
func NewExecutor(retrier *Retrier) *Executor {
	return &Executor{
		retrier: retrier,
		logger:  slog.Default().With("component", "fallback"),
	}
}

// Run tries each provider in chain order. Unavailable providers are
// skipped without counting as failures. The first success
// short-circuits; full exhaustion returns a *ChainError.
func (e *Executor) Run(
	ctx context.Context,
	capability string,
	operation string,
	chain Chain,
	policy RetryPolicy,
	invoke InvokeFunc,
) (*Outcome, error) {
	start := time.Now()
	var attempted []string
	var lastErr error

	for _, p := range chain.Providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !p.Available() {
			e.logger.Info("Skipping unavailable provider",
				"capability", capability, "provider", p.Name())
			continue
		}

		attempted = append(attempted, p.Name())
		metrics.ProviderCallsTotal.WithLabelValues(capability, p.Name()).Inc()

		info := OpInfo{Operation: operation, Capability: capability, Provider: p.Name()}
		payload, err := e.retrier.Execute(ctx, info, policy, func(ctx context.Context) (any, error) {
			callCtx := ctx
			if t := p.Timeout(); t > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(ctx, t)
				defer cancel()
			}
			return invoke(callCtx, p)
		})
		if err == nil {
			fallbackUsed := chain.Preferred != "" && p.Name() != chain.Preferred
			if fallbackUsed {
				metrics.FallbacksTotal.WithLabelValues(capability).Inc()
				e.logger.Info("Served by fallback provider",
					"capability", capability,
					"provider", p.Name(),
					"preferred", chain.Preferred,
				)
			}
			return &Outcome{
				Payload: payload,
				Meta: domain.CallMetadata{
					Provider:         p.Name(),
					OriginalProvider: chain.Preferred,
					FallbackUsed:     fallbackUsed,
					ProcessingTime:   time.Since(start),
				},
			}, nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
		}

		lastErr = err
		e.logger.Warn("Provider exhausted, moving to next",
			"capability", capability, "provider", p.Name(), "error", err)
	}

	last := domain.Classification{
		Code:       domain.CodeServiceUnavailable,
		Severity:   domain.SeverityCritical,
		Retryable:  false,
		Suggestion: "No provider is configured or available for this capability.",
		Timestamp:  time.Now(),
	}
	if ce, ok := AsClassified(lastErr); ok {
		last = ce.Classification
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no available provider for %s", capability)
	}

	return nil, &ChainError{
		Capability: capability,
		Attempted:  attempted,
		Last:       last,
		Err:        lastErr,
	}
}
