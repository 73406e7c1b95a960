package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/castforge/castforge/internal/core/domain"
	"github.com/castforge/castforge/internal/provider"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeProvider struct {
	name      string
	available bool
	timeout   time.Duration
}

func (p *fakeProvider) Name() string           { return p.name }
func (p *fakeProvider) Available() bool        { return p.available }
func (p *fakeProvider) Timeout() time.Duration { return p.timeout }

func chainOf(names ...string) []provider.Provider {
	out := make([]provider.Provider, len(names))
	for i, n := range names {
		out[i] = &fakeProvider{name: n, available: true}
	}
	return out
}

func newTestExecutor() *Executor {
	return NewExecutor(newTestRetrier())
}

// =============================================================================
// Chain construction
// =============================================================================

func TestBuildChainPreferredPromotion(t *testing.T) {
	tests := []struct {
		name      string
		providers []string
		preferred string
		wantOrder []string
	}{
		{"no hint keeps config order", []string{"a", "b", "c"}, "", []string{"a", "b", "c"}},
		{"hint promotes to front", []string{"a", "b", "c"}, "b", []string{"b", "a", "c"}},
		{"hint already first", []string{"a", "b"}, "a", []string{"a", "b"}},
		{"unknown hint keeps order", []string{"a", "b"}, "zzz", []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain, err := BuildChain(chainOf(tt.providers...), tt.preferred)
			if err != nil {
				t.Fatalf("BuildChain error: %v", err)
			}
			if len(chain.Providers) != len(tt.wantOrder) {
				t.Fatalf("chain has %d providers, want %d", len(chain.Providers), len(tt.wantOrder))
			}
			for i, want := range tt.wantOrder {
				if got := chain.Providers[i].Name(); got != want {
					t.Errorf("position %d = %s, want %s", i, got, want)
				}
			}
		})
	}
}

func TestBuildChainRejectsDuplicates(t *testing.T) {
	_, err := BuildChain(chainOf("a", "b", "a"), "")
	if err == nil {
		t.Fatal("BuildChain accepted duplicate provider names")
	}
}

// =============================================================================
// Execution
// =============================================================================

func TestRunFirstProviderServes(t *testing.T) {
	chain, _ := BuildChain(chainOf("primary", "secondary"), "")

	outcome, err := newTestExecutor().Run(context.Background(), "synthesis", "test", chain, fastPolicy(1),
		func(ctx context.Context, p provider.Provider) (any, error) {
			return p.Name() + "-payload", nil
		})

	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if outcome.Payload != "primary-payload" {
		t.Errorf("payload = %v, want primary-payload", outcome.Payload)
	}
	if outcome.Meta.Provider != "primary" {
		t.Errorf("provider = %s, want primary", outcome.Meta.Provider)
	}
	if outcome.Meta.FallbackUsed {
		t.Error("FallbackUsed = true for a first-provider success")
	}
}

func TestRunFallsThroughToNextProvider(t *testing.T) {
	chain, _ := BuildChain(chainOf("a", "b", "c"), "a")

	var invoked []string
	outcome, err := newTestExecutor().Run(context.Background(), "synthesis", "test", chain, fastPolicy(1),
		func(ctx context.Context, p provider.Provider) (any, error) {
			invoked = append(invoked, p.Name())
			if p.Name() != "c" {
				return nil, errors.New("503 service unavailable")
			}
			return "from-c", nil
		})

	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if outcome.Payload != "from-c" {
		t.Errorf("payload = %v, want from-c", outcome.Payload)
	}
	if !outcome.Meta.FallbackUsed {
		t.Error("FallbackUsed = false, want true when the preferred provider failed")
	}
	if outcome.Meta.OriginalProvider != "a" {
		t.Errorf("OriginalProvider = %s, want a", outcome.Meta.OriginalProvider)
	}
	// a retried once (policy MaxRetries=1), b retried once, c served.
	want := []string{"a", "a", "b", "b", "c"}
	if len(invoked) != len(want) {
		t.Fatalf("invocations = %v, want %v", invoked, want)
	}
	for i := range want {
		if invoked[i] != want[i] {
			t.Fatalf("invocations = %v, want %v", invoked, want)
		}
	}
}

func TestRunSkipsUnavailableProviders(t *testing.T) {
	providers := []provider.Provider{
		&fakeProvider{name: "dark", available: false},
		&fakeProvider{name: "lit", available: true},
	}
	chain, _ := BuildChain(providers, "dark")

	var invoked []string
	outcome, err := newTestExecutor().Run(context.Background(), "generation", "test", chain, fastPolicy(0),
		func(ctx context.Context, p provider.Provider) (any, error) {
			invoked = append(invoked, p.Name())
			return "ok", nil
		})

	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(invoked) != 1 || invoked[0] != "lit" {
		t.Errorf("invoked = %v, want [lit] only", invoked)
	}
	if !outcome.Meta.FallbackUsed {
		t.Error("FallbackUsed = false; the preferred provider never served")
	}
}

func TestRunNonRetryableSkipsStraightToNext(t *testing.T) {
	chain, _ := BuildChain(chainOf("a", "b"), "")

	var invoked []string
	_, err := newTestExecutor().Run(context.Background(), "synthesis", "test", chain, fastPolicy(3),
		func(ctx context.Context, p provider.Provider) (any, error) {
			invoked = append(invoked, p.Name())
			if p.Name() == "a" {
				return nil, errors.New("401 unauthorized")
			}
			return "ok", nil
		})

	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	// Auth errors are not retryable: a invoked once despite MaxRetries=3.
	want := []string{"a", "b"}
	if len(invoked) != 2 || invoked[0] != want[0] || invoked[1] != want[1] {
		t.Errorf("invoked = %v, want %v", invoked, want)
	}
}

func TestRunExhaustionReturnsChainError(t *testing.T) {
	chain, _ := BuildChain(chainOf("a", "b"), "")

	_, err := newTestExecutor().Run(context.Background(), "scrape", "fetch", chain, fastPolicy(0),
		func(ctx context.Context, p provider.Provider) (any, error) {
			return nil, errors.New("blocked by cloudflare")
		})

	var ce *ChainError
	if !errors.As(err, &ce) {
		t.Fatalf("error is %T, want *ChainError", err)
	}
	if len(ce.Attempted) != 2 {
		t.Errorf("Attempted = %v, want both providers", ce.Attempted)
	}
	if ce.Last.Code != domain.CodeAutomationBlocked {
		t.Errorf("Last.Code = %s, want AUTOMATION_BLOCKED", ce.Last.Code)
	}
}

func TestRunEmptyChainReturnsChainError(t *testing.T) {
	providers := []provider.Provider{
		&fakeProvider{name: "a", available: false},
	}
	chain, _ := BuildChain(providers, "")

	_, err := newTestExecutor().Run(context.Background(), "synthesis", "test", chain, fastPolicy(0),
		func(ctx context.Context, p provider.Provider) (any, error) {
			t.Fatal("invoke called for an unavailable provider")
			return nil, nil
		})

	var ce *ChainError
	if !errors.As(err, &ce) {
		t.Fatalf("error is %T, want *ChainError", err)
	}
	if len(ce.Attempted) != 0 {
		t.Errorf("Attempted = %v, want empty", ce.Attempted)
	}
	if ce.Last.Code != domain.CodeServiceUnavailable {
		t.Errorf("Last.Code = %s, want SERVICE_UNAVAILABLE", ce.Last.Code)
	}
	if ce.Last.Severity != domain.SeverityCritical {
		t.Errorf("Last.Severity = %s, want critical", ce.Last.Severity)
	}
}

func TestRunProviderTimeoutApplied(t *testing.T) {
	providers := []provider.Provider{
		&fakeProvider{name: "slow", available: true, timeout: 10 * time.Millisecond},
	}
	chain, _ := BuildChain(providers, "")

	policy := fastPolicy(0)
	policy.RetryableCodes = map[domain.ErrorCode]bool{} // no retries on timeout

	_, err := newTestExecutor().Run(context.Background(), "synthesis", "test", chain, policy,
		func(ctx context.Context, p provider.Provider) (any, error) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Second):
				return "too late", nil
			}
		})

	var ce *ChainError
	if !errors.As(err, &ce) {
		t.Fatalf("error is %T, want *ChainError", err)
	}
	if ce.Last.Code != domain.CodeTimeout {
		t.Errorf("Last.Code = %s, want TIMEOUT", ce.Last.Code)
	}
}

func TestRunParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chain, _ := BuildChain(chainOf("a"), "")
	_, err := newTestExecutor().Run(ctx, "synthesis", "test", chain, fastPolicy(0),
		func(ctx context.Context, p provider.Provider) (any, error) {
			return "ok", nil
		})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
