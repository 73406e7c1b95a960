package acquire

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/castforge/castforge/internal/core/domain"
	"github.com/castforge/castforge/internal/provider"
	"github.com/castforge/castforge/internal/provider/scrape"
	"github.com/castforge/castforge/internal/resilience"
)

// ScrapeOptions tunes one acquisition request.
type ScrapeOptions struct {
	ProviderHint string
}

// Scraper acquires page content over a chain of fetcher providers.
type Scraper struct {
	executor *resilience.Executor
	fetchers []scrape.Fetcher
	policy   resilience.RetryPolicy
	logger   *slog.Logger
}

// NewScraper wires the acquisition instantiation.
func NewScraper(
	executor *resilience.Executor,
	fetchers []scrape.Fetcher,
	policy resilience.RetryPolicy,
) *Scraper {
	return &Scraper{
		executor: executor,
		fetchers: fetchers,
		policy:   policy,
		logger:   slog.Default().With("component", "scrape"),
	}
}

// ScrapeContent fetches and extracts the content of one URL. On
// provider exhaustion a structured failure result is returned with a
// nil error.
func (s *Scraper) ScrapeContent(ctx context.Context, pageURL string, opts ScrapeOptions) (*domain.ScrapeResult, error) {
	start := time.Now()

	if u, err := url.Parse(pageURL); err != nil || u.Scheme == "" || u.Host == "" {
		return &domain.ScrapeResult{
			Success: false,
			Error: &domain.Classification{
				Code:       domain.CodeValidationError,
				Severity:   domain.SeverityMedium,
				Suggestion: "The URL is malformed; provide an absolute http(s) URL.",
				Timestamp:  time.Now(),
			},
			Metadata: domain.CallMetadata{OriginalProvider: opts.ProviderHint},
		}, nil
	}

	providers := make([]provider.Provider, len(s.fetchers))
	for i, f := range s.fetchers {
		providers[i] = f
	}
	chain, err := resilience.BuildChain(providers, opts.ProviderHint)
	if err != nil {
		return nil, err
	}

	outcome, err := s.executor.Run(ctx, "scrape", "fetch_page", chain, s.policy,
		func(ctx context.Context, pr provider.Provider) (any, error) {
			fetcher, ok := pr.(scrape.Fetcher)
			if !ok {
				return nil, fmt.Errorf("internal error: provider %s is not a fetcher", pr.Name())
			}
			return fetcher.Fetch(ctx, pageURL)
		})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		ce, ok := err.(*resilience.ChainError)
		if !ok {
			return nil, err
		}
		s.logger.Warn("Scrape failed", "url", pageURL, "attempted", ce.Attempted)
		return &domain.ScrapeResult{
			Success:  false,
			Error:    &ce.Last,
			Metadata: domain.CallMetadata{OriginalProvider: opts.ProviderHint},
		}, nil
	}

	page, ok := outcome.Payload.(*scrape.Page)
	if !ok || page == nil {
		return &domain.ScrapeResult{
			Success: false,
			Error: &domain.Classification{
				Code:       domain.CodeInternalError,
				Severity:   domain.SeverityHigh,
				Suggestion: "The fetcher returned an unusable page payload; retry the request.",
				Timestamp:  time.Now(),
			},
			Metadata: domain.CallMetadata{OriginalProvider: opts.ProviderHint},
		}, nil
	}
	meta := outcome.Meta
	meta.ProcessingTime = time.Since(start)

	return &domain.ScrapeResult{
		Success:  true,
		Title:    page.Title,
		Text:     page.Text,
		Error:    nil,
		Metadata: meta,
	}, nil
}
