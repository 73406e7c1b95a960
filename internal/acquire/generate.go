// Package acquire instantiates the fallback-chain pattern for content
// acquisition and script generation.
package acquire

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/castforge/castforge/internal/core/domain"
	"github.com/castforge/castforge/internal/provider"
	"github.com/castforge/castforge/internal/provider/llm"
	"github.com/castforge/castforge/internal/resilience"
	"github.com/castforge/castforge/internal/text"
)

const scriptSystemPrompt = "You turn source material into a podcast narration script. " +
	"Write flowing spoken prose for a single narrator. No headings, no lists, " +
	"no stage directions. Keep every fact from the source."

// GenerateOptions tunes one script-generation request.
type GenerateOptions struct {
	ProviderHint string
	Temperature  float64
	MaxTokens    int
}

// Generator turns source content into a narration script over a chain
// of LLM providers.
type Generator struct {
	executor   *resilience.Executor
	generators []llm.Generator
	policy     resilience.RetryPolicy
	logger     *slog.Logger
}

// NewGenerator wires the generation instantiation.
func NewGenerator(
	executor *resilience.Executor,
	generators []llm.Generator,
	policy resilience.RetryPolicy,
) *Generator {
	return &Generator{
		executor:   executor,
		generators: generators,
		policy:     policy,
		logger:     slog.Default().With("component", "generate"),
	}
}

// GenerateScript produces a narration script for the given content.
// Long content is split coarsely so each piece fits provider payload
// limits; the generated segments are joined in order. On provider
// exhaustion a structured failure result is returned with a nil error.
func (g *Generator) GenerateScript(ctx context.Context, content string, opts GenerateOptions) (*domain.GenerationResult, error) {
	start := time.Now()

	if strings.TrimSpace(content) == "" {
		return &domain.GenerationResult{
			Success: false,
			Error: &domain.Classification{
				Code:       domain.CodeValidationError,
				Severity:   domain.SeverityMedium,
				Suggestion: "The source content is empty; provide text to generate from.",
				Timestamp:  time.Now(),
			},
			Metadata: domain.CallMetadata{OriginalProvider: opts.ProviderHint},
		}, nil
	}

	providers := make([]provider.Provider, len(g.generators))
	for i, gen := range g.generators {
		providers[i] = gen
	}
	chain, err := resilience.BuildChain(providers, opts.ProviderHint)
	if err != nil {
		return nil, err
	}

	chunks := text.Plan(content, text.CoarseChunkLen)
	g.logger.Info("Generating script", "chunks", len(chunks), "content_len", len(content))

	temperature := opts.Temperature
	if temperature == 0 {
		temperature = 0.7
	}
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4000
	}

	meta := domain.CallMetadata{OriginalProvider: opts.ProviderHint}
	segments := make([]string, 0, len(chunks))

	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		prompt := llm.Prompt{
			System:      scriptSystemPrompt,
			User:        generationUserPrompt(chunk, len(chunks)),
			Temperature: temperature,
			MaxTokens:   maxTokens,
		}

		outcome, err := g.executor.Run(ctx, "generation", "generate_segment", chain, g.policy,
			func(ctx context.Context, pr provider.Provider) (any, error) {
				gen, ok := pr.(llm.Generator)
				if !ok {
					return nil, fmt.Errorf("internal error: provider %s is not a generator", pr.Name())
				}
				return gen.Generate(ctx, prompt)
			})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			ce, ok := err.(*resilience.ChainError)
			if !ok {
				return nil, err
			}
			return &domain.GenerationResult{
				Success:  false,
				Error:    &ce.Last,
				Metadata: meta,
			}, nil
		}

		script, _ := outcome.Payload.(string)
		segments = append(segments, strings.TrimSpace(script))
		meta.Provider = outcome.Meta.Provider
		meta.FallbackUsed = meta.FallbackUsed || outcome.Meta.FallbackUsed
	}

	meta.ProcessingTime = time.Since(start)

	return &domain.GenerationResult{
		Success:  true,
		Script:   strings.Join(segments, "\n\n"),
		Metadata: meta,
	}, nil
}

func generationUserPrompt(chunk domain.TextChunk, total int) string {
	if total == 1 {
		return "Source material:\n\n" + chunk.Content
	}
	return fmt.Sprintf("Source material (part %d of %d, continue the narration seamlessly):\n\n%s",
		chunk.Index+1, total, chunk.Content)
}
