// Package synth implements the synthesis pipeline: preprocessing,
// chunk planning, per-chunk synthesis over a fallback chain,
// silence-interleaved reassembly, and the optional enhancement pass.
package synth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/castforge/castforge/internal/core/domain"
	"github.com/castforge/castforge/internal/infra/audio"
	"github.com/castforge/castforge/internal/metrics"
	"github.com/castforge/castforge/internal/provider"
	"github.com/castforge/castforge/internal/provider/tts"
	"github.com/castforge/castforge/internal/resilience"
	"github.com/castforge/castforge/internal/text"
)

// Options tunes one synthesis request.
type Options struct {
	VoiceID        string
	ProviderHint   string
	StabilityHint  float64 // 0 means default
	SimilarityHint float64 // 0 means default
	Enhance        bool
}

// DefaultOptions enables enhancement; callers opt out explicitly.
func DefaultOptions() Options {
	return Options{Enhance: true}
}

// Enhancer is the post-processing collaborator. Failure is never fatal
// to a request.
type Enhancer interface {
	Enhance(ctx context.Context, pcm []byte) ([]byte, error)
}

// Pipeline orchestrates script-to-audio synthesis.
type Pipeline struct {
	executor     *resilience.Executor
	synthesizers []tts.Synthesizer
	enhancer     Enhancer
	policy       resilience.RetryPolicy
	maxChunkLen  int
	logger       *slog.Logger
}

// NewPipeline wires the pipeline. A zero maxChunkLen selects the fine
// default used for natural-sounding synthesis.
func NewPipeline(
	executor *resilience.Executor,
	synthesizers []tts.Synthesizer,
	enhancer Enhancer,
	policy resilience.RetryPolicy,
	maxChunkLen int,
) *Pipeline {
	if maxChunkLen <= 0 {
		maxChunkLen = text.FineChunkLen
	}
	return &Pipeline{
		executor:     executor,
		synthesizers: synthesizers,
		enhancer:     enhancer,
		policy:       policy,
		maxChunkLen:  maxChunkLen,
		logger:       slog.Default().With("component", "synth"),
	}
}

// Synthesize converts a script into one audio artifact. On provider
// exhaustion it returns a structured failure result with a nil error;
// the error return is reserved for cancellation.
func (p *Pipeline) Synthesize(ctx context.Context, script string, opts Options) (*domain.SynthesisResult, error) {
	start := time.Now()

	prepared := text.Preprocess(script)
	if prepared == "" {
		return failedResult(domain.Classification{
			Code:       domain.CodeValidationError,
			Severity:   domain.SeverityMedium,
			Retryable:  false,
			Suggestion: "The script is empty after removing stage directions; provide spoken content.",
			Timestamp:  time.Now(),
		}, opts.ProviderHint), nil
	}

	chunks := text.Plan(prepared, p.maxChunkLen)
	metrics.SynthesisChunks.Observe(float64(len(chunks)))
	p.logger.Info("Planned synthesis",
		"chunks", len(chunks), "script_len", len(prepared))

	chain, err := p.buildChain(opts.ProviderHint)
	if err != nil {
		return nil, err
	}

	base := baseSettings(opts)

	var segments []domain.AudioSegment
	meta := domain.CallMetadata{OriginalProvider: opts.ProviderHint}

	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			// Abandoned request: discard partial audio.
			return nil, err
		}

		settings := chunkSettings(chunk, len(chunks), base)
		segment, outcome, err := p.synthesizeChunk(ctx, chain, chunk, settings, opts.VoiceID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// A failed chunk aborts the whole request; partial audio is
			// worse than no audio.
			ce, ok := err.(*resilience.ChainError)
			if !ok {
				return nil, err
			}
			p.logger.Error("Chunk synthesis failed, aborting request",
				"chunk", chunk.Index, "attempted", ce.Attempted)
			return failedResult(ce.Last, opts.ProviderHint), nil
		}

		meta.Provider = outcome.Meta.Provider
		meta.FallbackUsed = meta.FallbackUsed || outcome.Meta.FallbackUsed

		segments = append(segments, segment)
		if !chunk.IsFinal {
			pause := pauseAfter(chunk.Content)
			segments = append(segments, domain.AudioSegment{
				ChunkIndex:   domain.PauseIndex,
				Data:         audio.Silence(pause),
				DurationHint: pause,
			})
		}
	}

	pcm := reassemble(segments)

	enhanced := false
	if opts.Enhance && p.enhancer != nil {
		if out, err := p.enhancer.Enhance(ctx, pcm); err != nil {
			// Enhancement failure is never fatal; keep the raw buffer.
			p.logger.Warn("Enhancement pass failed, using unenhanced audio", "error", err)
		} else {
			pcm = out
			enhanced = true
		}
	}

	meta.ProcessingTime = time.Since(start)
	metrics.SynthesisDuration.Observe(meta.ProcessingTime.Seconds())

	return &domain.SynthesisResult{
		Success:       true,
		Audio:         audio.WrapWAV(pcm),
		EnhancedAudio: enhanced,
		Metadata: domain.SynthesisMetadata{
			CallMetadata:  meta,
			Chunks:        len(chunks),
			AudioDuration: audio.Duration(pcm),
		},
	}, nil
}

func (p *Pipeline) buildChain(preferred string) (resilience.Chain, error) {
	providers := make([]provider.Provider, len(p.synthesizers))
	for i, s := range p.synthesizers {
		providers[i] = s
	}
	return resilience.BuildChain(providers, preferred)
}

func (p *Pipeline) synthesizeChunk(
	ctx context.Context,
	chain resilience.Chain,
	chunk domain.TextChunk,
	settings domain.VoiceSettings,
	voiceID string,
) (domain.AudioSegment, *resilience.Outcome, error) {
	outcome, err := p.executor.Run(ctx, "synthesis", "synthesize_chunk", chain, p.policy,
		func(ctx context.Context, pr provider.Provider) (any, error) {
			syn, ok := pr.(tts.Synthesizer)
			if !ok {
				return nil, fmt.Errorf("internal error: provider %s is not a synthesizer", pr.Name())
			}
			return syn.Synthesize(ctx, tts.SpeechRequest{
				Text:     chunk.Content,
				Voice:    resolveVoice(pr.Name(), voiceID),
				Settings: settings,
			})
		})
	if err != nil {
		return domain.AudioSegment{}, nil, err
	}

	data, ok := outcome.Payload.([]byte)
	if !ok || len(data) == 0 {
		return domain.AudioSegment{}, nil, &resilience.ChainError{
			Capability: "synthesis",
			Attempted:  []string{outcome.Meta.Provider},
			Last: domain.Classification{
				Code:       domain.CodeInternalError,
				Severity:   domain.SeverityHigh,
				Suggestion: "The provider returned an unusable audio payload; retry the request.",
				Timestamp:  time.Now(),
			},
			Err: fmt.Errorf("provider %s returned unusable payload", outcome.Meta.Provider),
		}
	}

	return domain.AudioSegment{
		ChunkIndex:   chunk.Index,
		Data:         data,
		DurationHint: audio.Duration(data),
	}, outcome, nil
}

// reassemble concatenates segments strictly in construction order.
func reassemble(segments []domain.AudioSegment) []byte {
	total := 0
	for _, s := range segments {
		total += len(s.Data)
	}
	out := make([]byte, 0, total)
	for _, s := range segments {
		out = append(out, s.Data...)
	}
	return out
}

func baseSettings(opts Options) domain.VoiceSettings {
	s := domain.DefaultVoiceSettings()
	if opts.StabilityHint > 0 {
		s.Stability = clamp(opts.StabilityHint)
	}
	if opts.SimilarityHint > 0 {
		s.SimilarityBoost = clamp(opts.SimilarityHint)
	}
	return s
}

func failedResult(cls domain.Classification, preferred string) *domain.SynthesisResult {
	return &domain.SynthesisResult{
		Success: false,
		Error:   &cls,
		Metadata: domain.SynthesisMetadata{
			CallMetadata: domain.CallMetadata{OriginalProvider: preferred},
		},
	}
}
