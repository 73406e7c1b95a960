// Package jobs runs queued synthesis requests end to end: acquire,
// generate, synthesize, store.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/castforge/castforge/internal/acquire"
	"github.com/castforge/castforge/internal/core/domain"
	"github.com/castforge/castforge/internal/infra/storage"
	"github.com/castforge/castforge/internal/metrics"
	"github.com/castforge/castforge/internal/synth"
)

// Queue is the job-queue and lock surface the worker drains. The redis
// client implements it.
type Queue interface {
	EnqueueJob(ctx context.Context, episodeID string) error
	DequeueJob(ctx context.Context) (episodeID string, found bool, err error)
	QueueDepth(ctx context.Context) (int64, error)
	AcquireLock(ctx context.Context, episodeID string, ttl time.Duration) (bool, error)
	RefreshLock(ctx context.Context, episodeID string, ttl time.Duration) error
	ReleaseLock(ctx context.Context, episodeID string) error
}

// WorkerConfig holds configuration for the synthesis worker.
type WorkerConfig struct {
	LockTTL    time.Duration // Lock TTL (default: 60s)
	EmptySleep time.Duration // Sleep when queue empty (default: 5s)
	JobTimeout time.Duration // Max time per episode (default: 10m)
}

// DefaultConfig returns default worker configuration.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		LockTTL:    60 * time.Second,
		EmptySleep: 5 * time.Second,
		JobTimeout: 10 * time.Minute,
	}
}

// Worker processes synthesis jobs from the queue.
type Worker struct {
	cfg       WorkerConfig
	queue     Queue
	episodes  storage.EpisodeRepository
	events    storage.ErrorEventRepository
	artifacts *storage.ArtifactStore
	scraper   *acquire.Scraper
	generator *acquire.Generator
	pipeline  *synth.Pipeline
	log       *slog.Logger
}

// NewWorker creates a new synthesis worker.
func NewWorker(
	cfg WorkerConfig,
	queue Queue,
	episodes storage.EpisodeRepository,
	events storage.ErrorEventRepository,
	artifacts *storage.ArtifactStore,
	scraper *acquire.Scraper,
	generator *acquire.Generator,
	pipeline *synth.Pipeline,
) *Worker {
	return &Worker{
		cfg:       cfg,
		queue:     queue,
		episodes:  episodes,
		events:    events,
		artifacts: artifacts,
		scraper:   scraper,
		generator: generator,
		pipeline:  pipeline,
		log:       slog.Default().With("component", "worker"),
	}
}

// Run starts the worker loop.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("Starting synthesis worker")

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Synthesis worker stopped")
			return nil
		default:
		}

		if depth, err := w.queue.QueueDepth(ctx); err == nil {
			metrics.QueueDepth.Set(float64(depth))
		}

		episodeID, found, err := w.queue.DequeueJob(ctx)
		if err != nil {
			w.log.Error("Failed to dequeue job", "error", err)
			w.sleep(ctx)
			continue
		}
		if !found {
			w.sleep(ctx)
			continue
		}

		if err := w.processEpisode(ctx, episodeID); err != nil {
			w.log.Error("Failed to process episode", "episode", episodeID, "error", err)
			// Cancellation means the job never ran; re-queue it.
			if ctx.Err() != nil {
				if requeueErr := w.queue.EnqueueJob(context.Background(), episodeID); requeueErr != nil {
					w.log.Error("Failed to re-queue episode", "error", requeueErr)
				}
			}
		}
	}
}

func (w *Worker) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(w.cfg.EmptySleep):
	}
}

// processEpisode runs one episode with locking. A structured provider
// failure marks the episode failed and returns nil; the error return is
// reserved for cancellation and wiring faults.
func (w *Worker) processEpisode(ctx context.Context, episodeID string) error {
	locked, err := w.queue.AcquireLock(ctx, episodeID, w.cfg.LockTTL)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		w.log.Debug("Episode already locked by another worker", "episode", episodeID)
		return nil
	}
	defer func() {
		if err := w.queue.ReleaseLock(context.Background(), episodeID); err != nil {
			w.log.Warn("Failed to release lock", "error", err)
		}
	}()

	ep, err := w.episodes.GetByID(ctx, episodeID)
	if err != nil {
		return fmt.Errorf("failed to load episode %s: %w", episodeID, err)
	}

	if err := w.episodes.UpdateStatus(ctx, ep.ID, domain.EpisodeProcessing); err != nil {
		return fmt.Errorf("failed to mark processing: %w", err)
	}

	jobCtx, cancel := context.WithTimeout(ctx, w.cfg.JobTimeout)
	defer cancel()

	done := make(chan struct{})
	go w.keepLockAlive(jobCtx, episodeID, done)
	err = w.runEpisode(jobCtx, ep)
	close(done)

	if err != nil && ctx.Err() == nil && jobCtx.Err() != nil {
		// Job budget expired, not a worker shutdown. The episode left
		// the queue at dequeue, so it must reach a terminal state here.
		return w.fail(ctx, ep, "process_episode", &domain.Classification{
			Code:       domain.CodeTimeout,
			Severity:   domain.SeverityHigh,
			Retryable:  true,
			Suggestion: "The episode exceeded the job time budget; shorten the script or raise the budget.",
			Context:    map[string]any{"message": err.Error()},
			Timestamp:  time.Now(),
		})
	}
	return err
}

// keepLockAlive refreshes the processing lock while a long job runs.
func (w *Worker) keepLockAlive(ctx context.Context, episodeID string, done <-chan struct{}) {
	ticker := time.NewTicker(w.cfg.LockTTL / 2)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.queue.RefreshLock(ctx, episodeID, w.cfg.LockTTL); err != nil {
				w.log.Warn("Failed to refresh lock", "error", err)
			}
		}
	}
}

// runEpisode executes the acquire -> generate -> synthesize -> store
// sequence for one episode.
func (w *Worker) runEpisode(ctx context.Context, ep *domain.Episode) error {
	w.log.Info("Processing episode", "episode", ep.ID, "title", ep.Title)

	script := ep.Script

	if script == "" && ep.SourceURL != "" {
		scraped, err := w.scraper.ScrapeContent(ctx, ep.SourceURL, acquire.ScrapeOptions{})
		if err != nil {
			return err
		}
		if !scraped.Success {
			return w.fail(ctx, ep, "scrape_content", scraped.Error)
		}
		if ep.Title == "" && scraped.Title != "" {
			ep.Title = scraped.Title
		}

		generated, err := w.generator.GenerateScript(ctx, scraped.Text, acquire.GenerateOptions{})
		if err != nil {
			return err
		}
		if !generated.Success {
			return w.fail(ctx, ep, "generate_script", generated.Error)
		}
		script = generated.Script
	}

	if script == "" {
		return w.fail(ctx, ep, "synthesize", &domain.Classification{
			Code:       domain.CodeValidationError,
			Severity:   domain.SeverityMedium,
			Suggestion: "The episode has neither a script nor a source URL.",
			Timestamp:  time.Now(),
		})
	}

	opts := synth.DefaultOptions()
	opts.VoiceID = ep.VoiceID
	opts.ProviderHint = ep.ProviderHint
	opts.Enhance = ep.Enhance

	result, err := w.pipeline.Synthesize(ctx, script, opts)
	if err != nil {
		return err
	}
	if !result.Success {
		return w.fail(ctx, ep, "synthesize", result.Error)
	}

	path, err := w.artifacts.SaveWAV(ep.ID, result.Audio)
	if err != nil {
		return w.fail(ctx, ep, "store_artifact", &domain.Classification{
			Code:       domain.CodeFilesystemError,
			Severity:   domain.SeverityHigh,
			Suggestion: "Check the media directory exists and is writable.",
			Timestamp:  time.Now(),
		})
	}

	ep.Script = script
	ep.Status = domain.EpisodeCompleted
	ep.Provider = result.Metadata.Provider
	ep.FallbackUsed = result.Metadata.FallbackUsed
	ep.Chunks = result.Metadata.Chunks
	ep.AudioPath = path
	ep.DurationMS = result.Metadata.AudioDuration.Milliseconds()
	ep.ErrorCode = ""
	ep.UpdatedAt = time.Now().UTC()
	if err := w.episodes.Save(ctx, ep); err != nil {
		return fmt.Errorf("failed to save episode: %w", err)
	}

	metrics.EpisodesTotal.WithLabelValues(string(domain.EpisodeCompleted)).Inc()
	w.log.Info("Episode completed",
		"episode", ep.ID,
		"provider", ep.Provider,
		"fallback", ep.FallbackUsed,
		"chunks", ep.Chunks,
		"duration", result.Metadata.AudioDuration)
	return nil
}

// fail records a terminal classification and marks the episode failed.
func (w *Worker) fail(ctx context.Context, ep *domain.Episode, operation string, cls *domain.Classification) error {
	if cls == nil {
		cls = &domain.Classification{
			Code:      domain.CodeUnknownError,
			Severity:  domain.SeverityMedium,
			Timestamp: time.Now(),
		}
	}

	ep.Status = domain.EpisodeFailed
	ep.ErrorCode = string(cls.Code)
	ep.UpdatedAt = time.Now().UTC()
	if err := w.episodes.Save(ctx, ep); err != nil {
		w.log.Error("Failed to mark episode failed", "episode", ep.ID, "error", err)
	}

	ev := &domain.ErrorEvent{
		ID:         uuid.NewString(),
		EpisodeID:  ep.ID,
		Operation:  operation,
		Code:       cls.Code,
		Severity:   cls.Severity,
		Message:    classificationMessage(cls),
		Suggestion: cls.Suggestion,
		CreatedAt:  time.Now(),
	}
	if err := w.events.Save(ctx, ev); err != nil {
		w.log.Warn("Failed to record error event", "error", err)
	}

	metrics.EpisodesTotal.WithLabelValues(string(domain.EpisodeFailed)).Inc()
	w.log.Warn("Episode failed",
		"episode", ep.ID,
		"operation", operation,
		"code", cls.Code,
		"severity", cls.Severity)
	return nil
}

// classificationMessage extracts the original error text captured at
// classification time, when present.
func classificationMessage(cls *domain.Classification) string {
	if msg, ok := cls.Context["message"].(string); ok {
		return msg
	}
	return ""
}
