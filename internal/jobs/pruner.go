package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/castforge/castforge/internal/infra/storage"
)

// Pruner deletes completed episodes and their artifacts once they age
// past the retention window.
type Pruner struct {
	retention time.Duration
	episodes  storage.EpisodeRepository
	artifacts *storage.ArtifactStore
	log       *slog.Logger
}

// NewPruner creates a new Pruner worker.
func NewPruner(retention time.Duration, episodes storage.EpisodeRepository, artifacts *storage.ArtifactStore) *Pruner {
	return &Pruner{
		retention: retention,
		episodes:  episodes,
		artifacts: artifacts,
		log:       slog.Default().With("component", "pruner"),
	}
}

// Start runs the pruner loop.
func (p *Pruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		return // Retention disabled
	}

	interval := min(p.retention/10, 1*time.Hour)
	interval = max(interval, 1*time.Minute)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.prune(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *Pruner) prune(ctx context.Context) {
	cutoff := time.Now().Add(-p.retention)

	deleted, err := p.episodes.DeleteCompletedBefore(ctx, cutoff)
	if err != nil {
		p.log.Error("Failed to prune episodes", "error", err)
		return
	}

	for _, id := range deleted {
		if err := p.artifacts.Remove(id); err != nil {
			p.log.Warn("Failed to remove artifact", "episode", id, "error", err)
		}
	}

	if len(deleted) > 0 {
		p.log.Info("Pruned episodes", "count", len(deleted), "cutoff", cutoff)
	}
}
