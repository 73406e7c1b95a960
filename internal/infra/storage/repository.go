// Package storage defines the persistence interfaces for episodes and
// error events, with PostgreSQL and in-memory implementations.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/castforge/castforge/internal/core/domain"
)

var (
	// ErrEpisodeNotFound is returned when an episode doesn't exist
	ErrEpisodeNotFound = errors.New("episode not found")
)

// EpisodeRepository handles episode storage operations.
type EpisodeRepository interface {
	// Save inserts or updates an episode
	Save(ctx context.Context, ep *domain.Episode) error

	// GetByID retrieves an episode by id
	GetByID(ctx context.Context, id string) (*domain.Episode, error)

	// List returns episodes newest first, up to limit
	List(ctx context.Context, limit int) ([]*domain.Episode, error)

	// UpdateStatus transitions an episode's status
	UpdateStatus(ctx context.Context, id string, status domain.EpisodeStatus) error

	// DeleteCompletedBefore removes completed episodes older than the cutoff,
	// returning the ids of the deleted episodes
	DeleteCompletedBefore(ctx context.Context, cutoff time.Time) ([]string, error)
}

// ErrorEventRepository persists terminal-failure classifications for
// operator queries.
type ErrorEventRepository interface {
	// Save records one error event
	Save(ctx context.Context, ev *domain.ErrorEvent) error

	// Recent returns events newest first, up to limit
	Recent(ctx context.Context, limit int) ([]*domain.ErrorEvent, error)
}
