// Package memory provides in-memory repository implementations used
// when no database is configured, and by tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/castforge/castforge/internal/core/domain"
	"github.com/castforge/castforge/internal/infra/storage"
)

// Storage holds all in-memory state.
type Storage struct {
	mu       sync.RWMutex
	episodes map[string]*domain.Episode
	events   []*domain.ErrorEvent
}

// NewStorage creates empty in-memory storage.
func NewStorage() *Storage {
	return &Storage{
		episodes: make(map[string]*domain.Episode),
	}
}

// EpisodeRepo implements storage.EpisodeRepository in memory.
type EpisodeRepo struct {
	s *Storage
}

// NewEpisodeRepo creates a memory-backed episode repository.
func NewEpisodeRepo(s *Storage) *EpisodeRepo {
	return &EpisodeRepo{s: s}
}

// Save inserts or updates an episode.
func (r *EpisodeRepo) Save(_ context.Context, ep *domain.Episode) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cp := *ep
	r.s.episodes[ep.ID] = &cp
	return nil
}

// GetByID retrieves an episode by id.
func (r *EpisodeRepo) GetByID(_ context.Context, id string) (*domain.Episode, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ep, ok := r.s.episodes[id]
	if !ok {
		return nil, storage.ErrEpisodeNotFound
	}
	cp := *ep
	return &cp, nil
}

// List returns episodes newest first.
func (r *EpisodeRepo) List(_ context.Context, limit int) ([]*domain.Episode, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	episodes := make([]*domain.Episode, 0, len(r.s.episodes))
	for _, ep := range r.s.episodes {
		cp := *ep
		episodes = append(episodes, &cp)
	}
	sort.Slice(episodes, func(i, j int) bool {
		return episodes[i].CreatedAt.After(episodes[j].CreatedAt)
	})

	if limit > 0 && len(episodes) > limit {
		episodes = episodes[:limit]
	}
	return episodes, nil
}

// UpdateStatus transitions an episode's status.
func (r *EpisodeRepo) UpdateStatus(_ context.Context, id string, status domain.EpisodeStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ep, ok := r.s.episodes[id]
	if !ok {
		return storage.ErrEpisodeNotFound
	}
	ep.Status = status
	ep.UpdatedAt = time.Now().UTC()
	return nil
}

// DeleteCompletedBefore removes completed episodes older than cutoff.
func (r *EpisodeRepo) DeleteCompletedBefore(_ context.Context, cutoff time.Time) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var deleted []string
	for id, ep := range r.s.episodes {
		if ep.Status == domain.EpisodeCompleted && ep.UpdatedAt.Before(cutoff) {
			delete(r.s.episodes, id)
			deleted = append(deleted, id)
		}
	}
	return deleted, nil
}

// ErrorEventRepo implements storage.ErrorEventRepository in memory.
type ErrorEventRepo struct {
	s *Storage
}

// NewErrorEventRepo creates a memory-backed error event repository.
func NewErrorEventRepo(s *Storage) *ErrorEventRepo {
	return &ErrorEventRepo{s: s}
}

// Save records one error event.
func (r *ErrorEventRepo) Save(_ context.Context, ev *domain.ErrorEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cp := *ev
	r.s.events = append(r.s.events, &cp)
	return nil
}

// Recent returns events newest first.
func (r *ErrorEventRepo) Recent(_ context.Context, limit int) ([]*domain.ErrorEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := len(r.s.events)
	if limit <= 0 || limit > n {
		limit = n
	}

	events := make([]*domain.ErrorEvent, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		cp := *r.s.events[i]
		events = append(events, &cp)
	}
	return events, nil
}
