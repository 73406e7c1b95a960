package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/castforge/castforge/internal/core/domain"
	"github.com/castforge/castforge/internal/infra/storage"
)

// EpisodeRepo implements storage.EpisodeRepository using PostgreSQL.
type EpisodeRepo struct {
	db *DB
}

// NewEpisodeRepo creates a new PostgreSQL episode repository.
func NewEpisodeRepo(db *DB) *EpisodeRepo {
	return &EpisodeRepo{db: db}
}

type episodeRow struct {
	ID           string    `db:"id"`
	Title        string    `db:"title"`
	SourceURL    string    `db:"source_url"`
	Script       string    `db:"script"`
	VoiceID      string    `db:"voice_id"`
	ProviderHint string    `db:"provider_hint"`
	Enhance      bool      `db:"enhance"`
	Status       string    `db:"status"`
	Provider     string    `db:"provider"`
	FallbackUsed bool      `db:"fallback_used"`
	Chunks       int       `db:"chunks"`
	AudioPath    string    `db:"audio_path"`
	DurationMS   int64     `db:"duration_ms"`
	ErrorCode    string    `db:"error_code"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r episodeRow) toDomain() *domain.Episode {
	return &domain.Episode{
		ID:           r.ID,
		Title:        r.Title,
		SourceURL:    r.SourceURL,
		Script:       r.Script,
		VoiceID:      r.VoiceID,
		ProviderHint: r.ProviderHint,
		Enhance:      r.Enhance,
		Status:       domain.EpisodeStatus(r.Status),
		Provider:     r.Provider,
		FallbackUsed: r.FallbackUsed,
		Chunks:       r.Chunks,
		AudioPath:    r.AudioPath,
		DurationMS:   r.DurationMS,
		ErrorCode:    r.ErrorCode,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// Save inserts or updates an episode.
func (r *EpisodeRepo) Save(ctx context.Context, ep *domain.Episode) error {
	query := `
		INSERT INTO episodes (
			id, title, source_url, script, voice_id, provider_hint, enhance,
			status, provider, fallback_used, chunks, audio_path, duration_ms,
			error_code, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			script = EXCLUDED.script,
			status = EXCLUDED.status,
			provider = EXCLUDED.provider,
			fallback_used = EXCLUDED.fallback_used,
			chunks = EXCLUDED.chunks,
			audio_path = EXCLUDED.audio_path,
			duration_ms = EXCLUDED.duration_ms,
			error_code = EXCLUDED.error_code,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		ep.ID, ep.Title, ep.SourceURL, ep.Script, ep.VoiceID, ep.ProviderHint,
		ep.Enhance, string(ep.Status), ep.Provider, ep.FallbackUsed, ep.Chunks,
		ep.AudioPath, ep.DurationMS, ep.ErrorCode, ep.CreatedAt, ep.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save episode: %w", err)
	}
	return nil
}

// GetByID retrieves an episode by id.
func (r *EpisodeRepo) GetByID(ctx context.Context, id string) (*domain.Episode, error) {
	var row episodeRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM episodes WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrEpisodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get episode: %w", err)
	}
	return row.toDomain(), nil
}

// List returns episodes newest first.
func (r *EpisodeRepo) List(ctx context.Context, limit int) ([]*domain.Episode, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []episodeRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT * FROM episodes ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list episodes: %w", err)
	}

	episodes := make([]*domain.Episode, 0, len(rows))
	for _, row := range rows {
		episodes = append(episodes, row.toDomain())
	}
	return episodes, nil
}

// UpdateStatus transitions an episode's status.
func (r *EpisodeRepo) UpdateStatus(ctx context.Context, id string, status domain.EpisodeStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE episodes SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update episode status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return storage.ErrEpisodeNotFound
	}
	return nil
}

// DeleteCompletedBefore removes completed episodes older than cutoff.
func (r *EpisodeRepo) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	var ids []string
	err := r.db.SelectContext(ctx, &ids,
		`DELETE FROM episodes WHERE status = $1 AND updated_at < $2 RETURNING id`,
		string(domain.EpisodeCompleted), cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to delete episodes: %w", err)
	}
	return ids, nil
}
