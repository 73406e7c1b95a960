package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/castforge/castforge/internal/core/domain"
)

// ErrorEventRepo implements storage.ErrorEventRepository using PostgreSQL.
type ErrorEventRepo struct {
	db *DB
}

// NewErrorEventRepo creates a new PostgreSQL error event repository.
func NewErrorEventRepo(db *DB) *ErrorEventRepo {
	return &ErrorEventRepo{db: db}
}

type errorEventRow struct {
	ID         string    `db:"id"`
	EpisodeID  string    `db:"episode_id"`
	Operation  string    `db:"operation"`
	Code       string    `db:"code"`
	Severity   string    `db:"severity"`
	Message    string    `db:"message"`
	Suggestion string    `db:"suggestion"`
	CreatedAt  time.Time `db:"created_at"`
}

// Save records one error event.
func (r *ErrorEventRepo) Save(ctx context.Context, ev *domain.ErrorEvent) error {
	query := `
		INSERT INTO error_events (id, episode_id, operation, code, severity, message, suggestion, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		ev.ID, ev.EpisodeID, ev.Operation, string(ev.Code), string(ev.Severity),
		ev.Message, ev.Suggestion, ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save error event: %w", err)
	}
	return nil
}

// Recent returns events newest first.
func (r *ErrorEventRepo) Recent(ctx context.Context, limit int) ([]*domain.ErrorEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []errorEventRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT * FROM error_events ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list error events: %w", err)
	}

	events := make([]*domain.ErrorEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, &domain.ErrorEvent{
			ID:         row.ID,
			EpisodeID:  row.EpisodeID,
			Operation:  row.Operation,
			Code:       domain.ErrorCode(row.Code),
			Severity:   domain.Severity(row.Severity),
			Message:    row.Message,
			Suggestion: row.Suggestion,
			CreatedAt:  row.CreatedAt,
		})
	}
	return events, nil
}
