package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/qbank-backend/internal/database"
	"github.com/stemsi/qbank-backend/internal/model"
)

// HistoryRepository appends and reads per-question lifecycle events.
type HistoryRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// Append writes one history entry.
func (r *HistoryRepository) Append(ctx context.Context, questionID, actorID int64, changeType model.ChangeType, details string) error {
	_, err := database.Conn(ctx, r.pool).Exec(ctx,
		`INSERT INTO question_history (question_id, changed_by, change_type, details)
		 VALUES ($1, $2, $3, $4)`,
		questionID, actorID, changeType, details,
	)
	return err
}

// ListByQuestion returns a question's history, newest first.
func (r *HistoryRepository) ListByQuestion(ctx context.Context, questionID int64) ([]model.HistoryEntry, error) {
	rows, err := database.Conn(ctx, r.pool).Query(ctx,
		`SELECT h.id, h.question_id, h.changed_by, COALESCE(u.name, ''), h.change_type, h.details, h.created_at
		 FROM question_history h
		 LEFT JOIN users u ON u.id = h.changed_by
		 WHERE h.question_id = $1
		 ORDER BY h.created_at DESC, h.id DESC`,
		questionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []model.HistoryEntry{}
	for rows.Next() {
		var e model.HistoryEntry
		if err := rows.Scan(&e.ID, &e.QuestionID, &e.ChangedBy, &e.ActorName, &e.ChangeType, &e.Details, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
