package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/qbank-backend/internal/apperror"
	"github.com/stemsi/qbank-backend/internal/database"
	"github.com/stemsi/qbank-backend/internal/model"
)

// ScoreRepository reads score inputs and persists derived scores.
type ScoreRepository struct {
	pool *pgxpool.Pool
}

// NewScoreRepository creates a new ScoreRepository.
func NewScoreRepository(pool *pgxpool.Pool) *ScoreRepository {
	return &ScoreRepository{pool: pool}
}

// Inputs gathers the aggregate state a question's score depends on.
func (r *ScoreRepository) Inputs(ctx context.Context, questionID int64) (*model.ScoreInputs, error) {
	in := model.ScoreInputs{QuestionID: questionID}
	err := database.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT
			q.created_by,
			COALESCE(u.reputation, 0),
			(SELECT COUNT(*) FROM votes v WHERE v.question_id = q.id AND v.vote_type = 'up'),
			(SELECT COUNT(*) FROM votes v WHERE v.question_id = q.id AND v.vote_type = 'down'),
			(SELECT COUNT(*) FROM question_attempts a WHERE a.question_id = q.id),
			(SELECT COUNT(*) FROM question_attempts a WHERE a.question_id = q.id AND a.is_correct),
			(SELECT COUNT(*) FROM question_views w WHERE w.question_id = q.id),
			q.created_at
		 FROM questions q
		 LEFT JOIN users u ON u.id = q.created_by
		 WHERE q.id = $1`,
		questionID,
	).Scan(&in.AuthorID, &in.AuthorReputation, &in.Upvotes, &in.Downvotes,
		&in.TotalAttempts, &in.CorrectAttempts, &in.Views, &in.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("question not found")
	}
	if err != nil {
		return nil, err
	}
	return &in, nil
}

// SaveScore persists a recomputed score. updated_at is left alone: it
// tracks content edits, not derived values.
func (r *ScoreRepository) SaveScore(ctx context.Context, questionID int64, score float64) error {
	tag, err := database.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE questions SET score = $2 WHERE id = $1`, questionID, score,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("question not found")
	}
	return nil
}

// ActiveQuestionIDs lists every active question across all companies.
func (r *ScoreRepository) ActiveQuestionIDs(ctx context.Context) ([]int64, error) {
	rows, err := database.Conn(ctx, r.pool).Query(ctx,
		`SELECT id FROM questions WHERE status = 'active' ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

// ActiveScoresByAuthor returns the scores of an author's active questions.
func (r *ScoreRepository) ActiveScoresByAuthor(ctx context.Context, authorID int64) ([]float64, error) {
	rows, err := database.Conn(ctx, r.pool).Query(ctx,
		`SELECT score FROM questions WHERE created_by = $1 AND status = 'active'`,
		authorID,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[float64])
}
