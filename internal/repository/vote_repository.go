package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/qbank-backend/internal/database"
	"github.com/stemsi/qbank-backend/internal/model"
)

// VoteRepository owns the one-vote-per-(question,user) ledger.
type VoteRepository struct {
	pool *pgxpool.Pool
}

// NewVoteRepository creates a new VoteRepository.
func NewVoteRepository(pool *pgxpool.Pool) *VoteRepository {
	return &VoteRepository{pool: pool}
}

// Toggle applies a vote submission against the (question, user) key in one
// statement: a matching vote is removed, otherwise the vote is inserted or
// flipped in place through the unique constraint. A concurrent duplicate
// waits on the constraint and then updates the winner's row, so the pair
// never holds two rows and no violation reaches the caller.
func (r *VoteRepository) Toggle(ctx context.Context, questionID, userID int64, voteType model.VoteType) (model.VoteAction, error) {
	var removed, inserted bool
	err := database.Conn(ctx, r.pool).QueryRow(ctx,
		`WITH removed AS (
			DELETE FROM votes
			 WHERE question_id = $1 AND user_id = $2 AND vote_type = $3::varchar
			RETURNING id
		), upserted AS (
			INSERT INTO votes (question_id, user_id, vote_type)
			SELECT $1::bigint, $2::bigint, $3::varchar
			 WHERE NOT EXISTS (SELECT 1 FROM removed)
			ON CONFLICT (question_id, user_id)
			DO UPDATE SET vote_type = EXCLUDED.vote_type, updated_at = NOW()
			RETURNING (xmax = 0) AS inserted
		)
		SELECT EXISTS (SELECT 1 FROM removed),
		       COALESCE((SELECT inserted FROM upserted), false)`,
		questionID, userID, string(voteType),
	).Scan(&removed, &inserted)
	if err != nil {
		return "", err
	}

	switch {
	case removed:
		return model.VoteRemoved, nil
	case inserted:
		return model.VoteAdded, nil
	}
	return model.VoteChanged, nil
}

// Tally counts up and down votes on a question.
func (r *VoteRepository) Tally(ctx context.Context, questionID int64) (model.VoteTally, error) {
	var t model.VoteTally
	err := database.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT
			COUNT(*) FILTER (WHERE vote_type = 'up'),
			COUNT(*) FILTER (WHERE vote_type = 'down')
		 FROM votes WHERE question_id = $1`,
		questionID,
	).Scan(&t.Up, &t.Down)
	return t, err
}

// UserVote returns the caller's current vote, or nil when there is none.
func (r *VoteRepository) UserVote(ctx context.Context, questionID, userID int64) (*model.VoteType, error) {
	var vt model.VoteType
	err := database.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT vote_type FROM votes WHERE question_id = $1 AND user_id = $2`,
		questionID, userID,
	).Scan(&vt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &vt, nil
}
