package service

import (
	"context"

	"github.com/stemsi/qbank-backend/internal/model"
)

// Transactor runs fn as one atomic unit of work.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// QuestionStore persists questions and their category links.
type QuestionStore interface {
	Create(ctx context.Context, in model.QuestionInput) (*model.Question, error)
	FindByID(ctx context.Context, id, companyID int64) (*model.Question, error)
	List(ctx context.Context, f model.QuestionFilter, viewerID int64) ([]model.QuestionView, int, error)
	Update(ctx context.Context, id int64, p model.QuestionPatch) (*model.Question, error)
	SetStatus(ctx context.Context, id int64, status model.QuestionStatus) error
	Delete(ctx context.Context, id int64) error
	LinkCategories(ctx context.Context, questionID, companyID int64, categoryIDs []int64) error
	UnlinkCategories(ctx context.Context, questionID int64) error
	CategoryIDs(ctx context.Context, questionID int64) ([]int64, error)
	CategoryNames(ctx context.Context, questionID int64) ([]string, error)
}

// VoteStore is the vote ledger.
type VoteStore interface {
	Toggle(ctx context.Context, questionID, userID int64, voteType model.VoteType) (model.VoteAction, error)
	Tally(ctx context.Context, questionID int64) (model.VoteTally, error)
	UserVote(ctx context.Context, questionID, userID int64) (*model.VoteType, error)
}

// HistoryStore is the append-only domain history.
type HistoryStore interface {
	Append(ctx context.Context, questionID, actorID int64, changeType model.ChangeType, details string) error
	ListByQuestion(ctx context.Context, questionID int64) ([]model.HistoryEntry, error)
}

// ScoreStore reads score inputs and writes derived scores.
type ScoreStore interface {
	Inputs(ctx context.Context, questionID int64) (*model.ScoreInputs, error)
	SaveScore(ctx context.Context, questionID int64, score float64) error
	ActiveQuestionIDs(ctx context.Context) ([]int64, error)
	ActiveScoresByAuthor(ctx context.Context, authorID int64) ([]float64, error)
}

// UserStore reads and updates employee records.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	SetReputation(ctx context.Context, id int64, reputation int) error
	CompanyExists(ctx context.Context, id int64) (bool, error)
}

// TallyPublisher broadcasts a question's vote tally to live subscribers.
type TallyPublisher interface {
	PublishTally(ctx context.Context, questionID int64, tally model.VoteTally) error
}

// Recomputer refreshes derived scores after a vote.
type Recomputer interface {
	RecomputeQuestion(ctx context.Context, questionID int64) (float64, error)
	RecomputeAuthorReputation(ctx context.Context, authorID int64) error
}
