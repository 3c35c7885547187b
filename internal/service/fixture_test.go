package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/qbank-backend/internal/model"
	"github.com/stemsi/qbank-backend/internal/repository/memory"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.VoteTally
}

func (p *recordingPublisher) PublishTally(_ context.Context, _ int64, tally model.VoteTally) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, tally)
	return nil
}

type fixture struct {
	db        *memory.DB
	questions *QuestionService
	votes     *VoteService
	scores    *ScoreService
	publisher *recordingPublisher

	writer   model.Identity
	reviewer model.Identity
	admin    model.Identity
	voter    model.Identity
	outsider model.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := memory.New()
	db.Now = func() time.Time { return fixedNow }

	log := zerolog.Nop()
	scores := NewScoreService(db.Scores(), db.Users(), log)
	scores.now = func() time.Time { return fixedNow }
	pub := &recordingPublisher{}

	f := &fixture{
		db:        db,
		questions: NewQuestionService(db, db.Questions(), db.Votes(), db.HistoryLog(), db.Users(), log),
		votes:     NewVoteService(db, db.Questions(), db.Votes(), db.HistoryLog(), scores, pub, log),
		scores:    scores,
		publisher: pub,
	}

	f.writer = model.Identity{UserID: db.SeedUser(1, "Writer", model.RoleQuestionWriter, 50), Role: model.RoleQuestionWriter, CompanyID: 1}
	f.reviewer = model.Identity{UserID: db.SeedUser(1, "Reviewer", model.RoleReviewer, 0), Role: model.RoleReviewer, CompanyID: 1}
	f.admin = model.Identity{UserID: db.SeedUser(1, "Admin", model.RoleAdmin, 0), Role: model.RoleAdmin, CompanyID: 1}
	f.voter = model.Identity{UserID: db.SeedUser(1, "Voter", model.RoleQuestionWriter, 0), Role: model.RoleQuestionWriter, CompanyID: 1}
	f.outsider = model.Identity{UserID: db.SeedUser(2, "Outsider", model.RoleAdmin, 0), Role: model.RoleAdmin, CompanyID: 2}

	db.SeedCategory(10, 1, "Math")
	db.SeedCategory(11, 1, "Science")
	db.SeedCategory(20, 2, "Foreign")

	return f
}

func validCreate() model.CreateQuestionRequest {
	return model.CreateQuestionRequest{
		Content:        "What is the capital of France?",
		Options:        []string{"Paris", "Rome", "Madrid"},
		CorrectAnswers: []int{0},
		Categories:     []int64{10},
	}
}

func (f *fixture) createQuestion(t *testing.T) *model.Question {
	t.Helper()
	q, err := f.questions.Create(context.Background(), f.writer, validCreate())
	require.NoError(t, err)
	return q
}
