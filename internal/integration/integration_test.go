//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stemsi/qbank-backend/internal/apperror"
	"github.com/stemsi/qbank-backend/internal/config"
	"github.com/stemsi/qbank-backend/internal/database"
	"github.com/stemsi/qbank-backend/internal/model"
	"github.com/stemsi/qbank-backend/internal/repository"
	"github.com/stemsi/qbank-backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type stack struct {
	pool      *pgxpool.Pool
	questions *service.QuestionService
	votes     *service.VoteService
	scores    *service.ScoreService
	audit     *repository.AuditRepository

	writer model.Identity
	voter  model.Identity
}

func TestCreateWithForeignCategoryRollsBack(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	_, err := s.questions.Create(ctx, s.writer, model.CreateQuestionRequest{
		Content:        "Which gas do plants absorb?",
		Options:        []string{"Oxygen", "Carbon dioxide"},
		CorrectAnswers: []int{1},
		Categories:     []int64{1, 2},
	})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeCategoryNotFound), "got %v", err)

	assert.Zero(t, count(t, s.pool, `SELECT COUNT(*) FROM questions`))
	assert.Zero(t, count(t, s.pool, `SELECT COUNT(*) FROM question_categories`))
	assert.Zero(t, count(t, s.pool, `SELECT COUNT(*) FROM question_history`))
}

func TestVoteToggleRestoresTally(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	q, err := s.questions.Create(ctx, s.writer, model.CreateQuestionRequest{
		Content:        "Which gas do plants absorb?",
		Options:        []string{"Oxygen", "Carbon dioxide"},
		CorrectAnswers: []int{1},
		Categories:     []int64{1},
	})
	require.NoError(t, err)

	out, err := s.votes.Vote(ctx, s.voter, q.ID, "up")
	require.NoError(t, err)
	assert.Equal(t, model.VoteTally{Up: 1}, out.Votes)

	out, err = s.votes.Vote(ctx, s.voter, q.ID, "down")
	require.NoError(t, err)
	assert.Equal(t, model.VoteTally{Down: 1}, out.Votes)
	assert.Equal(t, 1, count(t, s.pool, `SELECT COUNT(*) FROM votes`))

	out, err = s.votes.Vote(ctx, s.voter, q.ID, "down")
	require.NoError(t, err)
	assert.Equal(t, model.VoteTally{}, out.Votes)
	assert.Nil(t, out.UserVote)
	assert.Zero(t, count(t, s.pool, `SELECT COUNT(*) FROM votes`))

	assert.Equal(t, 4, count(t, s.pool, `SELECT COUNT(*) FROM question_history WHERE question_id = $1`, q.ID))

	detail, err := s.questions.Get(ctx, s.voter, q.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Biology"}, detail.Categories)
	assert.Equal(t, "User removed downvote", detail.History[0].Details)
}

func TestConcurrentDuplicateVotesKeepOneRow(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	q, err := s.questions.Create(ctx, s.writer, model.CreateQuestionRequest{
		Content:        "Which organelle produces ATP?",
		Options:        []string{"Mitochondria", "Ribosome"},
		CorrectAnswers: []int{0},
	})
	require.NoError(t, err)

	const n = 6
	var wg sync.WaitGroup
	errs := make([]error, n)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = s.votes.Vote(ctx, s.voter, q.ID, "up")
		}(i)
	}
	close(start)
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "vote %d", i)
	}

	rows := count(t, s.pool, `SELECT COUNT(*) FROM votes WHERE question_id = $1 AND user_id = $2`, q.ID, s.voter.UserID)
	assert.LessOrEqual(t, rows, 1)

	want := model.VoteTally{}
	if rows == 1 {
		var vt string
		require.NoError(t, s.pool.QueryRow(ctx,
			`SELECT vote_type FROM votes WHERE question_id = $1 AND user_id = $2`, q.ID, s.voter.UserID).Scan(&vt))
		assert.Equal(t, "up", vt)
		want.Up = 1
	}

	tally, err := s.votes.Tally(ctx, s.voter, q.ID)
	require.NoError(t, err)
	assert.Equal(t, want, tally)
	assert.Equal(t, n+1, count(t, s.pool, `SELECT COUNT(*) FROM question_history WHERE question_id = $1`, q.ID))
}

func TestSweepAndReputation(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	q, err := s.questions.Create(ctx, s.writer, model.CreateQuestionRequest{
		Content:        "Which gas do plants absorb?",
		Options:        []string{"Oxygen", "Carbon dioxide"},
		CorrectAnswers: []int{1},
	})
	require.NoError(t, err)
	_, err = s.pool.Exec(ctx, `UPDATE questions SET status = 'active' WHERE id = $1`, q.ID)
	require.NoError(t, err)
	_, err = s.votes.Vote(ctx, s.voter, q.ID, "up")
	require.NoError(t, err)

	res, err := s.scores.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Questions)
	assert.Zero(t, res.Failed)

	var score float64
	require.NoError(t, s.pool.QueryRow(ctx, `SELECT score FROM questions WHERE id = $1`, q.ID).Scan(&score))
	assert.Greater(t, score, 0.0)

	var rep int
	require.NoError(t, s.pool.QueryRow(ctx, `SELECT reputation FROM users WHERE id = $1`, s.writer.UserID).Scan(&rep))
	assert.Positive(t, rep)
}

func TestAuditBatchInsert(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	uid := s.writer.UserID
	batch := []model.AuditLogEntry{
		{
			UserID: &uid, Action: "POST /api/v1/questions", Method: "POST", Path: "/api/v1/questions",
			RequestBody: json.RawMessage(`{"content":"x"}`), StatusCode: 201, ResponseTimeMs: 4, CreatedAt: time.Now(),
		},
		{
			Action: "DELETE /api/v1/questions/9", Method: "DELETE", Path: "/api/v1/questions/9",
			Params: json.RawMessage(`{"id":"9"}`), StatusCode: 401, Error: "TOKEN_REQUIRED", CreatedAt: time.Now(),
		},
	}
	require.NoError(t, s.audit.InsertBatch(ctx, batch))
	assert.Equal(t, 2, count(t, s.pool, `SELECT COUNT(*) FROM audit_logs`))
	assert.Equal(t, 1, count(t, s.pool, `SELECT COUNT(*) FROM audit_logs WHERE user_id IS NULL AND params->>'id' = '9'`))
}

func setup(t *testing.T) *stack {
	t.Helper()
	ctx := context.Background()

	dsn := startPostgres(t, ctx)
	require.NoError(t, database.MigrateUp("../../migrations", dsn))

	log := zerolog.Nop()
	pool, err := database.NewPostgresPool(ctx, &config.Config{DatabaseURL: dsn, MaxDBConns: 8}, log)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	var c1, c2, writerID, voterID int64
	require.NoError(t, pool.QueryRow(ctx, `INSERT INTO companies (name) VALUES ('Acme') RETURNING id`).Scan(&c1))
	require.NoError(t, pool.QueryRow(ctx, `INSERT INTO companies (name) VALUES ('Globex') RETURNING id`).Scan(&c2))
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO users (company_id, name, email, password_hash, role) VALUES ($1, 'Writer', 'w@acme.test', 'x', 'question_writer') RETURNING id`, c1,
	).Scan(&writerID))
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO users (company_id, name, email, password_hash, role) VALUES ($1, 'Voter', 'v@acme.test', 'x', 'reviewer') RETURNING id`, c1,
	).Scan(&voterID))
	_, err = pool.Exec(ctx, `INSERT INTO categories (id, company_id, name) VALUES (1, $1, 'Biology'), (2, $2, 'Foreign')`, c1, c2)
	require.NoError(t, err)

	tx := database.NewTxManager(pool, log)
	questionRepo := repository.NewQuestionRepository(pool)
	voteRepo := repository.NewVoteRepository(pool)
	historyRepo := repository.NewHistoryRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	scores := service.NewScoreService(repository.NewScoreRepository(pool), userRepo, log)

	return &stack{
		pool:      pool,
		questions: service.NewQuestionService(tx, questionRepo, voteRepo, historyRepo, userRepo, log),
		votes:     service.NewVoteService(tx, questionRepo, voteRepo, historyRepo, scores, nil, log),
		scores:    scores,
		audit:     repository.NewAuditRepository(pool),
		writer:    model.Identity{UserID: writerID, Role: model.RoleQuestionWriter, CompanyID: c1},
		voter:     model.Identity{UserID: voterID, Role: model.RoleReviewer, CompanyID: c1},
	}
}

func count(t *testing.T, pool *pgxpool.Pool, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, pool.QueryRow(context.Background(), query, args...).Scan(&n))
	return n
}

func startPostgres(t *testing.T, ctx context.Context) string {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}

	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "qbank", "POSTGRES_PASSWORD": "qbankpass", "POSTGRES_DB": "qbank"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("postgres://qbank:qbankpass@%s:%s/qbank?sslmode=disable", host, port.Port())
}
