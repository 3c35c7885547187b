package router

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/qbank-backend/internal/config"
	"github.com/stemsi/qbank-backend/internal/handler"
	"github.com/stemsi/qbank-backend/internal/middleware"
	"github.com/stemsi/qbank-backend/internal/model"
	"github.com/stemsi/qbank-backend/internal/repository/memory"
	"github.com/stemsi/qbank-backend/internal/service"
	"github.com/stemsi/qbank-backend/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySink struct {
	mu      sync.Mutex
	entries []model.AuditLogEntry
}

func (s *memorySink) Record(e model.AuditLogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
}

func TestRouterWiresAuditAndVoteLimit(t *testing.T) {
	validator.Setup()
	log := zerolog.Nop()
	cfg := &config.Config{
		GinMode:             gin.TestMode,
		JWTSecret:           "router-secret",
		JWTExpiry:           time.Hour,
		AuditSensitivePaths: []string{"/api/v1/system"},
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	db := memory.New()
	authorID := db.SeedUser(1, "Author", model.RoleQuestionWriter, 0)
	voterID := db.SeedUser(1, "Voter", model.RoleAdmin, 0)

	auth := service.NewAuthService(cfg)
	scores := service.NewScoreService(db.Scores(), db.Users(), log)
	questions := service.NewQuestionService(db, db.Questions(), db.Votes(), db.HistoryLog(), db.Users(), log)
	votes := service.NewVoteService(db, db.Questions(), db.Votes(), db.HistoryLog(), scores, nil, log)

	q, err := questions.Create(t.Context(), model.Identity{UserID: authorID, Role: model.RoleQuestionWriter, CompanyID: 1},
		model.CreateQuestionRequest{
			Content:        "Is the audit trail complete?",
			Options:        []string{"yes", "no"},
			CorrectAnswers: []int{0},
		})
	require.NoError(t, err)

	sink := &memorySink{}
	r := SetupRouter(auth,
		&Handlers{
			Question: handler.NewQuestionHandler(questions, votes),
			WS:       handler.NewWSHandler(rdb, votes, log, nil),
			System:   handler.NewSystemHandler(rdb, log),
		},
		&Middlewares{
			AuditSink:   sink,
			VoteLimiter: middleware.NewVoteRateLimiter(rdb, 1, time.Minute, log),
		},
		cfg,
	)

	voter, ok := db.User(voterID)
	require.True(t, ok)
	token, err := auth.GenerateToken(&voter)
	require.NoError(t, err)

	send := func(method, path, body string) int {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	votePath := "/api/v1/questions/" + strconv.FormatInt(q.ID, 10) + "/vote"
	assert.Equal(t, http.StatusOK, send(http.MethodPost, votePath, `{"voteType":"up"}`))
	assert.Equal(t, http.StatusTooManyRequests, send(http.MethodPost, votePath, `{"voteType":"up"}`))
	assert.Equal(t, http.StatusOK, send(http.MethodGet, "/api/v1/questions", ""))
	assert.Equal(t, http.StatusOK, send(http.MethodGet, "/api/v1/system/stats", ""))

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.entries, 3)
	assert.Equal(t, http.StatusOK, sink.entries[0].StatusCode)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", sink.entries[1].Error)
	assert.Equal(t, "GET /api/v1/system/stats", sink.entries[2].Action)
}
