package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/qbank-backend/internal/model"
	"github.com/stemsi/qbank-backend/internal/scoring"
)

// ScoreService persists question scores and author reputations.
type ScoreService struct {
	scores ScoreStore
	users  UserStore
	now    func() time.Time
	log    zerolog.Logger
}

// NewScoreService creates a new ScoreService.
func NewScoreService(scores ScoreStore, users UserStore, log zerolog.Logger) *ScoreService {
	return &ScoreService{
		scores: scores,
		users:  users,
		now:    time.Now,
		log:    log.With().Str("component", "score_service").Logger(),
	}
}

// RecomputeQuestion recalculates and stores one question's score.
func (s *ScoreService) RecomputeQuestion(ctx context.Context, questionID int64) (float64, error) {
	_, score, err := s.recomputeQuestion(ctx, questionID)
	return score, err
}

func (s *ScoreService) recomputeQuestion(ctx context.Context, questionID int64) (*model.ScoreInputs, float64, error) {
	in, err := s.scores.Inputs(ctx, questionID)
	if err != nil {
		return nil, 0, err
	}

	score := scoring.Calculate(*in, s.now())
	if err := s.scores.SaveScore(ctx, questionID, score); err != nil {
		return nil, 0, err
	}

	s.log.Debug().Int64("question_id", questionID).Float64("score", score).Msg("Question score updated")
	return in, score, nil
}

// RecomputeAuthorReputation recalculates an author's reputation from their
// active questions. Authors without active questions are left unchanged.
func (s *ScoreService) RecomputeAuthorReputation(ctx context.Context, authorID int64) error {
	scores, err := s.scores.ActiveScoresByAuthor(ctx, authorID)
	if err != nil {
		return err
	}

	rep, ok := scoring.Reputation(scores)
	if !ok {
		return nil
	}

	if err := s.users.SetReputation(ctx, authorID, rep); err != nil {
		return err
	}

	s.log.Debug().Int64("author_id", authorID).Int("reputation", rep).Msg("Author reputation updated")
	return nil
}

// Sweep recomputes every active question, then the reputation of each
// author touched. Individual failures are logged and skipped; ctx
// cancellation stops the sweep between questions.
func (s *ScoreService) Sweep(ctx context.Context) (model.SweepResult, error) {
	var res model.SweepResult

	ids, err := s.scores.ActiveQuestionIDs(ctx)
	if err != nil {
		return res, err
	}

	authors := make(map[int64]struct{})
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		in, _, err := s.recomputeQuestion(ctx, id)
		if err != nil {
			res.Failed++
			s.log.Error().Err(err).Int64("question_id", id).Msg("Sweep: score recomputation failed")
			continue
		}

		res.Questions++
		authors[in.AuthorID] = struct{}{}
	}

	for authorID := range authors {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := s.RecomputeAuthorReputation(ctx, authorID); err != nil {
			s.log.Error().Err(err).Int64("author_id", authorID).Msg("Sweep: reputation recomputation failed")
			continue
		}
		res.Authors++
	}

	s.log.Info().
		Int("questions", res.Questions).
		Int("failed", res.Failed).
		Int("authors", res.Authors).
		Msg("Score sweep complete")
	return res, nil
}
