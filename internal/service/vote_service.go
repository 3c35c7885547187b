package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/qbank-backend/internal/model"
)

// VoteService applies vote toggles and triggers score recomputation.
type VoteService struct {
	tx        Transactor
	questions QuestionStore
	votes     VoteStore
	history   HistoryStore
	scores    Recomputer
	publisher TallyPublisher
	log       zerolog.Logger
}

// NewVoteService creates a new VoteService. publisher may be nil.
func NewVoteService(tx Transactor, questions QuestionStore, votes VoteStore, history HistoryStore, scores Recomputer, publisher TallyPublisher, log zerolog.Logger) *VoteService {
	return &VoteService{
		tx:        tx,
		questions: questions,
		votes:     votes,
		history:   history,
		scores:    scores,
		publisher: publisher,
		log:       log.With().Str("component", "vote_service").Logger(),
	}
}

// Vote toggles the caller's vote on a question.
//
// The ledger write and the vote history entry commit together. Score and
// reputation are recomputed afterwards as separate statements; if that step
// fails the vote stands and the periodic sweep repairs the score.
func (s *VoteService) Vote(ctx context.Context, caller model.Identity, questionID int64, rawType string) (*model.VoteOutcome, error) {
	voteType, err := ParseVoteType(rawType)
	if err != nil {
		return nil, err
	}

	q, err := s.questions.FindByID(ctx, questionID, caller.CompanyID)
	if err != nil {
		return nil, err
	}
	if err := authorizeVote(caller, q); err != nil {
		return nil, err
	}

	var action model.VoteAction
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := s.votes.Toggle(ctx, questionID, caller.UserID, voteType)
		if err != nil {
			return err
		}
		action = a
		return s.history.Append(ctx, questionID, caller.UserID, model.ChangeVote, voteDetails(voteType, action))
	})
	if err != nil {
		return nil, err
	}

	tally, err := s.votes.Tally(ctx, questionID)
	if err != nil {
		return nil, err
	}

	s.recompute(ctx, questionID, q.CreatedBy)
	s.publish(ctx, questionID, tally)

	out := &model.VoteOutcome{Votes: tally}
	if action != model.VoteRemoved {
		out.UserVote = &voteType
	}
	return out, nil
}

// Tally returns the current tally of a question visible to the caller.
func (s *VoteService) Tally(ctx context.Context, caller model.Identity, questionID int64) (model.VoteTally, error) {
	if _, err := s.questions.FindByID(ctx, questionID, caller.CompanyID); err != nil {
		return model.VoteTally{}, err
	}
	return s.votes.Tally(ctx, questionID)
}

// recompute refreshes the question score, then the author's reputation from
// the fresh score. Failures are logged, never returned.
func (s *VoteService) recompute(ctx context.Context, questionID, authorID int64) {
	if _, err := s.scores.RecomputeQuestion(ctx, questionID); err != nil {
		s.log.Error().Err(err).Int64("question_id", questionID).Msg("Score recomputation failed after vote")
		return
	}
	if err := s.scores.RecomputeAuthorReputation(ctx, authorID); err != nil {
		s.log.Error().Err(err).Int64("author_id", authorID).Msg("Reputation recomputation failed after vote")
	}
}

func (s *VoteService) publish(ctx context.Context, questionID int64, tally model.VoteTally) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTally(ctx, questionID, tally); err != nil {
		s.log.Warn().Err(err).Int64("question_id", questionID).Msg("Failed to publish vote tally")
	}
}

func voteDetails(voteType model.VoteType, action model.VoteAction) string {
	switch action {
	case model.VoteRemoved:
		return fmt.Sprintf("User removed %svote", voteType)
	case model.VoteChanged:
		return fmt.Sprintf("User changed vote to %svote", voteType)
	default:
		return fmt.Sprintf("User %svoted on question", voteType)
	}
}
