package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog"
	"github.com/stemsi/qbank-backend/internal/model"
	"github.com/stemsi/qbank-backend/internal/response"
	"golang.org/x/sync/errgroup"
)

// QuestionService implements the question lifecycle.
type QuestionService struct {
	tx        Transactor
	questions QuestionStore
	votes     VoteStore
	history   HistoryStore
	users     UserStore
	log       zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(tx Transactor, questions QuestionStore, votes VoteStore, history HistoryStore, users UserStore, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		tx:        tx,
		questions: questions,
		votes:     votes,
		history:   history,
		users:     users,
		log:       log.With().Str("component", "question_service").Logger(),
	}
}

// Create authors a question with its category links and a created entry,
// all in one unit of work.
func (s *QuestionService) Create(ctx context.Context, caller model.Identity, req model.CreateQuestionRequest) (*model.Question, error) {
	if err := authorizeCreate(caller); err != nil {
		return nil, err
	}
	in, err := ValidateCreate(req, caller)
	if err != nil {
		return nil, err
	}

	var created *model.Question
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		q, err := s.questions.Create(ctx, in)
		if err != nil {
			return err
		}
		if err := s.questions.LinkCategories(ctx, q.ID, in.CompanyID, in.CategoryIDs); err != nil {
			return err
		}
		if err := s.history.Append(ctx, q.ID, caller.UserID, model.ChangeCreated, "Question created"); err != nil {
			return err
		}
		created = q
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("question_id", created.ID).Int64("author_id", caller.UserID).Msg("Question created")
	return created, nil
}

// List returns one page of the caller's company questions.
func (s *QuestionService) List(ctx context.Context, caller model.Identity, q model.ListQuestionsQuery) ([]model.QuestionView, *response.Pagination, error) {
	f, err := ValidateListQuery(q, caller.CompanyID)
	if err != nil {
		return nil, nil, err
	}

	views, total, err := s.questions.List(ctx, f, caller.UserID)
	if err != nil {
		return nil, nil, err
	}
	return views, response.NewPagination(f.Page, f.Limit, total), nil
}

// Get returns a question with its categories, author, tally, the caller's
// vote and its history.
func (s *QuestionService) Get(ctx context.Context, caller model.Identity, id int64) (*model.QuestionDetail, error) {
	q, err := s.questions.FindByID(ctx, id, caller.CompanyID)
	if err != nil {
		return nil, err
	}

	detail := &model.QuestionDetail{QuestionView: model.QuestionView{Question: *q}}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		names, err := s.questions.CategoryNames(gctx, id)
		detail.Categories = names
		return err
	})
	g.Go(func() error {
		author, err := s.users.GetByID(gctx, q.CreatedBy)
		if err != nil {
			return err
		}
		detail.AuthorName = author.Name
		return nil
	})
	g.Go(func() error {
		tally, err := s.votes.Tally(gctx, id)
		detail.Votes = tally
		return err
	})
	g.Go(func() error {
		vote, err := s.votes.UserVote(gctx, id, caller.UserID)
		detail.UserVote = vote
		return err
	})
	g.Go(func() error {
		entries, err := s.history.ListByQuestion(gctx, id)
		detail.History = entries
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if detail.Categories == nil {
		detail.Categories = []string{}
	}
	return detail, nil
}

// Update applies a partial edit. Categories, when supplied, replace the
// existing set. An updated entry is only written if something changed.
func (s *QuestionService) Update(ctx context.Context, caller model.Identity, id int64, req model.UpdateQuestionRequest) (*model.Question, error) {
	current, err := s.questions.FindByID(ctx, id, caller.CompanyID)
	if err != nil {
		return nil, err
	}
	if err := authorizeModify(caller, current); err != nil {
		return nil, err
	}
	patch, err := ValidateUpdate(req, current, caller.Role.IsAdmin())
	if err != nil {
		return nil, err
	}

	var updated *model.Question
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		changed := fieldsChanged(current, patch)

		updated = current
		if hasFieldUpdates(patch) {
			q, err := s.questions.Update(ctx, id, patch)
			if err != nil {
				return err
			}
			updated = q
		}

		if patch.CategoriesSet {
			before, err := s.questions.CategoryIDs(ctx, id)
			if err != nil {
				return err
			}
			if err := s.questions.UnlinkCategories(ctx, id); err != nil {
				return err
			}
			if err := s.questions.LinkCategories(ctx, id, caller.CompanyID, patch.CategoryIDs); err != nil {
				return err
			}
			after := slices.Clone(patch.CategoryIDs)
			slices.Sort(after)
			if !slices.Equal(before, after) {
				changed = true
			}
		}

		if !changed {
			return nil
		}
		return s.history.Append(ctx, id, caller.UserID, model.ChangeUpdated, "Question updated")
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete removes a question after recording a deleted entry. The entry is
// removed together with the question by the store's cascade.
func (s *QuestionService) Delete(ctx context.Context, caller model.Identity, id int64) error {
	q, err := s.questions.FindByID(ctx, id, caller.CompanyID)
	if err != nil {
		return err
	}
	if err := authorizeModify(caller, q); err != nil {
		return err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.history.Append(ctx, id, caller.UserID, model.ChangeDeleted, "Question deleted"); err != nil {
			return err
		}
		return s.questions.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.log.Info().Int64("question_id", id).Int64("user_id", caller.UserID).Msg("Question deleted")
	return nil
}

// Invalidate moves a question to inactive for quality-control reasons.
func (s *QuestionService) Invalidate(ctx context.Context, caller model.Identity, id int64, reason string) (*model.InvalidateResult, error) {
	reason, err := ValidateReason(reason)
	if err != nil {
		return nil, err
	}
	if _, err := s.questions.FindByID(ctx, id, caller.CompanyID); err != nil {
		return nil, err
	}
	if err := authorizeInvalidate(caller); err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.questions.SetStatus(ctx, id, model.QuestionStatusInactive); err != nil {
			return err
		}
		return s.history.Append(ctx, id, caller.UserID, model.ChangeStatusChanged,
			fmt.Sprintf("Question marked as invalid. Reason: %s", reason))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("question_id", id).Int64("reviewer_id", caller.UserID).Msg("Question invalidated")
	return &model.InvalidateResult{QuestionID: id, Status: model.QuestionStatusInactive}, nil
}

func hasFieldUpdates(p model.QuestionPatch) bool {
	return p.Content != nil || p.Options != nil || p.CorrectAnswers != nil || p.Status != nil
}

func fieldsChanged(q *model.Question, p model.QuestionPatch) bool {
	if p.Content != nil && *p.Content != q.Content {
		return true
	}
	if p.Options != nil && !slices.Equal(p.Options, q.Options) {
		return true
	}
	if p.CorrectAnswers != nil && !slices.Equal(p.CorrectAnswers, q.CorrectAnswers) {
		return true
	}
	if p.Status != nil && *p.Status != q.Status {
		return true
	}
	return false
}
