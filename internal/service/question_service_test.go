package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stemsi/qbank-backend/internal/apperror"
	"github.com/stemsi/qbank-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateQuestion(t *testing.T) {
	f := newFixture(t)

	q := f.createQuestion(t)

	assert.Equal(t, model.QuestionStatusPendingReview, q.Status)
	assert.Equal(t, []string{"Paris", "Rome", "Madrid"}, q.Options)
	assert.Equal(t, []int{0}, q.CorrectAnswers)
	assert.Equal(t, f.writer.UserID, q.CreatedBy)
	assert.Equal(t, 1, f.db.LinkCount())

	history := f.db.History(q.ID)
	require.Len(t, history, 1)
	assert.Equal(t, model.ChangeCreated, history[0].ChangeType)
}

func TestCreateWithForeignCategoryRollsBack(t *testing.T) {
	f := newFixture(t)
	req := validCreate()
	req.Categories = []int64{10, 20}

	_, err := f.questions.Create(context.Background(), f.writer, req)

	assert.Equal(t, apperror.KindBadRequest, apperror.KindOf(err))
	assert.True(t, apperror.Is(err, apperror.CodeCategoryNotFound))
	assert.Zero(t, f.db.QuestionCount())
	assert.Zero(t, f.db.LinkCount())
}

func TestCreateHistoryFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("history unavailable")
	f.db.FailOn("history.Append", boom)

	_, err := f.questions.Create(context.Background(), f.writer, validCreate())

	assert.ErrorIs(t, err, boom)
	assert.Zero(t, f.db.QuestionCount())
	assert.Zero(t, f.db.LinkCount())
}

func TestCreateRequiresWritePermission(t *testing.T) {
	f := newFixture(t)

	_, err := f.questions.Create(context.Background(), f.reviewer, validCreate())

	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))
	assert.Zero(t, f.db.QuestionCount())
}

func TestGetQuestionScopedToCompany(t *testing.T) {
	f := newFixture(t)
	q := f.createQuestion(t)
	ctx := context.Background()

	_, err := f.questions.Get(ctx, f.outsider, q.ID)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	_, err = f.votes.Vote(ctx, f.voter, q.ID, "up")
	require.NoError(t, err)

	detail, err := f.questions.Get(ctx, f.voter, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "Writer", detail.AuthorName)
	assert.Equal(t, []string{"Math"}, detail.Categories)
	assert.Equal(t, model.VoteTally{Up: 1}, detail.Votes)
	require.NotNil(t, detail.UserVote)
	assert.Equal(t, model.VoteUp, *detail.UserVote)
	require.Len(t, detail.History, 2)
	assert.Equal(t, model.ChangeVote, detail.History[0].ChangeType)
	assert.Equal(t, "Voter", detail.History[0].ActorName)
}

func TestListQuestions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.createQuestion(t)
	req := validCreate()
	req.Content = "Which planet is closest to the sun?"
	req.Categories = []int64{11}
	second, err := f.questions.Create(ctx, f.writer, req)
	require.NoError(t, err)
	f.db.SetStatusDirect(second.ID, model.QuestionStatusActive)

	views, page, err := f.questions.List(ctx, f.voter, model.ListQuestionsQuery{})
	require.NoError(t, err)
	assert.Len(t, views, 2)
	assert.Equal(t, 2, page.TotalItems)

	views, _, err = f.questions.List(ctx, f.voter, model.ListQuestionsQuery{Status: "active"})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, second.ID, views[0].ID)

	views, _, err = f.questions.List(ctx, f.voter, model.ListQuestionsQuery{Category: 10})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, first.ID, views[0].ID)

	views, _, err = f.questions.List(ctx, f.voter, model.ListQuestionsQuery{Search: "PLANET"})
	require.NoError(t, err)
	require.Len(t, views, 1)

	views, page, err = f.questions.List(ctx, f.voter, model.ListQuestionsQuery{Page: 2, Limit: 1, SortBy: "created_at", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, second.ID, views[0].ID)
	assert.Equal(t, 2, page.TotalPages)

	views, _, err = f.questions.List(ctx, f.outsider, model.ListQuestionsQuery{})
	require.NoError(t, err)
	assert.Empty(t, views)

	_, _, err = f.questions.List(ctx, f.voter, model.ListQuestionsQuery{SortBy: "content"})
	assert.Equal(t, apperror.KindBadRequest, apperror.KindOf(err))
}

func TestUpdateByAuthor(t *testing.T) {
	f := newFixture(t)
	q := f.createQuestion(t)
	content := "What is the capital city of France?"
	status := "active"

	updated, err := f.questions.Update(context.Background(), f.writer, q.ID, model.UpdateQuestionRequest{
		Content: &content,
		Status:  &status,
	})

	require.NoError(t, err)
	assert.Equal(t, content, updated.Content)
	assert.Equal(t, model.QuestionStatusPendingReview, updated.Status, "non-admin status change is ignored")

	history := f.db.History(q.ID)
	require.Len(t, history, 2)
	assert.Equal(t, model.ChangeUpdated, history[1].ChangeType)
}

func TestUpdateStatusByAdmin(t *testing.T) {
	f := newFixture(t)
	q := f.createQuestion(t)
	status := "active"

	updated, err := f.questions.Update(context.Background(), f.admin, q.ID, model.UpdateQuestionRequest{Status: &status})

	require.NoError(t, err)
	assert.Equal(t, model.QuestionStatusActive, updated.Status)
}

func TestUpdateWithoutChangesWritesNoHistory(t *testing.T) {
	f := newFixture(t)
	q := f.createQuestion(t)
	same := q.Content

	_, err := f.questions.Update(context.Background(), f.writer, q.ID, model.UpdateQuestionRequest{
		Content:    &same,
		Categories: []int64{10},
	})

	require.NoError(t, err)
	assert.Len(t, f.db.History(q.ID), 1)
}

func TestUpdateReplacesCategories(t *testing.T) {
	f := newFixture(t)
	q := f.createQuestion(t)
	ctx := context.Background()

	_, err := f.questions.Update(ctx, f.writer, q.ID, model.UpdateQuestionRequest{Categories: []int64{11}})
	require.NoError(t, err)
	ids, _ := f.db.Questions().CategoryIDs(ctx, q.ID)
	assert.Equal(t, []int64{11}, ids)
	assert.Len(t, f.db.History(q.ID), 2)

	_, err = f.questions.Update(ctx, f.writer, q.ID, model.UpdateQuestionRequest{Categories: []int64{}})
	require.NoError(t, err)
	assert.Zero(t, f.db.LinkCount())
}

func TestUpdateWithForeignCategoryRollsBack(t *testing.T) {
	f := newFixture(t)
	q := f.createQuestion(t)
	content := "A completely different question text?"

	_, err := f.questions.Update(context.Background(), f.writer, q.ID, model.UpdateQuestionRequest{
		Content:    &content,
		Categories: []int64{20},
	})

	assert.True(t, apperror.Is(err, apperror.CodeCategoryNotFound))
	stored, _ := f.db.Question(q.ID)
	assert.Equal(t, q.Content, stored.Content)
	assert.Equal(t, 1, f.db.LinkCount())
	assert.Len(t, f.db.History(q.ID), 1)
}

func TestUpdateValidatesAnswersAgainstStoredOptions(t *testing.T) {
	f := newFixture(t)
	q := f.createQuestion(t)

	_, err := f.questions.Update(context.Background(), f.writer, q.ID, model.UpdateQuestionRequest{CorrectAnswers: []int{5}})

	assert.Equal(t, apperror.KindBadRequest, apperror.KindOf(err))
}

func TestUpdateForbiddenForOtherUser(t *testing.T) {
	f := newFixture(t)
	q := f.createQuestion(t)
	content := "Someone else's rewrite of this question"

	_, err := f.questions.Update(context.Background(), f.voter, q.ID, model.UpdateQuestionRequest{Content: &content})
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

	_, err = f.questions.Update(context.Background(), f.outsider, q.ID, model.UpdateQuestionRequest{Content: &content})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestDeleteQuestion(t *testing.T) {
	f := newFixture(t)
	q := f.createQuestion(t)
	ctx := context.Background()
	_, err := f.votes.Vote(ctx, f.voter, q.ID, "up")
	require.NoError(t, err)

	err = f.questions.Delete(ctx, f.voter, q.ID)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

	require.NoError(t, f.questions.Delete(ctx, f.writer, q.ID))
	assert.Zero(t, f.db.QuestionCount())
	assert.Zero(t, f.db.VoteCount())
	assert.Zero(t, f.db.LinkCount())
	assert.Empty(t, f.db.History(q.ID))
}

func TestDeleteFailureKeepsQuestion(t *testing.T) {
	f := newFixture(t)
	q := f.createQuestion(t)
	boom := errors.New("delete failed")
	f.db.FailOn("questions.Delete", boom)

	err := f.questions.Delete(context.Background(), f.admin, q.ID)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, f.db.QuestionCount())
	assert.Len(t, f.db.History(q.ID), 1)
}

func TestInvalidate(t *testing.T) {
	f := newFixture(t)
	q := f.createQuestion(t)

	res, err := f.questions.Invalidate(context.Background(), f.reviewer, q.ID, "  duplicate of another question ")

	require.NoError(t, err)
	assert.Equal(t, &model.InvalidateResult{QuestionID: q.ID, Status: model.QuestionStatusInactive}, res)
	stored, _ := f.db.Question(q.ID)
	assert.Equal(t, model.QuestionStatusInactive, stored.Status)

	history := f.db.History(q.ID)
	require.Len(t, history, 2)
	assert.Equal(t, model.ChangeStatusChanged, history[1].ChangeType)
	assert.Contains(t, history[1].Details, "duplicate of another question")
}

func TestInvalidateEmptyReason(t *testing.T) {
	f := newFixture(t)
	q := f.createQuestion(t)

	_, err := f.questions.Invalidate(context.Background(), f.reviewer, q.ID, "   ")

	assert.Equal(t, apperror.KindBadRequest, apperror.KindOf(err))
	assert.True(t, apperror.Is(err, apperror.CodeReasonRequired))
	stored, _ := f.db.Question(q.ID)
	assert.Equal(t, model.QuestionStatusPendingReview, stored.Status)
	assert.Len(t, f.db.History(q.ID), 1)
}

func TestInvalidateRequiresReviewer(t *testing.T) {
	f := newFixture(t)
	q := f.createQuestion(t)

	_, err := f.questions.Invalidate(context.Background(), f.writer, q.ID, "bad question")
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

	_, err = f.questions.Invalidate(context.Background(), f.admin, q.ID, "bad question")
	assert.NoError(t, err)
}
