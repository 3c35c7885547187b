package service

import (
	"github.com/stemsi/qbank-backend/internal/apperror"
	"github.com/stemsi/qbank-backend/internal/model"
)

func authorizeCreate(caller model.Identity) error {
	if !caller.Can(model.PermissionQuestionsWrite) {
		return apperror.Forbidden("not authorized to create questions")
	}
	return nil
}

// authorizeModify allows the author or a moderator to edit or delete.
func authorizeModify(caller model.Identity, q *model.Question) error {
	if caller.Owns(q.CreatedBy) || caller.Can(model.PermissionQuestionsModerate) {
		return nil
	}
	return apperror.Forbidden("not authorized to modify this question")
}

func authorizeInvalidate(caller model.Identity) error {
	if !caller.Can(model.PermissionQuestionsReview) {
		return apperror.Forbidden("not authorized to invalidate questions")
	}
	return nil
}

func authorizeVote(caller model.Identity, q *model.Question) error {
	if caller.Owns(q.CreatedBy) {
		return apperror.BadRequest(apperror.CodeSelfVote, "you cannot vote on your own question")
	}
	return nil
}
