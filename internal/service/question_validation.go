package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/stemsi/qbank-backend/internal/apperror"
	"github.com/stemsi/qbank-backend/internal/model"
)

const (
	minContentLen = 10
	maxContentLen = 1000
	minOptions    = 2
	maxOptions    = 10
	maxOptionLen  = 200
	maxReasonLen  = 500

	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

func invalid(format string, args ...any) error {
	return apperror.BadRequest(apperror.CodeValidation, fmt.Sprintf(format, args...))
}

// ValidateCreate checks a create payload and normalises it into an input.
func ValidateCreate(req model.CreateQuestionRequest, caller model.Identity) (model.QuestionInput, error) {
	content, err := validateContent(req.Content)
	if err != nil {
		return model.QuestionInput{}, err
	}
	options, err := validateOptions(req.Options)
	if err != nil {
		return model.QuestionInput{}, err
	}
	answers, err := validateCorrectAnswers(req.CorrectAnswers, len(options))
	if err != nil {
		return model.QuestionInput{}, err
	}
	categories, err := validateCategoryIDs(req.Categories)
	if err != nil {
		return model.QuestionInput{}, err
	}

	return model.QuestionInput{
		Content:        content,
		Options:        options,
		CorrectAnswers: answers,
		CategoryIDs:    categories,
		AuthorID:       caller.UserID,
		CompanyID:      caller.CompanyID,
	}, nil
}

// ValidateUpdate checks a partial update against the stored question. A
// status change requested by a non-admin is dropped.
func ValidateUpdate(req model.UpdateQuestionRequest, current *model.Question, isAdmin bool) (model.QuestionPatch, error) {
	var p model.QuestionPatch

	if req.Content != nil {
		content, err := validateContent(*req.Content)
		if err != nil {
			return p, err
		}
		p.Content = &content
	}

	options := current.Options
	if req.Options != nil {
		opts, err := validateOptions(req.Options)
		if err != nil {
			return p, err
		}
		p.Options = opts
		options = opts
	}

	switch {
	case req.CorrectAnswers != nil:
		answers, err := validateCorrectAnswers(req.CorrectAnswers, len(options))
		if err != nil {
			return p, err
		}
		p.CorrectAnswers = answers
	case req.Options != nil:
		// New options must still cover the stored answers.
		if _, err := validateCorrectAnswers(current.CorrectAnswers, len(options)); err != nil {
			return p, err
		}
	}

	if req.Categories != nil {
		ids, err := validateCategoryIDs(req.Categories)
		if err != nil {
			return p, err
		}
		p.CategoryIDs = ids
		p.CategoriesSet = true
	}

	if req.Status != nil && isAdmin {
		status := model.QuestionStatus(*req.Status)
		if !status.Valid() {
			return p, invalid("status must be one of pending_review, active, inactive")
		}
		p.Status = &status
	}

	return p, nil
}

// ValidateListQuery applies defaults and bounds to a list query.
func ValidateListQuery(q model.ListQuestionsQuery, companyID int64) (model.QuestionFilter, error) {
	f := model.QuestionFilter{
		CompanyID:  companyID,
		CategoryID: q.Category,
		Search:     strings.TrimSpace(q.Search),
		SortBy:     q.SortBy,
		Page:       q.Page,
		Limit:      q.Limit,
	}

	if f.Page == 0 {
		f.Page = defaultPage
	}
	if f.Limit == 0 {
		f.Limit = defaultLimit
	}
	if f.Page < 1 {
		return f, invalid("page must be at least 1")
	}
	if f.Limit < 1 || f.Limit > maxLimit {
		return f, invalid("limit must be between 1 and %d", maxLimit)
	}
	if f.CategoryID < 0 {
		return f, invalid("category must be a positive id")
	}

	if q.Status != "" {
		status := model.QuestionStatus(q.Status)
		if !status.Valid() {
			return f, invalid("status must be one of pending_review, active, inactive")
		}
		f.Status = status
	}

	switch f.SortBy {
	case "":
		f.SortBy = "created_at"
	case "created_at", "score", "status":
	default:
		return f, invalid("sortBy must be one of created_at, score, status")
	}

	switch strings.ToUpper(q.SortOrder) {
	case "", "DESC":
		f.SortOrder = "DESC"
	case "ASC":
		f.SortOrder = "ASC"
	default:
		return f, invalid("sortOrder must be ASC or DESC")
	}

	return f, nil
}

// ValidateReason trims an invalidation reason and requires it to be non-empty.
func ValidateReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", apperror.BadRequest(apperror.CodeReasonRequired, "reason is required for invalidation")
	}
	if utf8.RuneCountInString(reason) > maxReasonLen {
		return "", invalid("reason must be at most %d characters", maxReasonLen)
	}
	return reason, nil
}

// ParseVoteType accepts exactly "up" or "down".
func ParseVoteType(s string) (model.VoteType, error) {
	vt := model.VoteType(s)
	if !vt.Valid() {
		return "", apperror.BadRequest(apperror.CodeInvalidVoteType, `invalid vote type, must be "up" or "down"`)
	}
	return vt, nil
}

func validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	n := utf8.RuneCountInString(content)
	if n < minContentLen || n > maxContentLen {
		return "", invalid("content must be between %d and %d characters", minContentLen, maxContentLen)
	}
	return content, nil
}

func validateOptions(options []string) ([]string, error) {
	if len(options) < minOptions || len(options) > maxOptions {
		return nil, invalid("options must contain between %d and %d items", minOptions, maxOptions)
	}
	out := make([]string, len(options))
	for i, o := range options {
		o = strings.TrimSpace(o)
		if o == "" {
			return nil, invalid("option %d must not be empty", i)
		}
		if utf8.RuneCountInString(o) > maxOptionLen {
			return nil, invalid("option %d must be at most %d characters", i, maxOptionLen)
		}
		out[i] = o
	}
	return out, nil
}

func validateCorrectAnswers(answers []int, optionCount int) ([]int, error) {
	if len(answers) == 0 {
		return nil, invalid("correctAnswers must contain at least one index")
	}
	seen := make(map[int]struct{}, len(answers))
	out := make([]int, 0, len(answers))
	for _, a := range answers {
		if a < 0 || a >= optionCount {
			return nil, invalid("correct answer index %d is out of range", a)
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out, nil
}

func validateCategoryIDs(ids []int64) ([]int64, error) {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return nil, invalid("category ids must be positive")
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}
