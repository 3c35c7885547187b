package model

import "time"

// QuestionStatus is the review lifecycle state of a question.
type QuestionStatus string

const (
	QuestionStatusPendingReview QuestionStatus = "pending_review"
	QuestionStatusActive        QuestionStatus = "active"
	QuestionStatusInactive      QuestionStatus = "inactive"
)

// Valid reports whether s is a known status.
func (s QuestionStatus) Valid() bool {
	switch s {
	case QuestionStatusPendingReview, QuestionStatusActive, QuestionStatusInactive:
		return true
	}
	return false
}

// Question is a multiple-choice question owned by a company.
type Question struct {
	ID             int64          `json:"id"`
	Content        string         `json:"content"`
	Options        []string       `json:"options"`
	CorrectAnswers []int          `json:"correctAnswers"`
	Status         QuestionStatus `json:"status"`
	Score          float64        `json:"score"`
	CreatedBy      int64          `json:"createdBy"`
	CompanyID      int64          `json:"companyId"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// CreateQuestionRequest is the payload for authoring a question.
type CreateQuestionRequest struct {
	Content        string   `json:"content" binding:"required"`
	Options        []string `json:"options" binding:"required"`
	CorrectAnswers []int    `json:"correctAnswers" binding:"required"`
	Categories     []int64  `json:"categories"`
}

// UpdateQuestionRequest is the payload for a partial update. Nil fields are
// left untouched; an empty categories list clears all associations.
type UpdateQuestionRequest struct {
	Content        *string  `json:"content"`
	Options        []string `json:"options"`
	CorrectAnswers []int    `json:"correctAnswers"`
	Categories     []int64  `json:"categories"`
	Status         *string  `json:"status" binding:"omitempty,oneof=pending_review active inactive"`
}

// InvalidateRequest is the payload for marking a question inactive. A blank
// reason is rejected by the service as REASON_REQUIRED.
type InvalidateRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// InvalidateResult is returned after a successful invalidation.
type InvalidateResult struct {
	QuestionID int64          `json:"questionId"`
	Status     QuestionStatus `json:"status"`
}

// QuestionInput is a validated create payload.
type QuestionInput struct {
	Content        string
	Options        []string
	CorrectAnswers []int
	CategoryIDs    []int64
	AuthorID       int64
	CompanyID      int64
}

// QuestionPatch is a validated partial update. CategoriesSet distinguishes
// "replace with empty" from "leave alone".
type QuestionPatch struct {
	Content        *string
	Options        []string
	CorrectAnswers []int
	Status         *QuestionStatus
	CategoryIDs    []int64
	CategoriesSet  bool
}

// ListQuestionsQuery is the raw list query string.
type ListQuestionsQuery struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Status    string `form:"status" binding:"omitempty,oneof=pending_review active inactive"`
	Category  int64  `form:"category" binding:"omitempty,min=1"`
	Search    string `form:"search" binding:"omitempty,max=200"`
	SortBy    string `form:"sortBy" binding:"omitempty,oneof=created_at score status"`
	SortOrder string `form:"sortOrder"`
}

// QuestionFilter is a validated list query scoped to one company.
type QuestionFilter struct {
	CompanyID  int64
	Status     QuestionStatus
	CategoryID int64
	Search     string
	SortBy     string
	SortOrder  string
	Page       int
	Limit      int
}

// Offset returns the row offset for the filter's page.
func (f QuestionFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// QuestionView is the read projection returned by list and get.
type QuestionView struct {
	Question
	AuthorName string    `json:"authorName"`
	Categories []string  `json:"categories"`
	Votes      VoteTally `json:"votes"`
	UserVote   *VoteType `json:"userVote"`
}

// QuestionDetail is the get projection including domain history.
type QuestionDetail struct {
	QuestionView
	History []HistoryEntry `json:"history"`
}

// QuestionList is the list response payload.
type QuestionList struct {
	Questions []QuestionView `json:"questions"`
}
