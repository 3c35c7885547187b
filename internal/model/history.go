package model

import "time"

// ChangeType classifies a domain history entry.
type ChangeType string

const (
	ChangeCreated       ChangeType = "created"
	ChangeUpdated       ChangeType = "updated"
	ChangeDeleted       ChangeType = "deleted"
	ChangeStatusChanged ChangeType = "status_changed"
	ChangeVote          ChangeType = "vote"
)

// HistoryEntry is one append-only lifecycle event on a question.
type HistoryEntry struct {
	ID         int64      `json:"id"`
	QuestionID int64      `json:"questionId"`
	ChangedBy  *int64     `json:"changedBy"`
	ActorName  string     `json:"actorName,omitempty"`
	ChangeType ChangeType `json:"changeType"`
	Details    string     `json:"details"`
	CreatedAt  time.Time  `json:"createdAt"`
}
