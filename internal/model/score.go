package model

import "time"

// ScoreInputs is the aggregate state a question's score is computed from.
type ScoreInputs struct {
	QuestionID       int64
	AuthorID         int64
	AuthorReputation int
	Upvotes          int
	Downvotes        int
	TotalAttempts    int
	CorrectAttempts  int
	Views            int
	CreatedAt        time.Time
}

// SweepResult summarises one full recomputation pass.
type SweepResult struct {
	Questions int `json:"questions"`
	Failed    int `json:"failed"`
	Authors   int `json:"authors"`
}
