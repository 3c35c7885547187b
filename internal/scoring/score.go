// Package scoring holds the pure ranking functions for questions and authors.
package scoring

import (
	"math"
	"time"

	"github.com/stemsi/qbank-backend/internal/model"
)

// Fixed weights of the question score.
const (
	BaseScore          = 1.0
	VoteWeight         = 1.0
	UpvoteMultiplier   = 1.0
	DownvoteMultiplier = -1.5
	AuthorRepWeight    = 0.2
	ViewWeight         = 0.001
	AnswerWeight       = 0.5
	IncorrectWeight    = -0.2
	TimeDecay          = 0.01
)

// Calculate computes a question's score from its current aggregate state.
// The result is never negative.
func Calculate(in model.ScoreInputs, now time.Time) float64 {
	voteScore := float64(in.Upvotes)*UpvoteMultiplier + float64(in.Downvotes)*DownvoteMultiplier

	accuracyScore := 0.0
	if in.TotalAttempts > 0 {
		accuracy := float64(in.CorrectAttempts) / float64(in.TotalAttempts)
		accuracyScore = accuracy*AnswerWeight + (1-accuracy)*IncorrectWeight
	}

	raw := BaseScore +
		voteScore*VoteWeight +
		float64(in.AuthorReputation)*AuthorRepWeight +
		float64(in.Views)*ViewWeight +
		accuracyScore

	decay := math.Log10(ageDays(in.CreatedAt, now)+1) * TimeDecay

	return math.Max(0, raw-decay)
}

// ageDays is clamped at zero so clock skew never inflates a score.
func ageDays(createdAt, now time.Time) float64 {
	age := now.Sub(createdAt).Seconds() / 86400
	if age < 0 {
		return 0
	}
	return age
}
