package scoring

import (
	"testing"
	"time"

	"github.com/stemsi/qbank-backend/internal/model"
	"github.com/stretchr/testify/assert"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestCalculateFreshQuestionWithVotes(t *testing.T) {
	in := model.ScoreInputs{
		Upvotes:          3,
		Downvotes:        1,
		AuthorReputation: 50,
		CreatedAt:        now,
	}

	assert.InDelta(t, 12.5, Calculate(in, now), 1e-9)
}

func TestCalculateAppliesLogDecay(t *testing.T) {
	in := model.ScoreInputs{CreatedAt: now.Add(-9 * 24 * time.Hour)}

	assert.InDelta(t, 0.99, Calculate(in, now), 1e-9)
}

func TestCalculateNeverNegative(t *testing.T) {
	in := model.ScoreInputs{
		Downvotes:       40,
		TotalAttempts:   10,
		CorrectAttempts: 0,
		CreatedAt:       now.Add(-365 * 24 * time.Hour),
	}

	assert.Equal(t, 0.0, Calculate(in, now))
}

func TestCalculateAccuracyAndViews(t *testing.T) {
	in := model.ScoreInputs{
		TotalAttempts:   4,
		CorrectAttempts: 3,
		Views:           1000,
		CreatedAt:       now,
	}

	// 1 + 1 (views) + 0.75*0.5 + 0.25*(-0.2)
	assert.InDelta(t, 2.325, Calculate(in, now), 1e-9)
}

func TestCalculateFutureCreatedAtHasNoDecay(t *testing.T) {
	in := model.ScoreInputs{CreatedAt: now.Add(time.Hour)}

	assert.Equal(t, BaseScore, Calculate(in, now))
}

func TestCalculateIsIdempotent(t *testing.T) {
	in := model.ScoreInputs{Upvotes: 2, Views: 17, CreatedAt: now.Add(-48 * time.Hour)}

	assert.Equal(t, Calculate(in, now), Calculate(in, now))
}
