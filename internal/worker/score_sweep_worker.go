package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/qbank-backend/internal/model"
)

// Sweeper recomputes every active question's score.
type Sweeper interface {
	Sweep(ctx context.Context) (model.SweepResult, error)
}

// ScoreSweepWorker periodically corrects score drift caused by time decay
// and by status changes that no vote event observes.
type ScoreSweepWorker struct {
	sweeper    Sweeper
	interval   time.Duration
	runOnStart bool
	log        zerolog.Logger
}

func NewScoreSweepWorker(sweeper Sweeper, interval time.Duration, runOnStart bool, log zerolog.Logger) *ScoreSweepWorker {
	return &ScoreSweepWorker{
		sweeper:    sweeper,
		interval:   interval,
		runOnStart: runOnStart,
		log:        log.With().Str("component", "score_sweep_worker").Logger(),
	}
}

// Start blocks until ctx is cancelled. A sweep in progress stops between
// questions, keeping every score already written.
func (w *ScoreSweepWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("ScoreSweepWorker started")

	if w.runOnStart {
		w.run(ctx)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("ScoreSweepWorker stopped")
			return
		case <-ticker.C:
			w.run(ctx)
		}
	}
}

func (w *ScoreSweepWorker) run(ctx context.Context) {
	start := time.Now()

	res, err := w.sweeper.Sweep(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			w.log.Info().Int("questions", res.Questions).Msg("Score sweep interrupted by shutdown")
			return
		}
		w.log.Error().Err(err).Msg("Score sweep failed")
		return
	}

	w.log.Info().
		Int("questions", res.Questions).
		Int("failed", res.Failed).
		Int("authors", res.Authors).
		Dur("took", time.Since(start)).
		Msg("Score sweep finished")
}
