package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/qbank-backend/internal/config"
	"github.com/stemsi/qbank-backend/internal/model"
)

const (
	AuditBatchSize    = 50
	AuditBatchTimeout = 2 * time.Second
	AuditPollTimeout  = 1 * time.Second
)

// AuditStore persists audit entries.
type AuditStore interface {
	InsertBatch(ctx context.Context, batch []model.AuditLogEntry) error
	Insert(ctx context.Context, entry model.AuditLogEntry) error
}

// AuditWorker drains the audit queue into the audit_logs table.
type AuditWorker struct {
	store AuditStore
	rdb   *redis.Client
	log   zerolog.Logger

	BatchSize    int
	BatchTimeout time.Duration
	PollTimeout  time.Duration
}

func NewAuditWorker(store AuditStore, rdb *redis.Client, batchSize int, log zerolog.Logger) *AuditWorker {
	if batchSize <= 0 {
		batchSize = AuditBatchSize
	}
	return &AuditWorker{
		store:        store,
		rdb:          rdb,
		log:          log.With().Str("component", "audit_worker").Logger(),
		BatchSize:    batchSize,
		BatchTimeout: AuditBatchTimeout,
		PollTimeout:  AuditPollTimeout,
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *AuditWorker) Start(ctx context.Context) {
	w.log.Info().Msg("AuditWorker started")

	batch := make([]model.AuditLogEntry, 0, w.BatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= w.BatchSize || time.Since(lastFlush) >= w.BatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.WithoutCancel(ctx), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, w.PollTimeout, config.WorkerKey.AuditLogQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
					time.Sleep(w.PollTimeout)
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var e model.AuditLogEntry
			if err := json.Unmarshal([]byte(item[1]), &e); err != nil {
				w.log.Error().Err(err).Msg("Invalid audit payload, dropped")
				continue
			}
			if e.CreatedAt.IsZero() {
				e.CreatedAt = time.Now().UTC()
			}

			batch = append(batch, e)
		}
	}
}

// ----------------------------------------------------------------
// Batch insert with row-by-row fallback. Entries that still fail are
// logged and dropped; audit persistence is never retried.
// ----------------------------------------------------------------

func (w *AuditWorker) flushSafe(ctx context.Context, batch []model.AuditLogEntry) {
	if len(batch) == 0 {
		return
	}

	if err := w.store.InsertBatch(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("size", len(batch)).Msg("bulk audit insert failed, using fallback")

		for _, e := range batch {
			if err := w.store.Insert(ctx, e); err != nil {
				w.log.Error().Err(err).Str("action", e.Action).Msg("audit insert failed, entry dropped")
			}
		}
		return
	}

	w.log.Debug().Int("size", len(batch)).Msg("Audit batch persisted")
}
