package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/qbank-backend/internal/config"
	"github.com/stemsi/qbank-backend/internal/model"
)

const enqueueTimeout = 2 * time.Second

// Sink accepts audit entries. Record must not block the caller and must
// never report failure to it.
type Sink interface {
	Record(entry model.AuditLogEntry)
}

// RedisSink enqueues entries on the audit queue for AuditWorker to persist.
type RedisSink struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedisSink creates a new RedisSink.
func NewRedisSink(rdb *redis.Client, log zerolog.Logger) *RedisSink {
	return &RedisSink{
		rdb: rdb,
		log: log.With().Str("component", "audit_sink").Logger(),
	}
}

// Record pushes the entry asynchronously. Failures are logged and dropped.
func (s *RedisSink) Record(entry model.AuditLogEntry) {
	go s.enqueue(entry)
}

func (s *RedisSink) enqueue(entry model.AuditLogEntry) {
	raw, err := json.Marshal(entry)
	if err != nil {
		s.log.Error().Err(err).Str("action", entry.Action).Msg("Failed to encode audit entry")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), enqueueTimeout)
	defer cancel()

	if err := s.rdb.RPush(ctx, config.WorkerKey.AuditLogQueue, raw).Err(); err != nil {
		s.log.Error().Err(err).Str("action", entry.Action).Msg("Failed to enqueue audit entry")
	}
}
