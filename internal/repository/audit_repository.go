package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/qbank-backend/internal/model"
)

// AuditRepository persists HTTP-level audit entries.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// InsertBatch writes a batch of entries in one round trip.
func (r *AuditRepository) InsertBatch(ctx context.Context, batch []model.AuditLogEntry) error {
	n := len(batch)
	if n == 0 {
		return nil
	}

	userIDs := make([]*int64, n)
	actions := make([]string, n)
	ips := make([]string, n)
	agents := make([]string, n)
	methods := make([]string, n)
	paths := make([]string, n)
	params := make([]string, n)
	queries := make([]string, n)
	bodies := make([]string, n)
	statuses := make([]int32, n)
	elapsed := make([]int64, n)
	errs := make([]string, n)
	createdAts := make([]time.Time, n)

	for i, e := range batch {
		userIDs[i] = e.UserID
		actions[i] = e.Action
		ips[i] = e.IPAddress
		agents[i] = e.UserAgent
		methods[i] = e.Method
		paths[i] = e.Path
		params[i] = string(e.Params)
		queries[i] = string(e.Query)
		bodies[i] = string(e.RequestBody)
		statuses[i] = int32(e.StatusCode)
		elapsed[i] = e.ResponseTimeMs
		errs[i] = e.Error
		createdAts[i] = e.CreatedAt
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_logs (
			user_id, action, ip_address, user_agent, method, path,
			params, query, request_body, status_code, response_time_ms, error, created_at
		)
		SELECT
			u.user_id, u.action, u.ip, u.agent, u.method, u.path,
			NULLIF(u.params, '')::jsonb, NULLIF(u.query, '')::jsonb, NULLIF(u.body, '')::jsonb,
			u.status, u.elapsed, NULLIF(u.err, ''), u.created_at
		FROM UNNEST(
			$1::bigint[], $2::text[], $3::text[], $4::text[], $5::text[], $6::text[],
			$7::text[], $8::text[], $9::text[], $10::int[], $11::bigint[], $12::text[], $13::timestamptz[]
		) AS u (user_id, action, ip, agent, method, path, params, query, body, status, elapsed, err, created_at)`,
		userIDs, actions, ips, agents, methods, paths,
		params, queries, bodies, statuses, elapsed, errs, createdAts,
	)
	return err
}

// Insert writes a single entry.
func (r *AuditRepository) Insert(ctx context.Context, e model.AuditLogEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_logs (
			user_id, action, ip_address, user_agent, method, path,
			params, query, request_body, status_code, response_time_ms, error, created_at
		) VALUES ($1, $2, $3, $4, $5, $6,
			NULLIF($7, '')::jsonb, NULLIF($8, '')::jsonb, NULLIF($9, '')::jsonb,
			$10, $11, NULLIF($12, ''), $13)`,
		e.UserID, e.Action, e.IPAddress, e.UserAgent, e.Method, e.Path,
		string(e.Params), string(e.Query), string(e.RequestBody),
		e.StatusCode, e.ResponseTimeMs, e.Error, e.CreatedAt,
	)
	return err
}
