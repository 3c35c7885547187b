package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/qbank-backend/internal/config"
	"github.com/stemsi/qbank-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuditStore struct {
	mu         sync.Mutex
	batchErr   error
	failAction string
	batches    int
	rows       []model.AuditLogEntry
}

func (s *fakeAuditStore) InsertBatch(_ context.Context, batch []model.AuditLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.batchErr != nil {
		return s.batchErr
	}
	s.batches++
	s.rows = append(s.rows, batch...)
	return nil
}

func (s *fakeAuditStore) Insert(_ context.Context, e model.AuditLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.Action == s.failAction {
		return errors.New("row rejected")
	}
	s.rows = append(s.rows, e)
	return nil
}

func (s *fakeAuditStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func startAuditWorker(t *testing.T, store AuditStore) (*miniredis.Miniredis, context.CancelFunc, <-chan struct{}) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	w := NewAuditWorker(store, rdb, 2, zerolog.Nop())
	w.BatchTimeout = 50 * time.Millisecond
	w.PollTimeout = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()
	return mr, cancel, done
}

func push(t *testing.T, mr *miniredis.Miniredis, action string) {
	t.Helper()
	raw, err := json.Marshal(model.AuditLogEntry{Action: action, Method: "POST", Path: "/x", StatusCode: 200})
	require.NoError(t, err)
	_, err = mr.Push(config.WorkerKey.AuditLogQueue, string(raw))
	require.NoError(t, err)
}

func TestAuditWorkerBatches(t *testing.T) {
	store := &fakeAuditStore{}
	mr, cancel, done := startAuditWorker(t, store)

	push(t, mr, "a")
	push(t, mr, "b")
	push(t, mr, "c")

	require.Eventually(t, func() bool { return store.count() == 3 }, 3*time.Second, 10*time.Millisecond)
	cancel()
	<-done

	assert.GreaterOrEqual(t, store.batches, 2)
	for _, e := range store.rows {
		assert.False(t, e.CreatedAt.IsZero())
	}
}

func TestAuditWorkerFallsBackAndDrops(t *testing.T) {
	store := &fakeAuditStore{batchErr: errors.New("bulk broken"), failAction: "bad"}
	mr, cancel, done := startAuditWorker(t, store)

	push(t, mr, "good")
	push(t, mr, "bad")

	require.Eventually(t, func() bool { return store.count() == 1 }, 3*time.Second, 10*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, "good", store.rows[0].Action)
	items, _ := mr.List(config.WorkerKey.AuditLogQueue)
	assert.Empty(t, items, "failed entries are not requeued")
}

func TestAuditWorkerSkipsInvalidPayload(t *testing.T) {
	store := &fakeAuditStore{}
	mr, cancel, done := startAuditWorker(t, store)

	_, _ = mr.Push(config.WorkerKey.AuditLogQueue, "{not json")
	push(t, mr, "ok")

	require.Eventually(t, func() bool { return store.count() == 1 }, 3*time.Second, 10*time.Millisecond)
	cancel()
	<-done
}
