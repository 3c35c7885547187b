package service

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/qbank-backend/internal/config"
	"github.com/stemsi/qbank-backend/internal/model"
	ws "github.com/stemsi/qbank-backend/internal/websocket"
)

// RedisTallyPublisher fans tallies out over Redis Pub/Sub so every API
// instance can forward them to its WebSocket clients.
type RedisTallyPublisher struct {
	rdb *redis.Client
}

// NewRedisTallyPublisher creates a new RedisTallyPublisher.
func NewRedisTallyPublisher(rdb *redis.Client) *RedisTallyPublisher {
	return &RedisTallyPublisher{rdb: rdb}
}

// PublishTally implements TallyPublisher.
func (p *RedisTallyPublisher) PublishTally(ctx context.Context, questionID int64, tally model.VoteTally) error {
	payload, err := json.Marshal(ws.TallyEvent{
		Event:      ws.EventTally,
		QuestionID: questionID,
		Votes:      tally,
	})
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, config.CacheKey.QuestionVotesChannel(questionID), payload).Err()
}
