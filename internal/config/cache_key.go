package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// QuestionVotesChannel returns the Redis PubSub channel carrying live vote tallies for a question
func (r *CacheKeyStruct) QuestionVotesChannel(questionID int64) string {
	return fmt.Sprintf("question:%d:votes", questionID)
}

// VoteRateKey returns the counter key for a user's votes within a rate-limit window
func (r *CacheKeyStruct) VoteRateKey(userID int64, window int64) string {
	return fmt.Sprintf("ratelimit:vote:%d:%d", userID, window)
}

var CacheKey = NewCacheKeyStruct()
