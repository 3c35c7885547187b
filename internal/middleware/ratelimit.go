package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/qbank-backend/internal/config"
	"github.com/stemsi/qbank-backend/internal/response"
)

// VoteRateLimiter caps votes per user with a Redis fixed-window counter, so
// the limit holds across API instances.
type VoteRateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
	log    zerolog.Logger
}

// NewVoteRateLimiter creates a limiter allowing limit votes per window.
func NewVoteRateLimiter(rdb *redis.Client, limit int, window time.Duration, log zerolog.Logger) *VoteRateLimiter {
	return &VoteRateLimiter{
		rdb:    rdb,
		limit:  limit,
		window: window,
		now:    time.Now,
		log:    log.With().Str("component", "vote_rate_limiter").Logger(),
	}
}

// Middleware rejects callers over the limit with 429. It must run after
// RequireAuth. If Redis is unavailable the request is allowed.
func (rl *VoteRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil || rl.limit <= 0 {
			c.Next()
			return
		}

		window := rl.now().UnixNano() / int64(rl.window)
		key := config.CacheKey.VoteRateKey(claims.UserID, window)
		ctx := c.Request.Context()

		pipe := rl.rdb.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, rl.window)
		if _, err := pipe.Exec(ctx); err != nil {
			rl.log.Warn().Err(err).Int64("user_id", claims.UserID).Msg("Rate limit check failed, allowing request")
			c.Next()
			return
		}

		if incr.Val() > int64(rl.limit) {
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}

		c.Next()
	}
}
