package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/qbank-backend/internal/config"
	"github.com/stemsi/qbank-backend/internal/response"
	"github.com/stemsi/qbank-backend/internal/service"
	ws "github.com/stemsi/qbank-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams live vote tallies.
type WSHandler struct {
	rdb         *redis.Client
	voteService *service.VoteService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(rdb *redis.Client, voteService *service.VoteService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rdb:         rdb,
		voteService: voteService,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// VoteTallyStream godoc
// WS /ws/v1/questions/:id/votes?token=
// Sends the current tally on connect, then every tally published after a
// vote commits, until the client disconnects.
func (h *WSHandler) VoteTallyStream(c *gin.Context) {
	caller, ok := callerIdentity(c)
	if !ok {
		return
	}
	id, ok := questionID(c)
	if !ok {
		return
	}

	// Scope check before upgrading so errors use the normal envelope.
	tally, err := h.voteService.Tally(c.Request.Context(), caller, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := h.rdb.Subscribe(ctx, config.CacheKey.QuestionVotesChannel(id))
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		h.log.Error().Err(err).Int64("question_id", id).Msg("Tally subscription failed")
		response.Error(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int64("user_id", caller.UserID).
		Int64("question_id", id).
		Logger()
	wsLog.Debug().Msg("Tally stream connected")

	if err := ws.WriteTyped(conn, ws.TallyEvent{Event: ws.EventTally, QuestionID: id, Votes: tally}); err != nil {
		return
	}

	actions := make(chan ws.Action, 4)
	go h.readLoop(conn, wsLog, actions, cancel)

	ticker := time.NewTicker(ws.PingPeriod)
	defer ticker.Stop()

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			wsLog.Debug().Msg("Tally stream closed")
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			if err := ws.WriteRaw(conn, []byte(msg.Payload)); err != nil {
				wsLog.Debug().Err(err).Msg("Tally write failed")
				return
			}
		case action := <-actions:
			var err error
			if action == ws.ActionPing {
				err = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			} else {
				err = ws.WriteError(conn, "unknown action: "+string(action))
			}
			if err != nil {
				return
			}
		case <-ticker.C:
			if err := ws.WritePing(conn); err != nil {
				return
			}
		}
	}
}

// readLoop consumes client frames until the connection fails. All writes
// stay on the stream goroutine, so actions needing a reply are handed over
// on the channel and dropped when it is full.
func (h *WSHandler) readLoop(conn *websocket.Conn, wsLog zerolog.Logger, actions chan<- ws.Action, cancel context.CancelFunc) {
	defer cancel()
	ws.ExtendReadDeadline(conn)

	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}

		if msg.Action != ws.ActionPing {
			wsLog.Debug().Str("action", string(msg.Action)).Msg("Unknown action")
		}
		select {
		case actions <- msg.Action:
		default:
		}
	}
}
