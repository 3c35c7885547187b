package websocket

import "github.com/stemsi/qbank-backend/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError Event = "error"
	EventTally Event = "tally"
	EventPong  Event = "pong"
)

// TallyEvent carries the current vote tally of a question. It is also the
// Redis Pub/Sub payload, forwarded to clients unchanged.
type TallyEvent struct {
	Event      Event           `json:"event"`
	QuestionID int64           `json:"questionId"`
	Votes      model.VoteTally `json:"votes"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
