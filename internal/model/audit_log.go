package model

import (
	"encoding/json"
	"time"
)

// AuditLogEntry is one HTTP-level audit record.
type AuditLogEntry struct {
	UserID         *int64          `json:"user_id,omitempty"`
	Action         string          `json:"action"`
	IPAddress      string          `json:"ip_address"`
	UserAgent      string          `json:"user_agent"`
	Method         string          `json:"method"`
	Path           string          `json:"path"`
	Params         json.RawMessage `json:"params,omitempty"`
	Query          json.RawMessage `json:"query,omitempty"`
	RequestBody    json.RawMessage `json:"request_body,omitempty"`
	StatusCode     int             `json:"status_code"`
	ResponseTimeMs int64           `json:"response_time_ms"`
	Error          string          `json:"error,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}
