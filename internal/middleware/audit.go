package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/qbank-backend/internal/audit"
	"github.com/stemsi/qbank-backend/internal/model"
	"github.com/stemsi/qbank-backend/internal/response"
)

// maxAuditBody caps how much of a request body is captured.
const maxAuditBody = 64 << 10

// AuditLog records mutating requests, and any request under one of
// sensitivePaths, to the sink once the handler has finished.
func AuditLog(sink audit.Sink, sensitivePaths []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !shouldAudit(c.Request.Method, c.Request.URL.Path, sensitivePaths) {
			c.Next()
			return
		}

		start := time.Now()
		body := captureBody(c.Request)

		// Deferred so a panicking handler is still recorded before Recovery
		// turns it into a 500.
		defer func() {
			rec := recover()

			entry := model.AuditLogEntry{
				Action:         c.Request.Method + " " + c.Request.URL.Path,
				IPAddress:      c.ClientIP(),
				UserAgent:      c.Request.UserAgent(),
				Method:         c.Request.Method,
				Path:           c.Request.URL.Path,
				Params:         paramsJSON(c.Params),
				Query:          queryJSON(c),
				RequestBody:    audit.RedactJSON(body),
				StatusCode:     c.Writer.Status(),
				ResponseTimeMs: time.Since(start).Milliseconds(),
				Error:          c.GetString(response.ContextKeyErrorCode),
				CreatedAt:      start.UTC(),
			}
			if rec != nil {
				entry.StatusCode = http.StatusInternalServerError
				if entry.Error == "" {
					entry.Error = string(response.ErrInternal)
				}
			}
			if claims := GetClaims(c); claims != nil {
				uid := claims.UserID
				entry.UserID = &uid
			}

			sink.Record(entry)

			if rec != nil {
				panic(rec)
			}
		}()

		c.Next()
	}
}

func shouldAudit(method, path string, sensitivePaths []string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	for _, prefix := range sensitivePaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// captureBody reads the body and puts it back for the handler.
func captureBody(r *http.Request) []byte {
	if r.Body == nil {
		return nil
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxAuditBody+1))
	rest := r.Body
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), rest))
	if err != nil || len(raw) > maxAuditBody {
		return nil
	}
	return raw
}

func paramsJSON(params gin.Params) json.RawMessage {
	if len(params) == 0 {
		return nil
	}
	m := make(map[string]string, len(params))
	for _, p := range params {
		m[p.Key] = p.Value
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return raw
}

func queryJSON(c *gin.Context) json.RawMessage {
	q := c.Request.URL.Query()
	if len(q) == 0 {
		return nil
	}
	m := make(map[string]any, len(q))
	for k, v := range q {
		if audit.IsSensitive(k) {
			m[k] = audit.RedactedMarker
			continue
		}
		if len(v) == 1 {
			m[k] = v[0]
		} else {
			m[k] = v
		}
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return raw
}
