// Package audit records HTTP-level audit entries off the request path.
package audit

import (
	"encoding/json"
	"strings"
)

// RedactedMarker replaces the value of every sensitive field.
const RedactedMarker = "***REDACTED***"

var sensitiveFields = map[string]struct{}{
	"password":        {},
	"newpassword":     {},
	"confirmpassword": {},
	"token":           {},
	"refreshtoken":    {},
	"creditcard":      {},
	"cvv":             {},
	"ssn":             {},
	"apikey":          {},
	"secret":          {},
}

// IsSensitive reports whether a field name must be redacted. Matching is
// case-insensitive.
func IsSensitive(field string) bool {
	_, ok := sensitiveFields[strings.ToLower(field)]
	return ok
}

// Redact returns a copy of v with sensitive fields replaced, descending
// through nested objects and arrays.
func Redact(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if IsSensitive(k) {
				out[k] = RedactedMarker
				continue
			}
			out[k] = Redact(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Redact(val)
		}
		return out
	default:
		return v
	}
}

// RedactJSON redacts a raw JSON document. Empty input, empty objects and
// bodies that are not JSON yield nil so nothing unredacted is stored.
func RedactJSON(raw []byte) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	if m, ok := v.(map[string]any); ok && len(m) == 0 {
		return nil
	}

	out, err := json.Marshal(Redact(v))
	if err != nil {
		return nil
	}
	return out
}
