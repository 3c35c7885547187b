package audit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactNestedAndCaseInsensitive(t *testing.T) {
	raw := []byte(`{
		"email": "a@b.c",
		"Password": "hunter2",
		"newPassword": "x",
		"profile": {"apiKey": "k", "name": "Ana"},
		"cards": [{"CVV": "123", "last4": "4242"}],
		"tags": ["token", "secret"]
	}`)

	var got map[string]any
	require.NoError(t, json.Unmarshal(RedactJSON(raw), &got))

	assert.Equal(t, "a@b.c", got["email"])
	assert.Equal(t, RedactedMarker, got["Password"])
	assert.Equal(t, RedactedMarker, got["newPassword"])

	profile := got["profile"].(map[string]any)
	assert.Equal(t, RedactedMarker, profile["apiKey"])
	assert.Equal(t, "Ana", profile["name"])

	card := got["cards"].([]any)[0].(map[string]any)
	assert.Equal(t, RedactedMarker, card["CVV"])
	assert.Equal(t, "4242", card["last4"])

	// Values that merely look sensitive are kept.
	assert.Equal(t, []any{"token", "secret"}, got["tags"])
}

func TestRedactJSONEmptyOrInvalid(t *testing.T) {
	assert.Nil(t, RedactJSON(nil))
	assert.Nil(t, RedactJSON([]byte(`{}`)))
	assert.Nil(t, RedactJSON([]byte(`password=hunter2`)))
}

func TestIsSensitive(t *testing.T) {
	for _, f := range []string{"password", "CONFIRMPASSWORD", "refreshToken", "creditCard", "ssn", "Secret"} {
		assert.True(t, IsSensitive(f), f)
	}
	assert.False(t, IsSensitive("content"))
}
