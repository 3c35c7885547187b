package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/qbank-backend/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runError(t *testing.T, mode string, err error) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	gin.SetMode(mode)
	t.Cleanup(func() { gin.SetMode(gin.TestMode) })

	r := gin.New()
	r.Use(RequestIDMiddleware(zerolog.Nop()))
	r.GET("/", func(c *gin.Context) { Error(c, err) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestErrorMapsKindToStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   ErrCode
	}{
		{apperror.BadRequest(ErrSelfVote, "self vote"), http.StatusBadRequest, ErrSelfVote},
		{apperror.Unauthorized("who"), http.StatusUnauthorized, ErrUnauthorized},
		{apperror.Forbidden("no"), http.StatusForbidden, ErrForbidden},
		{apperror.NotFound("gone"), http.StatusNotFound, ErrNotFound},
		{apperror.Conflict("dup"), http.StatusConflict, ErrConflict},
		{errors.New("boom"), http.StatusInternalServerError, ErrInternal},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			w, resp := runError(t, gin.TestMode, tt.err)
			assert.Equal(t, tt.status, w.Code)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.NotEmpty(t, resp.Metadata.RequestID)
		})
	}
}

func TestErrorDetailHiddenInRelease(t *testing.T) {
	_, debug := runError(t, gin.DebugMode, errors.New("secret failure"))
	assert.Contains(t, debug.Error.Detail, "secret failure")
	assert.Equal(t, GetMessage(ErrInternal), debug.Error.Message)

	_, release := runError(t, gin.ReleaseMode, errors.New("secret failure"))
	assert.Empty(t, release.Error.Detail)
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 10, 25)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 0, NewPagination(1, 10, 0).TotalPages)
}
