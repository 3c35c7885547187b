package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromTranslatesStoreErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
		code Code
	}{
		{"no rows", fmt.Errorf("find: %w", pgx.ErrNoRows), KindNotFound, CodeNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, KindConflict, CodeConflict},
		{"fk violation", &pgconn.PgError{Code: "23503"}, KindBadRequest, CodeBadRequest},
		{"other pg error", &pgconn.PgError{Code: "40001"}, KindInternal, CodeInternal},
		{"plain", errors.New("boom"), KindInternal, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ae := From(tt.err)
			require.NotNil(t, ae)
			assert.Equal(t, tt.kind, ae.Kind)
			assert.Equal(t, tt.code, ae.Code)
			assert.ErrorIs(t, ae, tt.err)
		})
	}
}

func TestFromKeepsApplicationErrors(t *testing.T) {
	orig := Forbidden("nope")
	wrapped := fmt.Errorf("update: %w", orig)

	assert.Same(t, orig, From(wrapped))
	assert.Equal(t, KindForbidden, KindOf(wrapped))
	assert.True(t, Is(wrapped, CodeForbidden))
	assert.Nil(t, From(nil))
}

func TestInternalDetailCarriesStack(t *testing.T) {
	ae := Internal(errors.New("disk on fire"))

	assert.Equal(t, "internal server error: disk on fire", ae.Error())
	assert.Contains(t, ae.Detail(), "disk on fire")
	assert.Contains(t, ae.Detail(), "apperror_test.go")
}
