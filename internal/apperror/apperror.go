// Package apperror defines the error taxonomy shared by repositories,
// services and the HTTP layer.
package apperror

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pkgerrors "github.com/pkg/errors"
)

// Kind classifies an error independently of the transport.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Code is a stable machine-readable error identifier.
type Code string

const (
	CodeBadRequest       Code = "BAD_REQUEST"
	CodeValidation       Code = "VALIDATION_ERROR"
	CodeUnauthorized     Code = "UNAUTHORIZED"
	CodeForbidden        Code = "FORBIDDEN"
	CodeNotFound         Code = "NOT_FOUND"
	CodeConflict         Code = "CONFLICT"
	CodeInternal         Code = "INTERNAL_ERROR"
	CodeSelfVote         Code = "SELF_VOTE"
	CodeInvalidVoteType  Code = "INVALID_VOTE_TYPE"
	CodeReasonRequired   Code = "REASON_REQUIRED"
	CodeCategoryNotFound Code = "CATEGORY_NOT_FOUND"
)

// Error is the application error carried across layers.
type Error struct {
	Kind    Kind
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Cause returns the wrapped error, if any.
func (e *Error) Cause() error { return e.cause }

// Detail renders the cause chain including any recorded stack trace.
func (e *Error) Detail() string {
	if e.cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %+v", e.Message, e.cause)
}

func New(kind Kind, code Code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func BadRequest(code Code, message string) *Error {
	return New(KindBadRequest, code, message)
}

func Unauthorized(message string) *Error {
	return New(KindUnauthorized, CodeUnauthorized, message)
}

func Forbidden(message string) *Error {
	return New(KindForbidden, CodeForbidden, message)
}

func NotFound(message string) *Error {
	return New(KindNotFound, CodeNotFound, message)
}

func Conflict(message string) *Error {
	return New(KindConflict, CodeConflict, message)
}

// Internal wraps an unexpected failure, recording a stack trace.
func Internal(err error) *Error {
	return &Error{
		Kind:    KindInternal,
		Code:    CodeInternal,
		Message: "internal server error",
		cause:   pkgerrors.WithStack(err),
	}
}

// KindOf returns the Kind of err, treating unknown errors as internal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == code
}

// From converts any error into an *Error. Store errors with a known meaning
// are translated; everything else becomes Internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}

	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return &Error{Kind: KindNotFound, Code: CodeNotFound, Message: "resource not found", cause: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return &Error{Kind: KindConflict, Code: CodeConflict, Message: "resource already exists", cause: err}
		case "23503":
			return &Error{Kind: KindBadRequest, Code: CodeBadRequest, Message: "referenced resource does not exist", cause: err}
		}
	}

	return Internal(err)
}
