package response

import "github.com/stemsi/qbank-backend/internal/apperror"

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode = apperror.Code

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"
	ErrUnauthorized  ErrCode = apperror.CodeUnauthorized

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden ErrCode = apperror.CodeForbidden

	// ─── Validation ────────────────────────────────────────────────────
	ErrBadRequest ErrCode = apperror.CodeBadRequest
	ErrValidation ErrCode = apperror.CodeValidation
	ErrInvalidID  ErrCode = "INVALID_ID"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = apperror.CodeNotFound
	ErrConflict ErrCode = apperror.CodeConflict

	// ─── Questions & votes ─────────────────────────────────────────────
	ErrSelfVote         ErrCode = apperror.CodeSelfVote
	ErrInvalidVoteType  ErrCode = apperror.CodeInvalidVoteType
	ErrReasonRequired   ErrCode = apperror.CodeReasonRequired
	ErrCategoryNotFound ErrCode = apperror.CodeCategoryNotFound

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = apperror.CodeInternal
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid or expired."
	case ErrUnauthorized:
		return "Authentication required."
	case ErrForbidden:
		return "You do not have permission to perform this action."
	case ErrBadRequest:
		return "The request is invalid."
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."
	case ErrSelfVote:
		return "You cannot vote on your own question."
	case ErrInvalidVoteType:
		return "Vote type must be 'up' or 'down'."
	case ErrReasonRequired:
		return "A reason is required to invalidate a question."
	case ErrCategoryNotFound:
		return "One or more categories do not exist."
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
