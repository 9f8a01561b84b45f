package domain

import "errors"

var (
	ErrValidation   = errors.New("validation error")
	ErrPolicyDenied = errors.New("recipient does not accept this request")
	ErrConflict     = errors.New("an open request already exists for this member")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("not allowed for this member")
	ErrInvalidState = errors.New("request is no longer open")
)

// Code returns the stable API code for one of the errors above, or "INTERNAL"
func Code(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "VALIDATION_ERROR"
	case errors.Is(err, ErrPolicyDenied):
		return "POLICY_DENIED"
	case errors.Is(err, ErrConflict):
		return "CONFLICT"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrInvalidState):
		return "INVALID_STATE"
	default:
		return "INTERNAL"
	}
}
