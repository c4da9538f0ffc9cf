package domain

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidInput         = errors.New("invalid input")
	ErrTokenInvalid         = errors.New("token invalid")
	ErrStorageCorrupt       = errors.New("storage image corrupt")
	ErrConstraintViolation  = errors.New("constraint violation")
	ErrQuerySyntax          = errors.New("query syntax error")
	ErrHandleClosed         = errors.New("database handle closed")
	ErrDuplicateEmail       = errors.New("email already exists")
	ErrDuplicateApplication = errors.New("already applied to this job")
)
