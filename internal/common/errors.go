package common

import "errors"

// Callers should match these with errors.Is.
var (
	// repository-level errors
	ErrorNotFound = errors.New("not found")

	// service-level errors
	ErrorInternal      = errors.New("internal error")
	ErrorUnauthorized  = errors.New("unauthorized")
	ErrorAlreadyExists = errors.New("already exists")
	ErrorValidation    = errors.New("validation error")

	// token lifecycle errors
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrResetTokenExpired   = errors.New("reset token expired")
)
