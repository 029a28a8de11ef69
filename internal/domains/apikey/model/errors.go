package model

import (
	"errors"
	"net/http"

	"sizechart-backend/internal/shared"
)

// Error codes
const (
	ErrCodeKeyMissing   = "AUTH_KEY_MISSING"
	ErrCodeKeyMalformed = "AUTH_KEY_MALFORMED"
	ErrCodeKeyInvalid   = "AUTH_KEY_INVALID"
	ErrCodeKeyInactive  = "AUTH_KEY_INACTIVE"
	ErrCodeKeyExpired   = "AUTH_KEY_EXPIRED"
	ErrCodeScopeDenied  = "AUTH_SCOPE_DENIED"
	ErrCodeKeyNotFound  = "API_KEY_NOT_FOUND"
)

// Errors
var (
	ErrKeyMissing   = errors.New("api key missing")
	ErrKeyMalformed = errors.New("api key malformed")
	ErrKeyInvalid   = errors.New("api key invalid")
	ErrKeyInactive  = errors.New("api key inactive")
	ErrKeyExpired   = errors.New("api key expired")
	ErrScopeDenied  = errors.New("api key scope denied")
	ErrKeyNotFound  = errors.New("api key not found")
)

func authError(code, message string, err error) *shared.AppError {
	return shared.NewAppError(http.StatusUnauthorized, code, message, err)
}

func NewKeyMissingError() *shared.AppError {
	return authError(ErrCodeKeyMissing, "API key required", ErrKeyMissing)
}

func NewKeyMalformedError() *shared.AppError {
	return authError(ErrCodeKeyMalformed, "API key is malformed", ErrKeyMalformed)
}

func NewKeyInvalidError() *shared.AppError {
	return authError(ErrCodeKeyInvalid, "API key is invalid", ErrKeyInvalid)
}

func NewKeyInactiveError() *shared.AppError {
	return authError(ErrCodeKeyInactive, "API key is inactive", ErrKeyInactive)
}

func NewKeyExpiredError() *shared.AppError {
	return authError(ErrCodeKeyExpired, "API key has expired", ErrKeyExpired)
}

func NewScopeDeniedError(scope Scope) *shared.AppError {
	return shared.NewAppError(http.StatusForbidden, ErrCodeScopeDenied,
		"API key lacks required scope: "+string(scope), ErrScopeDenied)
}

func NewKeyNotFoundError() *shared.AppError {
	return shared.NewAppError(http.StatusNotFound, ErrCodeKeyNotFound, "API key not found", ErrKeyNotFound)
}
