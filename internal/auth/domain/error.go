package domain

import "errors"

var (
	ErrCredentialsRequired = errors.New("credentials required")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrTooManyAttempts     = errors.New("too many failed login attempts")
	ErrMissingToken        = errors.New("missing token")
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
)
