package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("email or password is incorrect")
	ErrAccountInactive    = errors.New("account is not active")
	ErrInvalidToken       = errors.New("token is invalid or expired")
	ErrSessionNotFound    = errors.New("session not found or expired")
)
