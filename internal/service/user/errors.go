package user

import "errors"

var (
	ErrNotFound     = errors.New("user not found")
	ErrEmailTaken   = errors.New("email is already registered")
	ErrInvalidEmail = errors.New("email address is not valid")
	ErrWeakPassword = errors.New("password does not meet the minimum length")
	ErrNotMentor    = errors.New("user is not a mentor")
	ErrInvalidCaps  = errors.New("quota caps must be positive when set")
)
