package availability

import "errors"

var (
	ErrNotFound        = errors.New("availability not found")
	ErrDuplicate       = errors.New("an identical availability already exists")
	ErrAlreadyConsumed = errors.New("availability is no longer active")
	ErrNotOwner        = errors.New("availability belongs to another mentor")
	ErrInvalidWindow   = errors.New("availability window is invalid")
)
