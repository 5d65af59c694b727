package booking

import (
	"errors"
	"fmt"

	"github.com/mentorweb/mentorweb_backend/internal/service/conflict"
)

var (
	ErrNotFound         = errors.New("appointment not found")
	ErrUnknownStudent   = errors.New("student not found")
	ErrAlreadyConsumed  = errors.New("availability is no longer active")
	ErrAlreadyCancelled = errors.New("appointment is already cancelled")
	ErrAlreadyCompleted = errors.New("appointment is already completed")
	ErrNotParticipant   = errors.New("user is not part of this appointment")
	ErrEmptyComment     = errors.New("comment body is empty")
)

// ConflictError rejects a booking whose window collides with events on a
// party's external calendar. Events lists every collision found.
type ConflictError struct {
	Events []conflict.BusyEvent
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("booking conflicts with %d calendar event(s)", len(e.Events))
}
