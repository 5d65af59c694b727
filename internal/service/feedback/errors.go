package feedback

import "errors"

var (
	ErrNotFound       = errors.New("feedback not found")
	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
	ErrNotParticipant = errors.New("user is not part of this appointment")
)
