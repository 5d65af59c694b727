package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/mentorweb/mentorweb_backend/pkg/interval"
)

type AvailabilityStatus string

const (
	// AvailabilityActive is open for booking.
	AvailabilityActive AvailabilityStatus = "active"
	// AvailabilityConsumed holds exactly one live appointment.
	AvailabilityConsumed AvailabilityStatus = "consumed"
	// AvailabilityCancelled was withdrawn by the mentor; terminal.
	AvailabilityCancelled AvailabilityStatus = "cancelled"
)

// Availability is one bookable time window published by a mentor.
// No two non-cancelled rows for the same mentor may share
// (date, start_time, end_time); the ledger rejects duplicates at publish.
type Availability struct {
	Base

	MentorID  uuid.UUID  `gorm:"type:uuid;not null;index:idx_avail_mentor_start" json:"mentor_id"`
	ProgramID *uuid.UUID `gorm:"type:uuid" json:"program_id,omitempty"`

	// Date is the slot's UTC calendar date; StartTime/EndTime are UTC instants.
	Date      time.Time `gorm:"not null" json:"date"`
	StartTime time.Time `gorm:"not null;index:idx_avail_mentor_start" json:"start_time"`
	EndTime   time.Time `gorm:"not null" json:"end_time"`

	Status AvailabilityStatus `gorm:"size:20;not null;default:active;index" json:"status"`
}

func (Availability) TableName() string { return "availabilities" }

// Interval returns the slot's half-open booking window.
func (a *Availability) Interval() interval.Interval {
	return interval.Interval{Start: a.StartTime.UTC(), End: a.EndTime.UTC()}
}
