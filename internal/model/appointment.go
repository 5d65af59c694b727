package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/mentorweb/mentorweb_backend/pkg/interval"
)

type AppointmentStatus string

const (
	// AppointmentPosted is reserved for drop-in flows where a mentor posts a
	// meeting before any student claims it.
	AppointmentPosted AppointmentStatus = "posted"
	AppointmentBooked AppointmentStatus = "booked"
	// AppointmentCancelled releases the consumed availability back to active.
	AppointmentCancelled AppointmentStatus = "cancelled"
	// AppointmentCompleted is terminal; still counted in historical quota windows.
	AppointmentCompleted AppointmentStatus = "completed"
)

// Appointment is a confirmed booking. Exactly one availability is consumed
// per appointment; the link is written in the same transaction that flips
// the availability to consumed.
type Appointment struct {
	Base

	MentorID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_appt_mentor_start" json:"mentor_id"`
	StudentID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"student_id"`
	AvailabilityID uuid.UUID  `gorm:"type:uuid;not null;index" json:"availability_id"`
	ProgramID      *uuid.UUID `gorm:"type:uuid" json:"program_id,omitempty"`

	StartTime time.Time `gorm:"not null;index:idx_appt_mentor_start" json:"start_time"`
	EndTime   time.Time `gorm:"not null" json:"end_time"`

	Status AppointmentStatus `gorm:"size:20;not null;default:booked;index" json:"status"`

	// Opaque to scheduling logic.
	Notes            string `gorm:"type:text" json:"notes,omitempty"`
	PhysicalLocation string `gorm:"size:255" json:"physical_location,omitempty"`
	MeetingURL       string `gorm:"size:255" json:"meeting_url,omitempty"`

	// External calendar event ids, best-effort follow-up only.
	MentorEventID  string `gorm:"size:255" json:"-"`
	StudentEventID string `gorm:"size:255" json:"-"`

	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (Appointment) TableName() string { return "appointments" }

func (a *Appointment) Interval() interval.Interval {
	return interval.Interval{Start: a.StartTime.UTC(), End: a.EndTime.UTC()}
}

// AppointmentComment is an append-only note on an appointment. Ordering is
// not significant to scheduling.
type AppointmentComment struct {
	Base

	AppointmentID uuid.UUID `gorm:"type:uuid;not null;index" json:"appointment_id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	Body          string    `gorm:"type:text;not null" json:"body"`
}

func (AppointmentComment) TableName() string { return "appointment_comments" }
