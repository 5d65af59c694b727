package model

import "github.com/google/uuid"

// Feedback holds both parties' post-meeting ratings for one appointment.
// One row per appointment; each side fills in its own columns.
type Feedback struct {
	Base

	AppointmentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"appointment_id"`
	MentorID      uuid.UUID `gorm:"type:uuid;not null;index" json:"mentor_id"`
	StudentID     uuid.UUID `gorm:"type:uuid;not null;index" json:"student_id"`

	MentorRating  *int   `json:"mentor_rating,omitempty"`
	MentorNotes   string `gorm:"type:text" json:"mentor_notes,omitempty"`
	StudentRating *int   `json:"student_rating,omitempty"`
	StudentNotes  string `gorm:"type:text" json:"student_notes,omitempty"`
}

func (Feedback) TableName() string { return "feedbacks" }
