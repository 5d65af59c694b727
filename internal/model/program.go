package model

import "github.com/google/uuid"

// Program is an optional class/program an availability can be tagged with.
// Roster and course synchronization live outside this service; only the
// association is persisted here.
type Program struct {
	Base

	InstructorID uuid.UUID `gorm:"type:uuid;not null;index" json:"instructor_id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Description  string    `gorm:"type:text" json:"description,omitempty"`
	// DurationMinutes is advisory; slots carry their own start/end.
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	Location        string `gorm:"size:255" json:"location,omitempty"`
	VirtualLink     string `gorm:"size:255" json:"virtual_link,omitempty"`
}

func (Program) TableName() string { return "programs" }
