package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a persisted user-facing notice, created by the event
// workers when appointments are booked or cancelled.
type Notification struct {
	Base

	UserID uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Type   string     `gorm:"size:50;not null" json:"type"`
	Title  string     `gorm:"size:255;not null" json:"title"`
	Data   string     `gorm:"type:text" json:"data,omitempty"`
	ReadAt *time.Time `json:"read_at,omitempty"`
}

func (Notification) TableName() string { return "notifications" }
