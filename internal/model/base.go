// Package model holds the GORM persistence models for the booking engine.
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base is embedded by every persisted model: UUIDv7 primary key plus
// created/updated timestamps.
type Base struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		b.ID = id
	}
	return nil
}

// All returns every model in migration order (referenced tables first).
func All() []any {
	return []any{
		&User{},
		&Program{},
		&MeetingQuota{},
		&Availability{},
		&Appointment{},
		&AppointmentComment{},
		&Feedback{},
		&Notification{},
	}
}
