// Package feedback records post-meeting ratings and notes from both sides of
// an appointment. Each party may submit once and revise; submissions merge
// into a single row per appointment.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mentorweb/mentorweb_backend/internal/model"
)

type SubmitRequest struct {
	AppointmentID uuid.UUID
	ActorID       uuid.UUID
	Rating        int
	Notes         string
}

type Service interface {
	// Submit records the actor's rating for the appointment, creating the
	// feedback row on first submission and overwriting the actor's own
	// columns on a repeat.
	Submit(ctx context.Context, req SubmitRequest) (*model.Feedback, error)
	// ForAppointment returns the feedback row visible to a participant.
	// The zero actor id is the system/admin and may read any feedback.
	ForAppointment(ctx context.Context, appointmentID, actorID uuid.UUID) (*model.Feedback, error)
	ListAll(ctx context.Context, page, perPage int) ([]*model.Feedback, error)
}

type feedbackService struct {
	db *gorm.DB
}

func New(db *gorm.DB) Service {
	return &feedbackService{db: db}
}

func (s *feedbackService) Submit(ctx context.Context, req SubmitRequest) (*model.Feedback, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, ErrInvalidRating
	}

	var appt model.Appointment
	err := s.db.WithContext(ctx).Where("id = ?", req.AppointmentID).First(&appt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if req.ActorID != appt.MentorID && req.ActorID != appt.StudentID {
		return nil, ErrNotParticipant
	}

	notes := strings.TrimSpace(req.Notes)
	rating := req.Rating

	var fb model.Feedback
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("appointment_id = ?", appt.ID).First(&fb).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fb = model.Feedback{
				AppointmentID: appt.ID,
				MentorID:      appt.MentorID,
				StudentID:     appt.StudentID,
			}
		} else if err != nil {
			return fmt.Errorf("load feedback: %w", err)
		}

		if req.ActorID == appt.MentorID {
			fb.MentorRating = &rating
			fb.MentorNotes = notes
		} else {
			fb.StudentRating = &rating
			fb.StudentNotes = notes
		}

		if err := tx.Save(&fb).Error; err != nil {
			return fmt.Errorf("save feedback: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &fb, nil
}

func (s *feedbackService) ForAppointment(ctx context.Context, appointmentID, actorID uuid.UUID) (*model.Feedback, error) {
	var fb model.Feedback
	err := s.db.WithContext(ctx).Where("appointment_id = ?", appointmentID).First(&fb).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load feedback: %w", err)
	}

	if actorID != uuid.Nil && actorID != fb.MentorID && actorID != fb.StudentID {
		return nil, ErrNotParticipant
	}
	return &fb, nil
}

func (s *feedbackService) ListAll(ctx context.Context, page, perPage int) ([]*model.Feedback, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	var rows []*model.Feedback
	err := s.db.WithContext(ctx).
		Order("created_at desc").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return rows, nil
}
