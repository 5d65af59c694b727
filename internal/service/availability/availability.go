// Package availability is the ledger of bookable windows mentors publish.
// Every booking consumes exactly one entry; cancelling a booking reopens it.
package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mentorweb/mentorweb_backend/internal/model"
	"github.com/mentorweb/mentorweb_backend/pkg/interval"
)

type PublishRequest struct {
	ProgramID *uuid.UUID
	Start     time.Time
	End       time.Time
}

type Service interface {
	// Publish records a new active window. ErrDuplicate when a non-cancelled
	// entry with the same mentor, date and window already exists.
	Publish(ctx context.Context, mentorID uuid.UUID, req PublishRequest) (*model.Availability, error)
	// Cancel withdraws an active window. Consumed windows cannot be
	// withdrawn until their appointment is cancelled.
	Cancel(ctx context.Context, availabilityID, actorID uuid.UUID) error
	// ListActive returns the mentor's active windows starting inside
	// [from, to), ordered by start time ascending.
	ListActive(ctx context.Context, mentorID uuid.UUID, from, to time.Time) ([]*model.Availability, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Availability, error)
}

type availabilityService struct {
	db *gorm.DB
}

func New(db *gorm.DB) Service {
	return &availabilityService{db: db}
}

func (s *availabilityService) Publish(ctx context.Context, mentorID uuid.UUID, req PublishRequest) (*model.Availability, error) {
	iv, err := interval.New(req.Start, req.End)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWindow, err)
	}

	entry := &model.Availability{
		MentorID:  mentorID,
		ProgramID: req.ProgramID,
		Date:      iv.Date(),
		StartTime: iv.Start,
		EndTime:   iv.End,
		Status:    model.AvailabilityActive,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		err := tx.Model(&model.Availability{}).
			Where("mentor_id = ?", mentorID).
			Where("date = ? AND start_time = ? AND end_time = ?", entry.Date, entry.StartTime, entry.EndTime).
			Where("status <> ?", model.AvailabilityCancelled).
			Count(&n).Error
		if err != nil {
			return fmt.Errorf("check duplicates: %w", err)
		}
		if n > 0 {
			return ErrDuplicate
		}
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("create availability: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *availabilityService) Cancel(ctx context.Context, availabilityID, actorID uuid.UUID) error {
	entry, err := s.Get(ctx, availabilityID)
	if err != nil {
		return err
	}
	if entry.MentorID != actorID {
		return ErrNotOwner
	}

	// Conditional update so a concurrent booking cannot race the withdrawal.
	res := s.db.WithContext(ctx).
		Model(&model.Availability{}).
		Where("id = ? AND status = ?", availabilityID, model.AvailabilityActive).
		Update("status", model.AvailabilityCancelled)
	if res.Error != nil {
		return fmt.Errorf("cancel availability: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyConsumed
	}
	return nil
}

func (s *availabilityService) ListActive(ctx context.Context, mentorID uuid.UUID, from, to time.Time) ([]*model.Availability, error) {
	var entries []*model.Availability
	q := s.db.WithContext(ctx).
		Where("mentor_id = ?", mentorID).
		Where("status = ?", model.AvailabilityActive)
	if !from.IsZero() {
		q = q.Where("start_time >= ?", from.UTC())
	}
	if !to.IsZero() {
		q = q.Where("start_time < ?", to.UTC())
	}
	if err := q.Order("start_time asc").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	return entries, nil
}

func (s *availabilityService) Get(ctx context.Context, id uuid.UUID) (*model.Availability, error) {
	var entry model.Availability
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get availability: %w", err)
	}
	return &entry, nil
}
