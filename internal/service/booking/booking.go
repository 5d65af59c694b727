// Package booking drives the appointment lifecycle. Booking consumes an
// availability window atomically; under concurrent requests for the same
// window exactly one caller wins and every loser sees ErrAlreadyConsumed.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"gorm.io/gorm"

	"github.com/mentorweb/mentorweb_backend/internal/model"
	"github.com/mentorweb/mentorweb_backend/internal/service/calendar"
	"github.com/mentorweb/mentorweb_backend/internal/service/conflict"
	"github.com/mentorweb/mentorweb_backend/internal/service/credential"
	"github.com/mentorweb/mentorweb_backend/internal/service/quota"
)

const (
	SubjectCreated   = "mentorweb.appointment.created"
	SubjectCancelled = "mentorweb.appointment.cancelled"
)

type ListRequest struct {
	MentorID  *uuid.UUID
	StudentID *uuid.UUID
	Status    *model.AppointmentStatus
	From      *time.Time
	To        *time.Time
	Page      int
	PerPage   int
}

type BookRequest struct {
	AvailabilityID uuid.UUID
	StudentID      uuid.UUID
	Notes          string
}

// BookResult carries the created appointment. CalendarDegraded is set when
// the booking succeeded but an external calendar event could not be created.
type BookResult struct {
	Appointment      *model.Appointment
	CalendarDegraded bool
}

type Service interface {
	Book(ctx context.Context, req BookRequest) (*BookResult, error)
	// Cancel is idempotent: cancelling a cancelled appointment is a no-op.
	// actorID must be the mentor or the student; uuid.Nil bypasses the
	// check for admin and system callers.
	Cancel(ctx context.Context, appointmentID, actorID uuid.UUID) error
	Complete(ctx context.Context, appointmentID uuid.UUID) error
	List(ctx context.Context, req ListRequest) ([]*model.Appointment, error)
	GetByID(ctx context.Context, appointmentID uuid.UUID) (*model.Appointment, error)

	AddComment(ctx context.Context, appointmentID, userID uuid.UUID, body string) (*model.AppointmentComment, error)
	ListComments(ctx context.Context, appointmentID uuid.UUID) ([]*model.AppointmentComment, error)
}

type bookingService struct {
	db       *gorm.DB
	quotas   quota.Service
	conflict conflict.Service
	creds    credential.Service
	gateway  calendar.Gateway
	nc       *nats.Conn
	log      *slog.Logger
}

func New(
	db *gorm.DB,
	quotas quota.Service,
	conflictSvc conflict.Service,
	creds credential.Service,
	gateway calendar.Gateway,
	nc *nats.Conn,
	log *slog.Logger,
) Service {
	return &bookingService{
		db:       db,
		quotas:   quotas,
		conflict: conflictSvc,
		creds:    creds,
		gateway:  gateway,
		nc:       nc,
		log:      log,
	}
}

func (s *bookingService) Book(ctx context.Context, req BookRequest) (*BookResult, error) {
	var slot model.Availability
	err := s.db.WithContext(ctx).Where("id = ?", req.AvailabilityID).First(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load availability: %w", err)
	}
	if slot.Status != model.AvailabilityActive {
		return nil, ErrAlreadyConsumed
	}

	var mentor model.User
	if err := s.db.WithContext(ctx).Where("id = ?", slot.MentorID).First(&mentor).Error; err != nil {
		return nil, fmt.Errorf("load mentor: %w", err)
	}
	var student model.User
	err = s.db.WithContext(ctx).Where("id = ?", req.StudentID).First(&student).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnknownStudent
	}
	if err != nil {
		return nil, fmt.Errorf("load student: %w", err)
	}

	// External I/O happens before the transaction; nothing is locked yet.
	res, err := s.conflict.Check(ctx, slot.MentorID, req.StudentID, slot.Interval())
	if err != nil {
		return nil, err
	}
	if !res.Clear() {
		return nil, &ConflictError{Events: res.Events}
	}

	caps, err := s.quotas.CapsFor(ctx, slot.MentorID)
	if err != nil {
		return nil, err
	}
	if err := s.quotas.Check(ctx, slot.MentorID, slot.StartTime, caps); err != nil {
		return nil, err
	}

	appt := &model.Appointment{
		MentorID:       slot.MentorID,
		StudentID:      req.StudentID,
		AvailabilityID: slot.ID,
		ProgramID:      slot.ProgramID,
		StartTime:      slot.StartTime,
		EndTime:        slot.EndTime,
		Status:         model.AppointmentBooked,
		Notes:          strings.TrimSpace(req.Notes),
		MeetingURL:     mentor.MeetingURL,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The conditional update is the single atomicity point. Losing
		// racers see zero rows and roll back with nothing written.
		locked := tx.Model(&model.Availability{}).
			Where("id = ? AND status = ?", slot.ID, model.AvailabilityActive).
			Update("status", model.AvailabilityConsumed)
		if locked.Error != nil {
			return fmt.Errorf("consume availability: %w", locked.Error)
		}
		if locked.RowsAffected == 0 {
			return ErrAlreadyConsumed
		}
		if err := tx.Create(appt).Error; err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	degraded := s.createCalendarEvents(ctx, appt, &mentor, &student)

	if s.nc != nil {
		_ = s.nc.Publish(SubjectCreated+"."+appt.ID.String(), []byte(appt.ID.String()))
	}

	return &BookResult{Appointment: appt, CalendarDegraded: degraded}, nil
}

// createCalendarEvents mirrors the appointment onto both parties' external
// calendars. Failures degrade the result but never undo the booking.
func (s *bookingService) createCalendarEvents(ctx context.Context, appt *model.Appointment, mentor, student *model.User) bool {
	ev := calendar.Event{
		Summary:     fmt.Sprintf("Mentoring session: %s / %s", mentor.FullName(), student.FullName()),
		Description: appt.Notes,
		Location:    appt.PhysicalLocation,
		Window:      appt.Interval(),
		Attendees:   []string{mentor.Email, student.Email},
	}

	degraded := false
	parties := []struct {
		userID uuid.UUID
		column string
		dest   *string
	}{
		{mentor.ID, "mentor_event_id", &appt.MentorEventID},
		{student.ID, "student_event_id", &appt.StudentEventID},
	}

	for _, p := range parties {
		cred, err := s.creds.Credential(ctx, p.userID)
		if errors.Is(err, credential.ErrNotLinked) {
			continue
		}
		if err != nil {
			s.log.Warn("calendar event skipped", "appointment_id", appt.ID, "user_id", p.userID, "error", err)
			degraded = true
			continue
		}

		eventID, err := s.gateway.CreateEvent(ctx, cred, ev)
		if errors.Is(err, calendar.ErrReadOnly) {
			continue
		}
		if err != nil {
			s.log.Warn("calendar event creation failed", "appointment_id", appt.ID, "user_id", p.userID, "error", err)
			degraded = true
			continue
		}

		*p.dest = eventID
		if err := s.db.WithContext(ctx).Model(appt).Update(p.column, eventID).Error; err != nil {
			s.log.Warn("calendar event id not persisted", "appointment_id", appt.ID, "error", err)
		}
	}
	return degraded
}

func (s *bookingService) Cancel(ctx context.Context, appointmentID, actorID uuid.UUID) error {
	appt, err := s.GetByID(ctx, appointmentID)
	if err != nil {
		return err
	}
	if actorID != uuid.Nil && actorID != appt.MentorID && actorID != appt.StudentID {
		return ErrNotParticipant
	}
	if appt.Status == model.AppointmentCancelled {
		return nil
	}
	if appt.Status == model.AppointmentCompleted {
		return ErrAlreadyCompleted
	}

	// A racing Cancel or Complete may have transitioned the row since the
	// read above; lost holds the state the winner reached.
	var lost model.AppointmentStatus
	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Appointment{}).
			Where("id = ? AND status = ?", appt.ID, model.AppointmentBooked).
			Updates(map[string]any{
				"status":       model.AppointmentCancelled,
				"cancelled_at": now,
			})
		if res.Error != nil {
			return fmt.Errorf("cancel appointment: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			var current model.Appointment
			if err := tx.Where("id = ?", appt.ID).First(&current).Error; err != nil {
				return fmt.Errorf("reload appointment: %w", err)
			}
			lost = current.Status
			return nil
		}

		// Reopen the window so another student can book it.
		err = tx.Model(&model.Availability{}).
			Where("id = ? AND status = ?", appt.AvailabilityID, model.AvailabilityConsumed).
			Update("status", model.AvailabilityActive).Error
		if err != nil {
			return fmt.Errorf("reopen availability: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	switch lost {
	case model.AppointmentCancelled:
		return nil
	case model.AppointmentCompleted:
		return ErrAlreadyCompleted
	}

	s.deleteCalendarEvents(ctx, appt)

	if s.nc != nil {
		_ = s.nc.Publish(SubjectCancelled+"."+appt.ID.String(), []byte(appt.ID.String()))
	}
	return nil
}

func (s *bookingService) deleteCalendarEvents(ctx context.Context, appt *model.Appointment) {
	parties := []struct {
		userID  uuid.UUID
		eventID string
	}{
		{appt.MentorID, appt.MentorEventID},
		{appt.StudentID, appt.StudentEventID},
	}

	for _, p := range parties {
		if p.eventID == "" {
			continue
		}
		cred, err := s.creds.Credential(ctx, p.userID)
		if err != nil {
			s.log.Warn("calendar event not removed", "appointment_id", appt.ID, "user_id", p.userID, "error", err)
			continue
		}
		if err := s.gateway.DeleteEvent(ctx, cred, p.eventID); err != nil && !errors.Is(err, calendar.ErrReadOnly) {
			s.log.Warn("calendar event not removed", "appointment_id", appt.ID, "user_id", p.userID, "error", err)
		}
	}
}

func (s *bookingService) Complete(ctx context.Context, appointmentID uuid.UUID) error {
	appt, err := s.GetByID(ctx, appointmentID)
	if err != nil {
		return err
	}
	if appt.Status == model.AppointmentCompleted {
		return ErrAlreadyCompleted
	}
	if appt.Status == model.AppointmentCancelled {
		return ErrAlreadyCancelled
	}

	now := time.Now().UTC()
	res := s.db.WithContext(ctx).Model(&model.Appointment{}).
		Where("id = ? AND status = ?", appt.ID, model.AppointmentBooked).
		Updates(map[string]any{
			"status":       model.AppointmentCompleted,
			"completed_at": now,
		})
	if res.Error != nil {
		return fmt.Errorf("complete appointment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// A racing transition won between the read and the update.
		var current model.Appointment
		if err := s.db.WithContext(ctx).Where("id = ?", appt.ID).First(&current).Error; err != nil {
			return fmt.Errorf("reload appointment: %w", err)
		}
		if current.Status == model.AppointmentCancelled {
			return ErrAlreadyCancelled
		}
		return ErrAlreadyCompleted
	}
	return nil
}

func (s *bookingService) List(ctx context.Context, req ListRequest) ([]*model.Appointment, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 || req.PerPage > 100 {
		req.PerPage = 20
	}
	offset := (req.Page - 1) * req.PerPage

	q := s.db.WithContext(ctx).Model(&model.Appointment{})
	if req.MentorID != nil {
		q = q.Where("mentor_id = ?", *req.MentorID)
	}
	if req.StudentID != nil {
		q = q.Where("student_id = ?", *req.StudentID)
	}
	if req.Status != nil {
		q = q.Where("status = ?", *req.Status)
	}
	if req.From != nil {
		q = q.Where("start_time >= ?", req.From.UTC())
	}
	if req.To != nil {
		q = q.Where("start_time < ?", req.To.UTC())
	}

	var appts []*model.Appointment
	if err := q.Order("start_time desc").Offset(offset).Limit(req.PerPage).Find(&appts).Error; err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}

func (s *bookingService) GetByID(ctx context.Context, appointmentID uuid.UUID) (*model.Appointment, error) {
	var appt model.Appointment
	err := s.db.WithContext(ctx).Where("id = ?", appointmentID).First(&appt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return &appt, nil
}

func (s *bookingService) AddComment(ctx context.Context, appointmentID, userID uuid.UUID, body string) (*model.AppointmentComment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyComment
	}

	appt, err := s.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if userID != appt.MentorID && userID != appt.StudentID {
		return nil, ErrNotParticipant
	}

	comment := &model.AppointmentComment{
		AppointmentID: appt.ID,
		UserID:        userID,
		Body:          body,
	}
	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

func (s *bookingService) ListComments(ctx context.Context, appointmentID uuid.UUID) ([]*model.AppointmentComment, error) {
	if _, err := s.GetByID(ctx, appointmentID); err != nil {
		return nil, err
	}

	var comments []*model.AppointmentComment
	err := s.db.WithContext(ctx).
		Where("appointment_id = ?", appointmentID).
		Order("created_at asc").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}
