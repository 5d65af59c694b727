// Package quota derives a mentor's meeting load from the appointments table
// and enforces the mentor's configured caps. Counts are computed at decision
// time, never cached, so a quota check always sees the latest bookings.
package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mentorweb/mentorweb_backend/internal/model"
)

// Window names the cap that was exceeded.
type Window string

const (
	WindowDaily   Window = "daily"
	WindowWeekly  Window = "weekly"
	WindowMonthly Window = "monthly"
)

// ExceededError reports which cap a candidate booking would break.
type ExceededError struct {
	Window Window
	Count  int
	Cap    int
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("quota: %s cap reached (%d of %d)", e.Window, e.Count, e.Cap)
}

// Counts holds the mentor's current non-cancelled appointment counts for the
// windows containing a reference instant.
type Counts struct {
	Daily   int
	Weekly  int
	Monthly int
}

// Caps mirrors model.MeetingQuota. Nil means unlimited.
type Caps struct {
	MaxDaily   *int
	MaxWeekly  *int
	MaxMonthly *int
}

type Service interface {
	// CountsFor counts the mentor's non-cancelled appointments whose start
	// falls in asOf's UTC calendar day, ISO week and calendar month.
	CountsFor(ctx context.Context, mentorID uuid.UUID, asOf time.Time) (Counts, error)
	// Check returns *ExceededError when booking one more appointment at
	// candidateStart would break a cap. Daily is checked first, then
	// weekly, then monthly.
	Check(ctx context.Context, mentorID uuid.UUID, candidateStart time.Time, caps Caps) error
	// CapsFor loads the mentor's configured caps. Missing row means no caps.
	CapsFor(ctx context.Context, mentorID uuid.UUID) (Caps, error)
}

type quotaService struct {
	db *gorm.DB
}

func New(db *gorm.DB) Service {
	return &quotaService{db: db}
}

func (s *quotaService) CountsFor(ctx context.Context, mentorID uuid.UUID, asOf time.Time) (Counts, error) {
	asOf = asOf.UTC()

	dayStart, dayEnd := dayBounds(asOf)
	weekStart, weekEnd := isoWeekBounds(asOf)
	monthStart, monthEnd := monthBounds(asOf)

	var c Counts
	windows := []struct {
		from, to time.Time
		dest     *int
	}{
		{dayStart, dayEnd, &c.Daily},
		{weekStart, weekEnd, &c.Weekly},
		{monthStart, monthEnd, &c.Monthly},
	}

	for _, w := range windows {
		var n int64
		err := s.db.WithContext(ctx).
			Model(&model.Appointment{}).
			Where("mentor_id = ?", mentorID).
			Where("status <> ?", model.AppointmentCancelled).
			Where("start_time >= ? AND start_time < ?", w.from, w.to).
			Count(&n).Error
		if err != nil {
			return Counts{}, fmt.Errorf("count appointments: %w", err)
		}
		*w.dest = int(n)
	}
	return c, nil
}

func (s *quotaService) Check(ctx context.Context, mentorID uuid.UUID, candidateStart time.Time, caps Caps) error {
	if caps.MaxDaily == nil && caps.MaxWeekly == nil && caps.MaxMonthly == nil {
		return nil
	}

	counts, err := s.CountsFor(ctx, mentorID, candidateStart)
	if err != nil {
		return err
	}

	if caps.MaxDaily != nil && counts.Daily >= *caps.MaxDaily {
		return &ExceededError{Window: WindowDaily, Count: counts.Daily, Cap: *caps.MaxDaily}
	}
	if caps.MaxWeekly != nil && counts.Weekly >= *caps.MaxWeekly {
		return &ExceededError{Window: WindowWeekly, Count: counts.Weekly, Cap: *caps.MaxWeekly}
	}
	if caps.MaxMonthly != nil && counts.Monthly >= *caps.MaxMonthly {
		return &ExceededError{Window: WindowMonthly, Count: counts.Monthly, Cap: *caps.MaxMonthly}
	}
	return nil
}

func (s *quotaService) CapsFor(ctx context.Context, mentorID uuid.UUID) (Caps, error) {
	var q model.MeetingQuota
	err := s.db.WithContext(ctx).Where("mentor_id = ?", mentorID).First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Caps{}, nil
	}
	if err != nil {
		return Caps{}, fmt.Errorf("load meeting quota: %w", err)
	}
	return Caps{MaxDaily: q.MaxDaily, MaxWeekly: q.MaxWeekly, MaxMonthly: q.MaxMonthly}, nil
}

func dayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// isoWeekBounds returns the Monday 00:00 UTC opening t's ISO week and the
// following Monday.
func isoWeekBounds(t time.Time) (time.Time, time.Time) {
	weekday := int(t.Weekday())
	if weekday == 0 { // Sunday closes the ISO week
		weekday = 7
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(weekday - 1))
	return start, start.AddDate(0, 0, 7)
}

func monthBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
