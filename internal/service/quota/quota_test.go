package quota

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mentorweb/mentorweb_backend/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// In-memory sqlite gives every pooled connection its own database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(model.All()...))
	return db
}

func seedAppointment(t *testing.T, db *gorm.DB, mentorID uuid.UUID, start time.Time, status model.AppointmentStatus) {
	t.Helper()
	appt := &model.Appointment{
		MentorID:       mentorID,
		StudentID:      uuid.New(),
		AvailabilityID: uuid.New(),
		StartTime:      start,
		EndTime:        start.Add(time.Hour),
		Status:         status,
	}
	require.NoError(t, db.Create(appt).Error)
}

func intPtr(n int) *int { return &n }

func TestCountsFor(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)
	mentorID := uuid.New()

	// Monday 2026-03-02
	asOf := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	seedAppointment(t, db, mentorID, asOf.Add(-2*time.Hour), model.AppointmentBooked)   // same day
	seedAppointment(t, db, mentorID, asOf.AddDate(0, 0, 3), model.AppointmentCompleted) // same ISO week
	seedAppointment(t, db, mentorID, asOf.AddDate(0, 0, 20), model.AppointmentBooked)   // same month only
	seedAppointment(t, db, mentorID, asOf.AddDate(0, 0, -3), model.AppointmentBooked)   // prev week, prev month (Feb)
	seedAppointment(t, db, mentorID, asOf, model.AppointmentCancelled)                  // cancelled, never counted
	seedAppointment(t, db, uuid.New(), asOf, model.AppointmentBooked)                   // other mentor

	counts, err := svc.CountsFor(context.Background(), mentorID, asOf)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Daily)
	assert.Equal(t, 2, counts.Weekly)
	assert.Equal(t, 3, counts.Monthly)
}

func TestCountsForSundayClosesISOWeek(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)
	mentorID := uuid.New()

	// Sunday 2026-03-08 belongs to the week opened Monday 2026-03-02.
	sunday := time.Date(2026, 3, 8, 18, 0, 0, 0, time.UTC)
	seedAppointment(t, db, mentorID, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), model.AppointmentBooked)
	seedAppointment(t, db, mentorID, time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC), model.AppointmentBooked) // next week

	counts, err := svc.CountsFor(context.Background(), mentorID, sunday)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Weekly)
}

func TestCheckOrderAndCaps(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)
	mentorID := uuid.New()
	asOf := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	seedAppointment(t, db, mentorID, asOf.Add(-3*time.Hour), model.AppointmentBooked)
	seedAppointment(t, db, mentorID, asOf.Add(-1*time.Hour), model.AppointmentBooked)

	// Daily cap reached and weekly cap reached: daily is reported first.
	err := svc.Check(context.Background(), mentorID, asOf, Caps{MaxDaily: intPtr(2), MaxWeekly: intPtr(2)})
	var exceeded *ExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, WindowDaily, exceeded.Window)
	assert.Equal(t, 2, exceeded.Count)

	// Only the weekly cap binds.
	err = svc.Check(context.Background(), mentorID, asOf, Caps{MaxWeekly: intPtr(2)})
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, WindowWeekly, exceeded.Window)

	// Caps with headroom pass.
	assert.NoError(t, svc.Check(context.Background(), mentorID, asOf, Caps{MaxDaily: intPtr(3), MaxMonthly: intPtr(10)}))
}

func TestCheckNilCapsAreUnlimited(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)
	mentorID := uuid.New()
	asOf := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 50; i++ {
		seedAppointment(t, db, mentorID, asOf.Add(time.Duration(i)*time.Minute), model.AppointmentBooked)
	}
	assert.NoError(t, svc.Check(context.Background(), mentorID, asOf, Caps{}))
}

func TestCancelledThenRebookedCountsOnce(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)
	mentorID := uuid.New()
	asOf := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	// A cancelled booking and its replacement in the same slot.
	seedAppointment(t, db, mentorID, asOf, model.AppointmentCancelled)
	seedAppointment(t, db, mentorID, asOf, model.AppointmentBooked)

	counts, err := svc.CountsFor(context.Background(), mentorID, asOf)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Daily)
}

func TestCapsFor(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)
	mentorID := uuid.New()

	caps, err := svc.CapsFor(context.Background(), mentorID)
	require.NoError(t, err)
	assert.Nil(t, caps.MaxDaily)

	require.NoError(t, db.Create(&model.MeetingQuota{
		MentorID: mentorID,
		MaxDaily: intPtr(2),
	}).Error)

	caps, err = svc.CapsFor(context.Background(), mentorID)
	require.NoError(t, err)
	require.NotNil(t, caps.MaxDaily)
	assert.Equal(t, 2, *caps.MaxDaily)
	assert.Nil(t, caps.MaxWeekly)
}
