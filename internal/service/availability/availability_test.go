package availability

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

func publishReq(day time.Time, startHour, endHour int) PublishRequest {
	return PublishRequest{
		Start: day.Add(time.Duration(startHour) * time.Hour),
		End:   day.Add(time.Duration(endHour) * time.Hour),
	}
}

var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func TestPublish(t *testing.T) {
	svc := New(newTestDB(t))
	mentorID := uuid.New()

	entry, err := svc.Publish(context.Background(), mentorID, publishReq(monday, 9, 10))
	require.NoError(t, err)
	assert.Equal(t, model.AvailabilityActive, entry.Status)
	assert.Equal(t, monday, entry.Date)
	assert.NotEqual(t, uuid.Nil, entry.ID)
}

func TestPublishRejectsInvalidWindow(t *testing.T) {
	svc := New(newTestDB(t))

	_, err := svc.Publish(context.Background(), uuid.New(), publishReq(monday, 10, 10))
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = svc.Publish(context.Background(), uuid.New(), publishReq(monday, 11, 10))
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestPublishDuplicate(t *testing.T) {
	svc := New(newTestDB(t))
	mentorID := uuid.New()

	_, err := svc.Publish(context.Background(), mentorID, publishReq(monday, 9, 10))
	require.NoError(t, err)

	_, err = svc.Publish(context.Background(), mentorID, publishReq(monday, 9, 10))
	assert.ErrorIs(t, err, ErrDuplicate)

	// Same window is fine for a different mentor.
	_, err = svc.Publish(context.Background(), uuid.New(), publishReq(monday, 9, 10))
	assert.NoError(t, err)

	// Overlapping but not identical windows are allowed.
	_, err = svc.Publish(context.Background(), mentorID, publishReq(monday, 9, 11))
	assert.NoError(t, err)
}

func TestPublishAfterCancelledDuplicate(t *testing.T) {
	svc := New(newTestDB(t))
	mentorID := uuid.New()

	entry, err := svc.Publish(context.Background(), mentorID, publishReq(monday, 9, 10))
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(context.Background(), entry.ID, mentorID))

	// A cancelled entry does not block republishing the window.
	_, err = svc.Publish(context.Background(), mentorID, publishReq(monday, 9, 10))
	assert.NoError(t, err)
}

func TestCancel(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)
	mentorID := uuid.New()

	entry, err := svc.Publish(context.Background(), mentorID, publishReq(monday, 9, 10))
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(context.Background(), entry.ID, mentorID))

	got, err := svc.Get(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AvailabilityCancelled, got.Status)

	// Terminal: a second cancel reports the window is no longer active.
	assert.ErrorIs(t, svc.Cancel(context.Background(), entry.ID, mentorID), ErrAlreadyConsumed)
}

func TestCancelGuards(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)
	mentorID := uuid.New()

	assert.ErrorIs(t, svc.Cancel(context.Background(), uuid.New(), mentorID), ErrNotFound)

	entry, err := svc.Publish(context.Background(), mentorID, publishReq(monday, 9, 10))
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Cancel(context.Background(), entry.ID, uuid.New()), ErrNotOwner)

	// A consumed window cannot be withdrawn.
	require.NoError(t, db.Model(&model.Availability{}).
		Where("id = ?", entry.ID).
		Update("status", model.AvailabilityConsumed).Error)
	assert.ErrorIs(t, svc.Cancel(context.Background(), entry.ID, mentorID), ErrAlreadyConsumed)
}

func TestListActive(t *testing.T) {
	svc := New(newTestDB(t))
	mentorID := uuid.New()

	// Published out of order; listed by start ascending.
	_, err := svc.Publish(context.Background(), mentorID, publishReq(monday, 14, 15))
	require.NoError(t, err)
	_, err = svc.Publish(context.Background(), mentorID, publishReq(monday, 9, 10))
	require.NoError(t, err)
	cancelled, err := svc.Publish(context.Background(), mentorID, publishReq(monday, 11, 12))
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(context.Background(), cancelled.ID, mentorID))
	_, err = svc.Publish(context.Background(), mentorID, publishReq(monday.AddDate(0, 0, 10), 9, 10))
	require.NoError(t, err)

	entries, err := svc.ListActive(context.Background(), mentorID, monday, monday.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].StartTime.Before(entries[1].StartTime))
}
