package user

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mentorweb/mentorweb_backend/internal/model"
	"github.com/mentorweb/mentorweb_backend/pkg/password"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
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
	return New(db, nil), db
}

func TestCreate(t *testing.T) {
	svc, _ := newTestService(t)

	u, err := svc.Create(context.Background(), CreateRequest{
		Email:     " Mentor@Example.com ",
		Password:  "correct-horse",
		FirstName: "Sam",
		LastName:  "Rivera",
		Role:      model.RoleMentor,
	})
	require.NoError(t, err)
	assert.Equal(t, "mentor@example.com", u.Email)
	assert.Equal(t, model.UserActive, u.Status)
	assert.NoError(t, password.Verify("correct-horse", u.PasswordHash))

	_, err = svc.Create(context.Background(), CreateRequest{
		Email:    "mentor@example.com",
		Password: "another-pass",
		Role:     model.RoleStudent,
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), CreateRequest{Email: "nope", Password: "long-enough"})
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = svc.Create(context.Background(), CreateRequest{Email: "a@b.co", Password: "short"})
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newTestService(t)

	u, err := svc.Create(context.Background(), CreateRequest{
		Email: "student@example.com", Password: "long-enough", Role: model.RoleStudent,
	})
	require.NoError(t, err)

	about := "Second-year CS student"
	meeting := "https://meet.example.com/me"
	got, err := svc.UpdateProfile(context.Background(), u.ID, UpdateProfileRequest{
		About:      &about,
		MeetingURL: &meeting,
	})
	require.NoError(t, err)
	assert.Equal(t, about, got.About)
	assert.Equal(t, meeting, got.MeetingURL)
	assert.Equal(t, u.Email, got.Email)

	_, err = svc.UpdateProfile(context.Background(), uuid.New(), UpdateProfileRequest{About: &about})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQuotaSettings(t *testing.T) {
	svc, _ := newTestService(t)

	mentor, err := svc.Create(context.Background(), CreateRequest{
		Email: "mentor@example.com", Password: "long-enough", Role: model.RoleMentor,
	})
	require.NoError(t, err)
	student, err := svc.Create(context.Background(), CreateRequest{
		Email: "student@example.com", Password: "long-enough", Role: model.RoleStudent,
	})
	require.NoError(t, err)

	// No row yet means unlimited everywhere.
	settings, err := svc.GetQuota(context.Background(), mentor.ID)
	require.NoError(t, err)
	assert.Nil(t, settings.MaxDaily)

	two, ten := 2, 10
	require.NoError(t, svc.SetQuota(context.Background(), mentor.ID, QuotaSettings{MaxDaily: &two, MaxMonthly: &ten}))

	settings, err = svc.GetQuota(context.Background(), mentor.ID)
	require.NoError(t, err)
	require.NotNil(t, settings.MaxDaily)
	assert.Equal(t, 2, *settings.MaxDaily)
	assert.Nil(t, settings.MaxWeekly)

	// Upsert path: clearing a cap back to unlimited.
	require.NoError(t, svc.SetQuota(context.Background(), mentor.ID, QuotaSettings{MaxMonthly: &ten}))
	settings, err = svc.GetQuota(context.Background(), mentor.ID)
	require.NoError(t, err)
	assert.Nil(t, settings.MaxDaily)
	require.NotNil(t, settings.MaxMonthly)

	zero := 0
	assert.ErrorIs(t, svc.SetQuota(context.Background(), mentor.ID, QuotaSettings{MaxDaily: &zero}), ErrInvalidCaps)
	assert.ErrorIs(t, svc.SetQuota(context.Background(), student.ID, QuotaSettings{MaxDaily: &two}), ErrNotMentor)
	_, err = svc.GetQuota(context.Background(), student.ID)
	assert.ErrorIs(t, err, ErrNotMentor)
}
