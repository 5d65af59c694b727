package booking

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mentorweb/mentorweb_backend/internal/model"
	"github.com/mentorweb/mentorweb_backend/internal/service/calendar"
	"github.com/mentorweb/mentorweb_backend/internal/service/conflict"
	"github.com/mentorweb/mentorweb_backend/internal/service/credential"
	"github.com/mentorweb/mentorweb_backend/internal/service/quota"
	"github.com/mentorweb/mentorweb_backend/pkg/interval"
)

// --- fakes -----------------------------------------------------------------

type fakeConflict struct {
	events []conflict.BusyEvent
	err    error
}

func (f *fakeConflict) Check(context.Context, uuid.UUID, uuid.UUID, interval.Interval) (conflict.Result, error) {
	if f.err != nil {
		return conflict.Result{}, f.err
	}
	return conflict.Result{Events: f.events}, nil
}

type fakeCreds struct {
	linked map[uuid.UUID]*credential.Credential
}

func (f *fakeCreds) Credential(_ context.Context, userID uuid.UUID) (*credential.Credential, error) {
	if cred, ok := f.linked[userID]; ok {
		return cred, nil
	}
	return nil, credential.ErrNotLinked
}

func (f *fakeCreds) LinkGoogle(context.Context, uuid.UUID, *oauth2.Token) error { return nil }
func (f *fakeCreds) LinkICS(context.Context, uuid.UUID, string) error           { return nil }
func (f *fakeCreds) Unlink(context.Context, uuid.UUID) error                    { return nil }

type fakeGateway struct {
	mu        sync.Mutex
	createErr error
	created   []string
	deleted   []string
	nextID    int
}

func (f *fakeGateway) BusyIntervals(context.Context, *credential.Credential, interval.Interval) ([]interval.Interval, error) {
	return nil, nil
}

func (f *fakeGateway) CreateEvent(_ context.Context, _ *credential.Credential, ev calendar.Event) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextID++
	id := "evt-" + ev.Summary + "-" + time.Now().Format("150405") + "-" + string(rune('a'+f.nextID))
	f.created = append(f.created, id)
	return id, nil
}

func (f *fakeGateway) DeleteEvent(_ context.Context, _ *credential.Credential, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, eventID)
	return nil
}

// --- fixture ---------------------------------------------------------------

type fixture struct {
	db       *gorm.DB
	svc      Service
	conflict *fakeConflict
	creds    *fakeCreds
	gateway  *fakeGateway
	mentor   *model.User
	student  *model.User
}

func newFixture(t *testing.T) *fixture {
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

	f := &fixture{
		db:       db,
		conflict: &fakeConflict{},
		creds:    &fakeCreds{linked: map[uuid.UUID]*credential.Credential{}},
		gateway:  &fakeGateway{},
		mentor:   seedUser(t, db, model.RoleMentor, "mentor@example.com"),
		student:  seedUser(t, db, model.RoleStudent, "student@example.com"),
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = New(db, quota.New(db), f.conflict, f.creds, f.gateway, nil, log)
	return f
}

func seedUser(t *testing.T, db *gorm.DB, role model.Role, email string) *model.User {
	t.Helper()
	u := &model.User{Email: email, Role: role, Status: model.UserActive, FirstName: "Test"}
	require.NoError(t, db.Create(u).Error)
	return u
}

func (f *fixture) seedSlot(t *testing.T, start time.Time) *model.Availability {
	t.Helper()
	slot := &model.Availability{
		MentorID:  f.mentor.ID,
		Date:      time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Status:    model.AvailabilityActive,
	}
	require.NoError(t, f.db.Create(slot).Error)
	return slot
}

func (f *fixture) slotStatus(t *testing.T, id uuid.UUID) model.AvailabilityStatus {
	t.Helper()
	var slot model.Availability
	require.NoError(t, f.db.Where("id = ?", id).First(&slot).Error)
	return slot.Status
}

var slotStart = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// --- tests -----------------------------------------------------------------

func TestBook(t *testing.T) {
	f := newFixture(t)
	slot := f.seedSlot(t, slotStart)

	res, err := f.svc.Book(context.Background(), BookRequest{
		AvailabilityID: slot.ID,
		StudentID:      f.student.ID,
		Notes:          "first session",
	})
	require.NoError(t, err)
	assert.False(t, res.CalendarDegraded)
	assert.Equal(t, model.AppointmentBooked, res.Appointment.Status)
	assert.Equal(t, slot.ID, res.Appointment.AvailabilityID)
	assert.Equal(t, f.mentor.ID, res.Appointment.MentorID)
	assert.Equal(t, model.AvailabilityConsumed, f.slotStatus(t, slot.ID))
}

func TestBookUnknownAvailability(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Book(context.Background(), BookRequest{AvailabilityID: uuid.New(), StudentID: f.student.ID})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBookConsumedSlot(t *testing.T) {
	f := newFixture(t)
	slot := f.seedSlot(t, slotStart)

	_, err := f.svc.Book(context.Background(), BookRequest{AvailabilityID: slot.ID, StudentID: f.student.ID})
	require.NoError(t, err)

	other := seedUser(t, f.db, model.RoleStudent, "other@example.com")
	_, err = f.svc.Book(context.Background(), BookRequest{AvailabilityID: slot.ID, StudentID: other.ID})
	assert.ErrorIs(t, err, ErrAlreadyConsumed)
}

func TestBookUnknownStudent(t *testing.T) {
	f := newFixture(t)
	slot := f.seedSlot(t, slotStart)

	_, err := f.svc.Book(context.Background(), BookRequest{AvailabilityID: slot.ID, StudentID: uuid.New()})
	assert.ErrorIs(t, err, ErrUnknownStudent)
	assert.Equal(t, model.AvailabilityActive, f.slotStatus(t, slot.ID))
}

func TestBookExactlyOneWinner(t *testing.T) {
	f := newFixture(t)
	slot := f.seedSlot(t, slotStart)

	const racers = 8
	students := make([]*model.User, racers)
	for i := range students {
		students[i] = seedUser(t, f.db, model.RoleStudent, "racer"+string(rune('a'+i))+"@example.com")
	}

	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Book(context.Background(), BookRequest{
				AvailabilityID: slot.ID,
				StudentID:      students[i].ID,
			})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyConsumed)
		}
	}
	assert.Equal(t, 1, wins)

	var n int64
	require.NoError(t, f.db.Model(&model.Appointment{}).Where("availability_id = ?", slot.ID).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestBookConflictLeavesSlotActive(t *testing.T) {
	f := newFixture(t)
	slot := f.seedSlot(t, slotStart)
	busy, _ := interval.New(slotStart, slotStart.Add(30*time.Minute))
	f.conflict.events = []conflict.BusyEvent{{Party: conflict.PartyMentor, Window: busy}}

	_, err := f.svc.Book(context.Background(), BookRequest{AvailabilityID: slot.ID, StudentID: f.student.ID})

	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Len(t, conflictErr.Events, 1)

	// Rejection leaves no partial state behind.
	assert.Equal(t, model.AvailabilityActive, f.slotStatus(t, slot.ID))
	var n int64
	require.NoError(t, f.db.Model(&model.Appointment{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestBookGatewayFailureFailsClosed(t *testing.T) {
	f := newFixture(t)
	slot := f.seedSlot(t, slotStart)
	f.conflict.err = &conflict.GatewayError{Party: conflict.PartyStudent, Cause: errors.New("timeout")}

	_, err := f.svc.Book(context.Background(), BookRequest{AvailabilityID: slot.ID, StudentID: f.student.ID})

	var gwErr *conflict.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, model.AvailabilityActive, f.slotStatus(t, slot.ID))
}

func TestBookQuotaExceeded(t *testing.T) {
	f := newFixture(t)
	one := 1
	require.NoError(t, f.db.Create(&model.MeetingQuota{MentorID: f.mentor.ID, MaxDaily: &one}).Error)

	first := f.seedSlot(t, slotStart)
	_, err := f.svc.Book(context.Background(), BookRequest{AvailabilityID: first.ID, StudentID: f.student.ID})
	require.NoError(t, err)

	second := f.seedSlot(t, slotStart.Add(2*time.Hour))
	_, err = f.svc.Book(context.Background(), BookRequest{AvailabilityID: second.ID, StudentID: f.student.ID})

	var exceeded *quota.ExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, quota.WindowDaily, exceeded.Window)
	assert.Equal(t, model.AvailabilityActive, f.slotStatus(t, second.ID))

	// A slot the next day is outside the daily window.
	third := f.seedSlot(t, slotStart.AddDate(0, 0, 1))
	_, err = f.svc.Book(context.Background(), BookRequest{AvailabilityID: third.ID, StudentID: f.student.ID})
	assert.NoError(t, err)
}

func TestBookCalendarDegradedDoesNotRollBack(t *testing.T) {
	f := newFixture(t)
	slot := f.seedSlot(t, slotStart)
	f.creds.linked[f.mentor.ID] = &credential.Credential{UserID: f.mentor.ID, Provider: credential.ProviderGoogle}
	f.gateway.createErr = errors.New("503 from provider")

	res, err := f.svc.Book(context.Background(), BookRequest{AvailabilityID: slot.ID, StudentID: f.student.ID})
	require.NoError(t, err)
	assert.True(t, res.CalendarDegraded)
	assert.Equal(t, model.AvailabilityConsumed, f.slotStatus(t, slot.ID))
}

func TestBookCreatesCalendarEvents(t *testing.T) {
	f := newFixture(t)
	slot := f.seedSlot(t, slotStart)
	f.creds.linked[f.mentor.ID] = &credential.Credential{UserID: f.mentor.ID, Provider: credential.ProviderGoogle}

	res, err := f.svc.Book(context.Background(), BookRequest{AvailabilityID: slot.ID, StudentID: f.student.ID})
	require.NoError(t, err)
	assert.False(t, res.CalendarDegraded)
	assert.NotEmpty(t, res.Appointment.MentorEventID)
	// The unlinked student simply gets no mirrored event.
	assert.Empty(t, res.Appointment.StudentEventID)
	assert.Len(t, f.gateway.created, 1)
}

func TestCancelReopensAndAllowsRebooking(t *testing.T) {
	f := newFixture(t)
	slot := f.seedSlot(t, slotStart)

	res, err := f.svc.Book(context.Background(), BookRequest{AvailabilityID: slot.ID, StudentID: f.student.ID})
	require.NoError(t, err)

	require.NoError(t, f.svc.Cancel(context.Background(), res.Appointment.ID, f.student.ID))

	got, err := f.svc.GetByID(context.Background(), res.Appointment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentCancelled, got.Status)
	assert.NotNil(t, got.CancelledAt)
	assert.Equal(t, model.AvailabilityActive, f.slotStatus(t, slot.ID))

	// The reopened window is bookable by someone else.
	other := seedUser(t, f.db, model.RoleStudent, "other@example.com")
	res2, err := f.svc.Book(context.Background(), BookRequest{AvailabilityID: slot.ID, StudentID: other.ID})
	require.NoError(t, err)
	assert.Equal(t, other.ID, res2.Appointment.StudentID)
}

func TestCancelIdempotent(t *testing.T) {
	f := newFixture(t)
	slot := f.seedSlot(t, slotStart)
	res, err := f.svc.Book(context.Background(), BookRequest{AvailabilityID: slot.ID, StudentID: f.student.ID})
	require.NoError(t, err)

	require.NoError(t, f.svc.Cancel(context.Background(), res.Appointment.ID, f.student.ID))
	require.NoError(t, f.svc.Cancel(context.Background(), res.Appointment.ID, f.student.ID))
}

func TestCancelGuards(t *testing.T) {
	f := newFixture(t)
	slot := f.seedSlot(t, slotStart)
	res, err := f.svc.Book(context.Background(), BookRequest{AvailabilityID: slot.ID, StudentID: f.student.ID})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Cancel(context.Background(), uuid.New(), f.student.ID), ErrNotFound)
	assert.ErrorIs(t, f.svc.Cancel(context.Background(), res.Appointment.ID, uuid.New()), ErrNotParticipant)

	require.NoError(t, f.svc.Complete(context.Background(), res.Appointment.ID))
	assert.ErrorIs(t, f.svc.Cancel(context.Background(), res.Appointment.ID, f.student.ID), ErrAlreadyCompleted)
}

func TestCancelCompleteRaceKeepsTerminalState(t *testing.T) {
	f := newFixture(t)
	slot := f.seedSlot(t, slotStart)
	res, err := f.svc.Book(context.Background(), BookRequest{AvailabilityID: slot.ID, StudentID: f.student.ID})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var cancelErr, completeErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		cancelErr = f.svc.Cancel(context.Background(), res.Appointment.ID, f.student.ID)
	}()
	go func() {
		defer wg.Done()
		completeErr = f.svc.Complete(context.Background(), res.Appointment.ID)
	}()
	wg.Wait()

	var appt model.Appointment
	require.NoError(t, f.db.Where("id = ?", res.Appointment.ID).First(&appt).Error)

	// Exactly one transition may win; a completed appointment must never
	// have its availability reopened.
	switch appt.Status {
	case model.AppointmentCancelled:
		assert.NoError(t, cancelErr)
		assert.ErrorIs(t, completeErr, ErrAlreadyCancelled)
		assert.Equal(t, model.AvailabilityActive, f.slotStatus(t, slot.ID))
	case model.AppointmentCompleted:
		assert.NoError(t, completeErr)
		assert.ErrorIs(t, cancelErr, ErrAlreadyCompleted)
		assert.Equal(t, model.AvailabilityConsumed, f.slotStatus(t, slot.ID))
	default:
		t.Fatalf("appointment left in status %q", appt.Status)
	}
}

func TestCancelRemovesCalendarEvents(t *testing.T) {
	f := newFixture(t)
	slot := f.seedSlot(t, slotStart)
	f.creds.linked[f.mentor.ID] = &credential.Credential{UserID: f.mentor.ID, Provider: credential.ProviderGoogle}

	res, err := f.svc.Book(context.Background(), BookRequest{AvailabilityID: slot.ID, StudentID: f.student.ID})
	require.NoError(t, err)
	require.NotEmpty(t, res.Appointment.MentorEventID)

	require.NoError(t, f.svc.Cancel(context.Background(), res.Appointment.ID, f.mentor.ID))
	assert.Equal(t, []string{res.Appointment.MentorEventID}, f.gateway.deleted)
}

func TestComplete(t *testing.T) {
	f := newFixture(t)
	slot := f.seedSlot(t, slotStart)
	res, err := f.svc.Book(context.Background(), BookRequest{AvailabilityID: slot.ID, StudentID: f.student.ID})
	require.NoError(t, err)

	require.NoError(t, f.svc.Complete(context.Background(), res.Appointment.ID))

	got, err := f.svc.GetByID(context.Background(), res.Appointment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentCompleted, got.Status)
	assert.NotNil(t, got.CompletedAt)

	// Terminal in both directions.
	assert.ErrorIs(t, f.svc.Complete(context.Background(), res.Appointment.ID), ErrAlreadyCompleted)

	// The consumed slot stays consumed; completion never reopens it.
	assert.Equal(t, model.AvailabilityConsumed, f.slotStatus(t, slot.ID))
}

func TestCompleteCancelledAppointment(t *testing.T) {
	f := newFixture(t)
	slot := f.seedSlot(t, slotStart)
	res, err := f.svc.Book(context.Background(), BookRequest{AvailabilityID: slot.ID, StudentID: f.student.ID})
	require.NoError(t, err)

	require.NoError(t, f.svc.Cancel(context.Background(), res.Appointment.ID, f.student.ID))
	assert.ErrorIs(t, f.svc.Complete(context.Background(), res.Appointment.ID), ErrAlreadyCancelled)
}

func TestList(t *testing.T) {
	f := newFixture(t)
	other := seedUser(t, f.db, model.RoleStudent, "other@example.com")

	for i := 0; i < 3; i++ {
		slot := f.seedSlot(t, slotStart.Add(time.Duration(i*2)*time.Hour))
		student := f.student
		if i == 2 {
			student = other
		}
		_, err := f.svc.Book(context.Background(), BookRequest{AvailabilityID: slot.ID, StudentID: student.ID})
		require.NoError(t, err)
	}

	all, err := f.svc.List(context.Background(), ListRequest{MentorID: &f.mentor.ID})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	// Most recent start first.
	assert.True(t, all[0].StartTime.After(all[1].StartTime.Add(-time.Second)))

	mine, err := f.svc.List(context.Background(), ListRequest{StudentID: &f.student.ID})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	booked := model.AppointmentBooked
	from := slotStart.Add(3 * time.Hour)
	windowed, err := f.svc.List(context.Background(), ListRequest{Status: &booked, From: &from})
	require.NoError(t, err)
	assert.Len(t, windowed, 1)
}

func TestComments(t *testing.T) {
	f := newFixture(t)
	slot := f.seedSlot(t, slotStart)
	res, err := f.svc.Book(context.Background(), BookRequest{AvailabilityID: slot.ID, StudentID: f.student.ID})
	require.NoError(t, err)
	apptID := res.Appointment.ID

	_, err = f.svc.AddComment(context.Background(), apptID, f.student.ID, "  ")
	assert.ErrorIs(t, err, ErrEmptyComment)

	_, err = f.svc.AddComment(context.Background(), apptID, uuid.New(), "hi")
	assert.ErrorIs(t, err, ErrNotParticipant)

	_, err = f.svc.AddComment(context.Background(), apptID, f.student.ID, "looking forward to it")
	require.NoError(t, err)
	_, err = f.svc.AddComment(context.Background(), apptID, f.mentor.ID, "see you then")
	require.NoError(t, err)

	comments, err := f.svc.ListComments(context.Background(), apptID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, f.student.ID, comments[0].UserID)
	assert.Equal(t, "see you then", comments[1].Body)
}
