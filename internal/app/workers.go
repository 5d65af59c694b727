package app

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/mentorweb/mentorweb_backend/config"
	"github.com/mentorweb/mentorweb_backend/internal/model"
	"github.com/mentorweb/mentorweb_backend/internal/service/booking"
	"github.com/mentorweb/mentorweb_backend/internal/service/notification"
	"github.com/mentorweb/mentorweb_backend/pkg/email"
)

// WorkerModule registers the NATS event workers and scheduled jobs.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

type WorkerParams struct {
	fx.In

	Lc       fx.Lifecycle
	Cfg      *config.Config
	NC       *nats.Conn
	DB       *gorm.DB
	NotifSvc notification.Service
	Email    *email.Client
}

func RegisterWorkers(p WorkerParams) {
	sched := cron.New()

	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			startNotificationWorker(p.NC, p.DB, p.NotifSvc)
			startEmailWorker(p.NC, p.DB, p.Email)
			if err := startAutoCompleteJob(sched, p.Cfg, p.DB); err != nil {
				return err
			}
			sched.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			// Drain handled by ProvideNatsClient.
			stopped := sched.Stop()
			select {
			case <-stopped.Done():
			case <-ctx.Done():
			}
			return nil
		},
	})
}

// ---------------------------------------------------------------------------
// notification_worker
// ---------------------------------------------------------------------------

func startNotificationWorker(nc *nats.Conn, db *gorm.DB, notifSvc notification.Service) {
	_, err := nc.Subscribe(booking.SubjectCreated+".*", func(msg *nats.Msg) {
		appt, ok := loadAppointment(db, msg.Data)
		if !ok {
			return
		}
		ctx := context.Background()

		notifyBoth(ctx, notifSvc, appt, "appointment_created", "Booking confirmed")
	})
	if err != nil {
		slog.Error("notification_worker: subscribe appointment.created failed", "err", err)
	}

	_, err = nc.Subscribe(booking.SubjectCancelled+".*", func(msg *nats.Msg) {
		appt, ok := loadAppointment(db, msg.Data)
		if !ok {
			return
		}
		ctx := context.Background()

		notifyBoth(ctx, notifSvc, appt, "appointment_cancelled", "Booking cancelled")
	})
	if err != nil {
		slog.Error("notification_worker: subscribe appointment.cancelled failed", "err", err)
	}

	slog.Info("notification_worker: started")
}

func notifyBoth(ctx context.Context, notifSvc notification.Service, appt *model.Appointment, typ, title string) {
	data := map[string]any{
		"appointment_id": appt.ID.String(),
		"start_time":     appt.StartTime.UTC().Format(time.RFC3339),
	}
	for _, userID := range []uuid.UUID{appt.MentorID, appt.StudentID} {
		_, err := notifSvc.Create(ctx, notification.CreateRequest{
			UserID: userID,
			Type:   typ,
			Title:  title,
			Data:   data,
		})
		if err != nil {
			slog.Warn("notification_worker: create notification failed", "type", typ, "err", err)
		}
	}
}

// ---------------------------------------------------------------------------
// email_worker
// ---------------------------------------------------------------------------

func startEmailWorker(nc *nats.Conn, db *gorm.DB, emailCli *email.Client) {
	if !emailCli.Enabled() {
		slog.Info("email_worker: disabled")
		return
	}

	_, err := nc.Subscribe(booking.SubjectCreated+".*", func(msg *nats.Msg) {
		sendAppointmentEmails(db, emailCli, msg.Data, email.BuildBookingConfirmation)
	})
	if err != nil {
		slog.Error("email_worker: subscribe appointment.created failed", "err", err)
	}

	_, err = nc.Subscribe(booking.SubjectCancelled+".*", func(msg *nats.Msg) {
		sendAppointmentEmails(db, emailCli, msg.Data, email.BuildBookingCancellation)
	})
	if err != nil {
		slog.Error("email_worker: subscribe appointment.cancelled failed", "err", err)
	}

	slog.Info("email_worker: started")
}

func sendAppointmentEmails(
	db *gorm.DB,
	emailCli *email.Client,
	payload []byte,
	build func(string, email.AppointmentEmailData) email.Message,
) {
	appt, ok := loadAppointment(db, payload)
	if !ok {
		return
	}
	ctx := context.Background()

	var mentor, student model.User
	if err := db.WithContext(ctx).First(&mentor, "id = ?", appt.MentorID).Error; err != nil {
		slog.Warn("email_worker: mentor not found", "id", appt.MentorID, "err", err)
		return
	}
	if err := db.WithContext(ctx).First(&student, "id = ?", appt.StudentID).Error; err != nil {
		slog.Warn("email_worker: student not found", "id", appt.StudentID, "err", err)
		return
	}

	pairs := []struct {
		to         string
		recipient  string
		otherParty string
	}{
		{mentor.Email, mentor.FirstName, student.FullName()},
		{student.Email, student.FirstName, mentor.FullName()},
	}
	for _, pair := range pairs {
		msg := build(pair.to, email.AppointmentEmailData{
			RecipientName: pair.recipient,
			OtherParty:    pair.otherParty,
			Start:         appt.StartTime,
			End:           appt.EndTime,
			MeetingURL:    appt.MeetingURL,
			Location:      appt.PhysicalLocation,
		})
		if err := emailCli.Send(ctx, msg); err != nil {
			slog.Warn("email_worker: send failed", "to", pair.to, "err", err)
		}
	}
}

// ---------------------------------------------------------------------------
// auto_complete_job
// ---------------------------------------------------------------------------

// startAutoCompleteJob periodically marks booked appointments whose end time
// has passed as completed, so quota windows release without manual action.
func startAutoCompleteJob(sched *cron.Cron, cfg *config.Config, db *gorm.DB) error {
	spec := cfg.Jobs.AutoCompleteCron
	if spec == "" {
		spec = "@every 10m"
	}

	_, err := sched.AddFunc(spec, func() {
		now := time.Now().UTC()
		res := db.Model(&model.Appointment{}).
			Where("status = ? AND end_time < ?", model.AppointmentBooked, now).
			Updates(map[string]any{
				"status":       model.AppointmentCompleted,
				"completed_at": now,
			})
		if res.Error != nil {
			slog.Warn("auto_complete_job: sweep failed", "err", res.Error)
			return
		}
		if res.RowsAffected > 0 {
			slog.Info("auto_complete_job: appointments completed", "count", res.RowsAffected)
		}
	})
	return err
}

func loadAppointment(db *gorm.DB, payload []byte) (*model.Appointment, bool) {
	apptID, err := uuid.Parse(strings.TrimSpace(string(payload)))
	if err != nil {
		return nil, false
	}
	var appt model.Appointment
	if err := db.First(&appt, "id = ?", apptID).Error; err != nil {
		slog.Warn("worker: appointment not found", "id", apptID, "err", err)
		return nil, false
	}
	return &appt, true
}
