package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/mentorweb/mentorweb_backend/internal/api/http/middleware"
	"github.com/mentorweb/mentorweb_backend/internal/model"
	"github.com/mentorweb/mentorweb_backend/internal/service/booking"
	conflictsvc "github.com/mentorweb/mentorweb_backend/internal/service/conflict"
	"github.com/mentorweb/mentorweb_backend/internal/service/quota"
)

type AppointmentHandler struct {
	svc booking.Service
}

func NewAppointmentHandler(svc booking.Service) *AppointmentHandler {
	return &AppointmentHandler{svc: svc}
}

func mapBookingError(c fiber.Ctx, err error) error {
	var conflictErr *booking.ConflictError
	var quotaErr *quota.ExceededError
	var gatewayErr *conflictsvc.GatewayError

	switch {
	case errors.Is(err, booking.ErrNotFound), errors.Is(err, booking.ErrUnknownStudent):
		return notFound(c, err.Error())
	case errors.Is(err, booking.ErrAlreadyConsumed):
		return conflict(c, err.Error())
	case errors.Is(err, booking.ErrAlreadyCancelled), errors.Is(err, booking.ErrAlreadyCompleted):
		return conflict(c, err.Error())
	case errors.Is(err, booking.ErrNotParticipant):
		return forbidden(c)
	case errors.Is(err, booking.ErrEmptyComment):
		return badRequest(c, err.Error())
	case errors.As(err, &conflictErr):
		return conflictWith(c, "booking conflicts with external calendar events", fiber.Map{
			"events": conflictErr.Events,
		})
	case errors.As(err, &quotaErr):
		return conflictWith(c, quotaErr.Error(), fiber.Map{
			"window": quotaErr.Window,
		})
	case errors.As(err, &gatewayErr):
		return badGateway(c, "external calendar is unavailable, try again")
	default:
		return internalError(c)
	}
}

// POST /appointments
func (h *AppointmentHandler) Book(c fiber.Ctx) error {
	claims, okc := middleware.ClaimsFromFiber(c)
	if !okc {
		return unauthorized(c)
	}

	var body struct {
		AvailabilityID string `json:"availability_id"`
		Notes          string `json:"notes"`
	}
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	availabilityID, err := uuid.Parse(body.AvailabilityID)
	if err != nil {
		return badRequest(c, "invalid availability_id")
	}

	res, err := h.svc.Book(c.Context(), booking.BookRequest{
		AvailabilityID: availabilityID,
		StudentID:      claims.UserID,
		Notes:          body.Notes,
	})
	if err != nil {
		return mapBookingError(c, err)
	}

	return created(c, fiber.Map{
		"appointment":       res.Appointment,
		"calendar_degraded": res.CalendarDegraded,
	})
}

// GET /appointments
func (h *AppointmentHandler) List(c fiber.Ctx) error {
	var q struct {
		MentorID  string `query:"mentor_id"`
		StudentID string `query:"student_id"`
		Status    string `query:"status"`
		From      string `query:"from"`
		To        string `query:"to"`
		Page      int    `query:"page"`
		PerPage   int    `query:"per_page"`
	}
	_ = c.Bind().Query(&q)

	req := booking.ListRequest{Page: q.Page, PerPage: q.PerPage}
	if q.MentorID != "" {
		id, err := uuid.Parse(q.MentorID)
		if err != nil {
			return badRequest(c, "invalid mentor_id")
		}
		req.MentorID = &id
	}
	if q.StudentID != "" {
		id, err := uuid.Parse(q.StudentID)
		if err != nil {
			return badRequest(c, "invalid student_id")
		}
		req.StudentID = &id
	}
	if q.Status != "" {
		status := model.AppointmentStatus(q.Status)
		req.Status = &status
	}
	if q.From != "" {
		if t, err := time.Parse(time.RFC3339, q.From); err == nil {
			req.From = &t
		}
	}
	if q.To != "" {
		if t, err := time.Parse(time.RFC3339, q.To); err == nil {
			req.To = &t
		}
	}

	appts, err := h.svc.List(c.Context(), req)
	if err != nil {
		return mapBookingError(c, err)
	}
	return ok(c, appts)
}

// GET /appointments/:id
func (h *AppointmentHandler) GetByID(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}

	appt, err := h.svc.GetByID(c.Context(), id)
	if err != nil {
		return mapBookingError(c, err)
	}
	return ok(c, appt)
}

// PATCH /appointments/:id/cancel
func (h *AppointmentHandler) Cancel(c fiber.Ctx) error {
	claims, okc := middleware.ClaimsFromFiber(c)
	if !okc {
		return unauthorized(c)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}

	actorID := claims.UserID
	if claims.Role == string(model.RoleAdmin) {
		actorID = uuid.Nil // admins may cancel any appointment
	}

	if err := h.svc.Cancel(c.Context(), id, actorID); err != nil {
		return mapBookingError(c, err)
	}
	return noContent(c)
}

// PATCH /appointments/:id/complete
func (h *AppointmentHandler) Complete(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}

	if err := h.svc.Complete(c.Context(), id); err != nil {
		return mapBookingError(c, err)
	}
	return noContent(c)
}

// POST /appointments/:id/comments
func (h *AppointmentHandler) AddComment(c fiber.Ctx) error {
	claims, okc := middleware.ClaimsFromFiber(c)
	if !okc {
		return unauthorized(c)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}

	var body struct {
		Body string `json:"body"`
	}
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	comment, err := h.svc.AddComment(c.Context(), id, claims.UserID, body.Body)
	if err != nil {
		return mapBookingError(c, err)
	}
	return created(c, comment)
}

// GET /appointments/:id/comments
func (h *AppointmentHandler) ListComments(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}

	comments, err := h.svc.ListComments(c.Context(), id)
	if err != nil {
		return mapBookingError(c, err)
	}
	return ok(c, comments)
}
