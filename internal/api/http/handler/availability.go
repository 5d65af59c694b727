package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/mentorweb/mentorweb_backend/internal/api/http/middleware"
	"github.com/mentorweb/mentorweb_backend/internal/service/availability"
)

type AvailabilityHandler struct {
	svc availability.Service
}

func NewAvailabilityHandler(svc availability.Service) *AvailabilityHandler {
	return &AvailabilityHandler{svc: svc}
}

func mapAvailabilityError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, availability.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, availability.ErrDuplicate):
		return conflict(c, err.Error())
	case errors.Is(err, availability.ErrAlreadyConsumed):
		return conflict(c, err.Error())
	case errors.Is(err, availability.ErrNotOwner):
		return forbidden(c)
	case errors.Is(err, availability.ErrInvalidWindow):
		return badRequest(c, err.Error())
	default:
		return internalError(c)
	}
}

// POST /availability
func (h *AvailabilityHandler) Publish(c fiber.Ctx) error {
	claims, okc := middleware.ClaimsFromFiber(c)
	if !okc {
		return unauthorized(c)
	}

	var body struct {
		Start     string `json:"start"`
		End       string `json:"end"`
		ProgramID string `json:"program_id"`
	}
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	start, err := time.Parse(time.RFC3339, body.Start)
	if err != nil {
		return badRequest(c, "start must be RFC3339")
	}
	end, err := time.Parse(time.RFC3339, body.End)
	if err != nil {
		return badRequest(c, "end must be RFC3339")
	}

	req := availability.PublishRequest{Start: start, End: end}
	if body.ProgramID != "" {
		pid, err := uuid.Parse(body.ProgramID)
		if err != nil {
			return badRequest(c, "invalid program_id")
		}
		req.ProgramID = &pid
	}

	entry, err := h.svc.Publish(c.Context(), claims.UserID, req)
	if err != nil {
		return mapAvailabilityError(c, err)
	}
	return created(c, entry)
}

// GET /availability?mentor_id&from&to
func (h *AvailabilityHandler) List(c fiber.Ctx) error {
	var q struct {
		MentorID string `query:"mentor_id"`
		From     string `query:"from"`
		To       string `query:"to"`
	}
	_ = c.Bind().Query(&q)

	if q.MentorID == "" {
		return badRequest(c, "mentor_id is required")
	}
	mentorID, err := uuid.Parse(q.MentorID)
	if err != nil {
		return badRequest(c, "invalid mentor_id")
	}

	var from, to time.Time
	if q.From != "" {
		if from, err = time.Parse(time.RFC3339, q.From); err != nil {
			return badRequest(c, "from must be RFC3339")
		}
	}
	if q.To != "" {
		if to, err = time.Parse(time.RFC3339, q.To); err != nil {
			return badRequest(c, "to must be RFC3339")
		}
	}

	entries, err := h.svc.ListActive(c.Context(), mentorID, from, to)
	if err != nil {
		return mapAvailabilityError(c, err)
	}
	return ok(c, entries)
}

// DELETE /availability/:id
func (h *AvailabilityHandler) Cancel(c fiber.Ctx) error {
	claims, okc := middleware.ClaimsFromFiber(c)
	if !okc {
		return unauthorized(c)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid availability id")
	}

	if err := h.svc.Cancel(c.Context(), id, claims.UserID); err != nil {
		return mapAvailabilityError(c, err)
	}
	return noContent(c)
}
