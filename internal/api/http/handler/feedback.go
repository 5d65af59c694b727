package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/mentorweb/mentorweb_backend/internal/api/http/middleware"
	"github.com/mentorweb/mentorweb_backend/internal/model"
	"github.com/mentorweb/mentorweb_backend/internal/service/feedback"
)

type FeedbackHandler struct {
	svc feedback.Service
}

func NewFeedbackHandler(svc feedback.Service) *FeedbackHandler {
	return &FeedbackHandler{svc: svc}
}

func mapFeedbackError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, feedback.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, feedback.ErrInvalidRating):
		return badRequest(c, err.Error())
	case errors.Is(err, feedback.ErrNotParticipant):
		return forbidden(c)
	default:
		return internalError(c)
	}
}

// POST /appointments/:id/feedback
func (h *FeedbackHandler) Submit(c fiber.Ctx) error {
	claims, okc := middleware.ClaimsFromFiber(c)
	if !okc {
		return unauthorized(c)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}

	var body struct {
		Rating int    `json:"rating"`
		Notes  string `json:"notes"`
	}
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	fb, err := h.svc.Submit(c.Context(), feedback.SubmitRequest{
		AppointmentID: id,
		ActorID:       claims.UserID,
		Rating:        body.Rating,
		Notes:         body.Notes,
	})
	if err != nil {
		return mapFeedbackError(c, err)
	}
	return created(c, fb)
}

// GET /appointments/:id/feedback
func (h *FeedbackHandler) Get(c fiber.Ctx) error {
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
		actorID = uuid.Nil // admins may read any feedback
	}

	fb, err := h.svc.ForAppointment(c.Context(), id, actorID)
	if err != nil {
		return mapFeedbackError(c, err)
	}
	return ok(c, fb)
}

// GET /feedback
func (h *FeedbackHandler) ListAll(c fiber.Ctx) error {
	var q struct {
		Page    int `query:"page"`
		PerPage int `query:"per_page"`
	}
	_ = c.Bind().Query(&q)

	rows, err := h.svc.ListAll(c.Context(), q.Page, q.PerPage)
	if err != nil {
		return mapFeedbackError(c, err)
	}
	return ok(c, rows)
}
