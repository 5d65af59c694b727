package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/mentorweb/mentorweb_backend/internal/api/http/middleware"
	"github.com/mentorweb/mentorweb_backend/internal/service/notification"
)

type NotificationHandler struct {
	svc notification.Service
}

func NewNotificationHandler(svc notification.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// GET /notifications
func (h *NotificationHandler) List(c fiber.Ctx) error {
	claims, okc := middleware.ClaimsFromFiber(c)
	if !okc {
		return unauthorized(c)
	}

	var q struct {
		UnreadOnly bool `query:"unread_only"`
		Page       int  `query:"page"`
		PerPage    int  `query:"per_page"`
	}
	_ = c.Bind().Query(&q)

	notifs, err := h.svc.List(c.Context(), claims.UserID, q.UnreadOnly, q.Page, q.PerPage)
	if err != nil {
		return internalError(c)
	}
	return ok(c, notifs)
}

// PATCH /notifications/:id/read
func (h *NotificationHandler) MarkRead(c fiber.Ctx) error {
	claims, okc := middleware.ClaimsFromFiber(c)
	if !okc {
		return unauthorized(c)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid notification id")
	}

	if err := h.svc.MarkRead(c.Context(), id, claims.UserID); err != nil {
		if errors.Is(err, notification.ErrNotFound) {
			return notFound(c, err.Error())
		}
		return internalError(c)
	}
	return noContent(c)
}

// POST /notifications/read-all
func (h *NotificationHandler) MarkAllRead(c fiber.Ctx) error {
	claims, okc := middleware.ClaimsFromFiber(c)
	if !okc {
		return unauthorized(c)
	}

	if err := h.svc.MarkAllRead(c.Context(), claims.UserID); err != nil {
		return internalError(c)
	}
	return noContent(c)
}
