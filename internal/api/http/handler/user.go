package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/mentorweb/mentorweb_backend/internal/api/http/middleware"
	"github.com/mentorweb/mentorweb_backend/internal/model"
	"github.com/mentorweb/mentorweb_backend/internal/service/credential"
	"github.com/mentorweb/mentorweb_backend/internal/service/user"
)

type UserHandler struct {
	svc   user.Service
	creds credential.Service
}

func NewUserHandler(svc user.Service, creds credential.Service) *UserHandler {
	return &UserHandler{svc: svc, creds: creds}
}

func mapUserError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, user.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, user.ErrEmailTaken):
		return conflict(c, err.Error())
	case errors.Is(err, user.ErrInvalidEmail),
		errors.Is(err, user.ErrWeakPassword),
		errors.Is(err, user.ErrInvalidCaps):
		return badRequest(c, err.Error())
	case errors.Is(err, user.ErrNotMentor):
		return badRequest(c, err.Error())
	case errors.Is(err, credential.ErrBadFeed):
		return badRequest(c, err.Error())
	default:
		return internalError(c)
	}
}

// POST /users (admin)
func (h *UserHandler) Create(c fiber.Ctx) error {
	var body struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Role      string `json:"role"`
	}
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	role := model.Role(body.Role)
	switch role {
	case model.RoleStudent, model.RoleMentor, model.RoleAdmin:
	default:
		return badRequest(c, "role must be student, mentor or admin")
	}

	u, err := h.svc.Create(c.Context(), user.CreateRequest{
		Email:     body.Email,
		Password:  body.Password,
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Role:      role,
	})
	if err != nil {
		return mapUserError(c, err)
	}
	return created(c, u)
}

// GET /users/me
func (h *UserHandler) Me(c fiber.Ctx) error {
	claims, okc := middleware.ClaimsFromFiber(c)
	if !okc {
		return unauthorized(c)
	}

	u, err := h.svc.GetByID(c.Context(), claims.UserID)
	if err != nil {
		return mapUserError(c, err)
	}
	return ok(c, u)
}

// PATCH /users/me
func (h *UserHandler) UpdateMe(c fiber.Ctx) error {
	claims, okc := middleware.ClaimsFromFiber(c)
	if !okc {
		return unauthorized(c)
	}

	var body struct {
		FirstName   *string `json:"first_name"`
		LastName    *string `json:"last_name"`
		Pronouns    *string `json:"pronouns"`
		About       *string `json:"about"`
		LinkedinURL *string `json:"linkedin_url"`
		MeetingURL  *string `json:"meeting_url"`
		DiscordID   *string `json:"discord_id"`
	}
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	u, err := h.svc.UpdateProfile(c.Context(), claims.UserID, user.UpdateProfileRequest{
		FirstName:   body.FirstName,
		LastName:    body.LastName,
		Pronouns:    body.Pronouns,
		About:       body.About,
		LinkedinURL: body.LinkedinURL,
		MeetingURL:  body.MeetingURL,
		DiscordID:   body.DiscordID,
	})
	if err != nil {
		return mapUserError(c, err)
	}
	return ok(c, u)
}

// GET /mentors/:id/quota
func (h *UserHandler) GetQuota(c fiber.Ctx) error {
	mentorID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid mentor id")
	}

	settings, err := h.svc.GetQuota(c.Context(), mentorID)
	if err != nil {
		return mapUserError(c, err)
	}
	return ok(c, settings)
}

// PUT /mentors/:id/quota
func (h *UserHandler) SetQuota(c fiber.Ctx) error {
	claims, okc := middleware.ClaimsFromFiber(c)
	if !okc {
		return unauthorized(c)
	}

	mentorID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid mentor id")
	}

	// Mentors manage their own caps; admins manage anyone's.
	if claims.Role != string(model.RoleAdmin) && claims.UserID != mentorID {
		return forbidden(c)
	}

	var body user.QuotaSettings
	if err := c.Bind().Body(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := h.svc.SetQuota(c.Context(), mentorID, body); err != nil {
		return mapUserError(c, err)
	}
	return noContent(c)
}

// POST /users/me/calendar/ics
func (h *UserHandler) LinkICS(c fiber.Ctx) error {
	claims, okc := middleware.ClaimsFromFiber(c)
	if !okc {
		return unauthorized(c)
	}

	var body struct {
		FeedURL string `json:"feed_url"`
	}
	if err := c.Bind().Body(&body); err != nil || body.FeedURL == "" {
		return badRequest(c, "feed_url is required")
	}

	if err := h.creds.LinkICS(c.Context(), claims.UserID, body.FeedURL); err != nil {
		return mapUserError(c, err)
	}
	return noContent(c)
}

// DELETE /users/me/calendar
func (h *UserHandler) UnlinkCalendar(c fiber.Ctx) error {
	claims, okc := middleware.ClaimsFromFiber(c)
	if !okc {
		return unauthorized(c)
	}

	if err := h.creds.Unlink(c.Context(), claims.UserID); err != nil {
		return internalError(c)
	}
	return noContent(c)
}
