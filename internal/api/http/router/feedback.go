package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/mentorweb/mentorweb_backend/internal/api/http/handler"
	"github.com/mentorweb/mentorweb_backend/pkg/authorize"
)

func (r *Router) registerFeedbackRoutes(
	api fiber.Router,
	fh *handler.FeedbackHandler,
	authRequired fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	appts := api.Group("/appointments", authRequired)
	appts.Post("/:id/feedback", requirePerm(authorize.ResourceFeedback, authorize.ActionCreate), fh.Submit)
	appts.Get("/:id/feedback", requirePerm(authorize.ResourceFeedback, authorize.ActionRead), fh.Get)

	// Full listing is an export surface; only admin holds feedback:list.
	api.Get("/feedback", authRequired, requirePerm(authorize.ResourceFeedback, authorize.ActionList), fh.ListAll)
}
