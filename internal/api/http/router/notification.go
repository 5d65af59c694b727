package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/mentorweb/mentorweb_backend/internal/api/http/handler"
	"github.com/mentorweb/mentorweb_backend/pkg/authorize"
)

func (r *Router) registerNotificationRoutes(
	api fiber.Router,
	nh *handler.NotificationHandler,
	authRequired fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	notifs := api.Group("/notifications", authRequired)

	notifs.Get("/", requirePerm(authorize.ResourceNotification, authorize.ActionRead), nh.List)
	notifs.Patch("/:id/read", requirePerm(authorize.ResourceNotification, authorize.ActionRead), nh.MarkRead)
	notifs.Post("/read-all", requirePerm(authorize.ResourceNotification, authorize.ActionRead), nh.MarkAllRead)
}
