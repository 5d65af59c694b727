package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/mentorweb/mentorweb_backend/internal/api/http/handler"
	"github.com/mentorweb/mentorweb_backend/pkg/authorize"
)

func (r *Router) registerUserRoutes(
	api fiber.Router,
	uh *handler.UserHandler,
	authRequired fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	users := api.Group("/users", authRequired)

	users.Post("/", requirePerm(authorize.ResourceUser, authorize.ActionCreate), uh.Create)

	me := users.Group("/me")
	me.Get("/", requirePerm(authorize.ResourceUser, authorize.ActionRead), uh.Me)
	me.Patch("/", requirePerm(authorize.ResourceUser, authorize.ActionUpdate), uh.UpdateMe)
	me.Post("/calendar/ics", requirePerm(authorize.ResourceCredential, authorize.ActionCreate), uh.LinkICS)
	me.Delete("/calendar", requirePerm(authorize.ResourceCredential, authorize.ActionDelete), uh.UnlinkCalendar)

	mentors := api.Group("/mentors", authRequired)
	mentors.Get("/:id/quota", requirePerm(authorize.ResourceQuota, authorize.ActionRead), uh.GetQuota)
	mentors.Put("/:id/quota", requirePerm(authorize.ResourceQuota, authorize.ActionUpdate), uh.SetQuota)
}
