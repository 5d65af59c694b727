package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/mentorweb/mentorweb_backend/internal/api/http/handler"
	"github.com/mentorweb/mentorweb_backend/pkg/authorize"
)

func (r *Router) registerAppointmentRoutes(
	api fiber.Router,
	ah *handler.AppointmentHandler,
	authRequired fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	appts := api.Group("/appointments", authRequired)

	appts.Get("/", requirePerm(authorize.ResourceAppointment, authorize.ActionList), ah.List)
	appts.Post("/", requirePerm(authorize.ResourceAppointment, authorize.ActionCreate), ah.Book)

	a := appts.Group("/:id")
	a.Get("/", requirePerm(authorize.ResourceAppointment, authorize.ActionRead), ah.GetByID)
	a.Patch("/cancel", requirePerm(authorize.ResourceAppointment, authorize.ActionUpdate), ah.Cancel)
	a.Patch("/complete", requirePerm(authorize.ResourceAppointment, authorize.ActionUpdate), ah.Complete)

	a.Get("/comments", requirePerm(authorize.ResourceComment, authorize.ActionRead), ah.ListComments)
	a.Post("/comments", requirePerm(authorize.ResourceComment, authorize.ActionCreate), ah.AddComment)
}
