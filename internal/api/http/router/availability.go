package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/mentorweb/mentorweb_backend/internal/api/http/handler"
	"github.com/mentorweb/mentorweb_backend/pkg/authorize"
)

func (r *Router) registerAvailabilityRoutes(
	api fiber.Router,
	ah *handler.AvailabilityHandler,
	authRequired fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	avail := api.Group("/availability", authRequired)

	avail.Get("/", requirePerm(authorize.ResourceAvailability, authorize.ActionRead), ah.List)
	avail.Post("/", requirePerm(authorize.ResourceAvailability, authorize.ActionCreate), ah.Publish)
	avail.Delete("/:id", requirePerm(authorize.ResourceAvailability, authorize.ActionDelete), ah.Cancel)
}
