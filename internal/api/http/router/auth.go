package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/mentorweb/mentorweb_backend/internal/api/http/handler"
)

func (r *Router) registerAuthRoutes(api fiber.Router, ah *handler.AuthHandler, authRequired fiber.Handler) {
	authGroup := api.Group("/auth")

	authGroup.Post("/login", ah.Login)
	authGroup.Post("/refresh", ah.Refresh)
	authGroup.Post("/logout", authRequired, ah.Logout)
}
