package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/mentorweb/mentorweb_backend/pkg/authorize"
)

// RequirePermission checks the authenticated user against the RBAC policy.
func RequirePermission(auth authorize.IAuthorization, resource authorize.Resource, action authorize.Action) fiber.Handler {
	return func(c fiber.Ctx) error {
		claims, ok := ClaimsFromFiber(c)
		if !ok {
			return fiber.ErrUnauthorized
		}

		err := auth.MustEnforce(c.Context(), claims.UserID.String(), resource, action)
		if err != nil {
			if errors.Is(err, authorize.ErrForbidden) {
				return fiber.ErrForbidden
			}
			return err
		}
		return c.Next()
	}
}
