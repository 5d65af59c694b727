package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/mentorweb/mentorweb_backend/internal/service/auth"
	pasetotoken "github.com/mentorweb/mentorweb_backend/pkg/paseto"
)

const LocalsClaims = "auth_claims"

// AuthRequired validates a Bearer PASETO access token and that its session is
// still live. On success the claims land in c.Locals(LocalsClaims).
func AuthRequired(authSvc auth.Service) fiber.Handler {
	return func(c fiber.Ctx) error {
		h := c.Get("Authorization")
		if h == "" {
			return fiber.ErrUnauthorized
		}

		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.ErrUnauthorized
		}

		claims, err := authSvc.VerifySession(c.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			return fiber.ErrUnauthorized
		}

		c.Locals(LocalsClaims, claims)
		return c.Next()
	}
}

// ClaimsFromFiber retrieves the verified claims set by AuthRequired.
func ClaimsFromFiber(c fiber.Ctx) (*pasetotoken.Claims, bool) {
	claims, ok := c.Locals(LocalsClaims).(*pasetotoken.Claims)
	return claims, ok && claims != nil
}
