package auth

import (
	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v3"
	"github.com/theapemachine/ukg/pkg/errors"
)

// ClaimsKey is the fiber locals key holding the verified *Claims.
const ClaimsKey = "auth.claims"

// Middleware rejects requests without a valid bearer token. Limits apply
// per client IP.
func (s *Service) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		claims, err := s.Authenticate(c.Get(fiber.HeaderAuthorization), c.IP())
		if err != nil {
			status := fiber.StatusUnauthorized

			if errors.Is(err, errors.ErrRateLimited) {
				status = fiber.StatusTooManyRequests
			}

			log.Debug("request rejected", "path", c.Path(), "ip", c.IP(), "error", err)
			return c.Status(status).JSON(fiber.Map{"error": err.Error()})
		}

		c.Locals(ClaimsKey, claims)
		return c.Next()
	}
}

// FromContext returns the claims set by Middleware, or nil.
func FromContext(c fiber.Ctx) *Claims {
	claims, _ := c.Locals(ClaimsKey).(*Claims)
	return claims
}
