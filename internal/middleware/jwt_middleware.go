package middleware

import (
	"strings"

	"accounts/internal/apperr"
	"accounts/internal/services"

	"github.com/gofiber/fiber/v2"
)

// UserIDKey is the Locals key under which AuthRequired stores the verified
// subject id for downstream handlers.
const UserIDKey = "userId"

// AuthRequired is a Fiber middleware that gates protected routes behind a
// valid bearer token. It rejects with 401 at the first failing step:
// missing header, missing token segment, or failed verification. On
// success the verified user id is attached to the request context.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return apperr.New(apperr.Auth, "Authorization header missing")
		}

		// Expected format: "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) < 2 || parts[1] == "" {
			return apperr.New(apperr.Auth, "Token not found")
		}

		userID, err := authService.VerifyToken(parts[1])
		if err != nil {
			return apperr.ErrInvalidToken
		}

		c.Locals(UserIDKey, userID)
		return c.Next()
	}
}
