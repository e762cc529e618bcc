package middleware

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"

	"reflection-garden/models"
)

// Locals keys set for downstream handlers.
const (
	LocalUserID = "user_id"
	LocalUser   = "user"
)

// UserEnsurer creates or refreshes the local record of a gateway identity.
type UserEnsurer interface {
	EnsureUser(ctx context.Context, id, username string) (*models.User, error)
}

// UserContextMiddleware reads the identity forwarded by the gateway and makes
// sure a local engagement record exists for it. Mount it on secured groups only.
func UserContextMiddleware(users UserEnsurer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		if userID == "" {
			log.Printf("❌ [USER_CTX] X-User-ID required but missing on secured route: %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID: request must come through gateway with auth context",
			})
		}

		user, err := users.EnsureUser(c.UserContext(), userID, c.Get("X-User-Name"))
		if err != nil {
			log.Printf("❌ [USER_CTX] could not load user %s: %v", userID, err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "user context unavailable",
				"cause": err.Error(),
			})
		}

		c.Locals(LocalUserID, user.ID)
		c.Locals(LocalUser, user)
		return c.Next()
	}
}

// UserID returns the authenticated user id set by UserContextMiddleware.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalUserID).(string)
	return id
}
