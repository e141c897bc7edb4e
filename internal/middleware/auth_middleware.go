package middleware

import (
	"errors"
	"strings"

	"go-receipts-api/internal/model"
	"go-receipts-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by RequireAuth.
const (
	LocalUserID   = "user_id"
	LocalUsername = "username"
	LocalUserName = "user_name"
	LocalUser     = "user"
)

// RequireAuth is middleware that validates the bearer token and sets user info in context
func RequireAuth(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return unauthorized(c, "Not authenticated")
		}

		user, err := auth.Authenticate(tokenString)
		if err != nil {
			return unauthorized(c, authFailureMessage(err))
		}

		SetUser(c, user)
		return c.Next()
	}
}

// SetUser stores the authenticated user for downstream handlers.
func SetUser(c *fiber.Ctx, user *model.User) {
	c.Locals(LocalUserID, user.ID)
	c.Locals(LocalUsername, user.Username)
	c.Locals(LocalUserName, user.Name)
	c.Locals(LocalUser, user)
}

// CurrentUser returns the user set by RequireAuth, or nil on public routes.
func CurrentUser(c *fiber.Ctx) *model.User {
	user, _ := c.Locals(LocalUser).(*model.User)
	return user
}

func authFailureMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrSessionReplaced):
		return err.Error()
	default:
		return "Invalid or expired token"
	}
}

// bearerToken extracts the token from "Bearer <token>"
func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthorized(c *fiber.Ctx, detail string) error {
	c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"detail": detail})
}
