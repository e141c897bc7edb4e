package handler

import (
	"go-receipts-api/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct{}

func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// Me returns the authenticated user
// GET /api/users/me
func (h *UserHandler) Me(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return detail(c, fiber.StatusUnauthorized, "Not authenticated")
	}
	return c.JSON(user.ToResponse())
}
