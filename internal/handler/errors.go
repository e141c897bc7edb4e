package handler

import (
	"errors"

	"go-receipts-api/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func detail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"detail": message})
}

// unprocessable reports a request value that could not be decoded.
func unprocessable(c *fiber.Ctx, message string) error {
	return detail(c, fiber.StatusUnprocessableEntity, message)
}

// respondError maps a service error onto its status code and detail body.
func respondError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		if verr.Code == service.CodeLineTooShort {
			return detail(c, fiber.StatusNotFound, verr.Message)
		}
		return detail(c, fiber.StatusBadRequest, verr.Message)
	case errors.Is(err, service.ErrReceiptNotFound):
		return detail(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrOwnerNotFound):
		return detail(c, fiber.StatusInternalServerError, err.Error())
	case errors.Is(err, service.ErrUsernameTaken):
		return detail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		return detail(c, fiber.StatusUnauthorized, err.Error())
	}

	logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	return detail(c, fiber.StatusInternalServerError, "Internal Server Error")
}
