package handler

import (
	"go-receipts-api/internal/middleware"
	"go-receipts-api/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	service service.ReceiptService
	logger  *zap.Logger
}

func NewDashboardHandler(s service.ReceiptService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{service: s, logger: logger}
}

// GetSummary returns receipt counts and totals per payment type.
// Accepts the same filter parameters as the receipt list.
// GET /api/receipts/summary
func (h *DashboardHandler) GetSummary(c *fiber.Ctx) error {
	filter, err := parseFilter(c)
	if err != nil {
		return unprocessable(c, err.Error())
	}

	summary, err := h.service.Summarize(middleware.CurrentUser(c).ID, filter)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(summary)
}
