package handler

import (
	"strconv"

	"go-receipts-api/internal/middleware"
	"go-receipts-api/internal/model"
	"go-receipts-api/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ReceiptHandler struct {
	service           service.ReceiptService
	defaultLineLength int
	logger            *zap.Logger
}

func NewReceiptHandler(s service.ReceiptService, defaultLineLength int, logger *zap.Logger) *ReceiptHandler {
	return &ReceiptHandler{service: s, defaultLineLength: defaultLineLength, logger: logger}
}

// CreateReceipt
// POST /api/receipts
func (h *ReceiptHandler) CreateReceipt(c *fiber.Ctx) error {
	var req service.CreateReceiptRequest
	if err := c.BodyParser(&req); err != nil {
		return unprocessable(c, "Invalid JSON")
	}

	receipt, err := h.service.CreateReceipt(&req, middleware.CurrentUser(c).ID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(receipt.ToResponse())
}

// GetReceipts lists the caller's receipts
// GET /api/receipts?created_from&created_to&min_total&max_total&payment_type&page&page_size
func (h *ReceiptHandler) GetReceipts(c *fiber.Ctx) error {
	filter, err := parseFilter(c)
	if err != nil {
		return unprocessable(c, err.Error())
	}
	page, err := parsePage(c)
	if err != nil {
		return unprocessable(c, err.Error())
	}

	receipts, err := h.service.ListReceipts(middleware.CurrentUser(c).ID, filter, page)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	data := make([]model.ReceiptResponse, len(receipts))
	for i := range receipts {
		data[i] = receipts[i].ToResponse()
	}
	return c.JSON(data)
}

// GetReceipt
// GET /api/receipts/:id
func (h *ReceiptHandler) GetReceipt(c *fiber.Ctx) error {
	id, err := receiptID(c)
	if err != nil {
		return unprocessable(c, "Invalid receipt ID")
	}

	receipt, err := h.service.GetReceipt(id, middleware.CurrentUser(c).ID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(receipt.ToResponse())
}

// GetPublicReceipt renders a receipt as plain text. No authentication.
// GET /api/receipts/public/:id?line_length=N
func (h *ReceiptHandler) GetPublicReceipt(c *fiber.Ctx) error {
	id, err := receiptID(c)
	if err != nil {
		return unprocessable(c, "Invalid receipt ID")
	}
	lineLength, err := queryInt(c, "line_length", h.defaultLineLength)
	if err != nil {
		return unprocessable(c, err.Error())
	}

	text, err := h.service.RenderPublic(id, lineLength)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(text)
}

func receiptID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
