package handler

import (
	"go-receipts-api/internal/middleware"
	"go-receipts-api/internal/service"
	"go-receipts-api/internal/ws"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Deps are the collaborators the route table is built from.
type Deps struct {
	AuthService       service.AuthService
	ReceiptService    service.ReceiptService
	Hub               *ws.Hub
	DefaultLineLength int
	Logger            *zap.Logger
}

// SetupRoutes mounts every endpoint on app.
func SetupRoutes(app *fiber.App, deps Deps) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	authHandler := NewAuthHandler(deps.AuthService, logger)
	userHandler := NewUserHandler()
	receiptHandler := NewReceiptHandler(deps.ReceiptService, deps.DefaultLineLength, logger)
	dashHandler := NewDashboardHandler(deps.ReceiptService, logger)

	api := app.Group("/api")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	api.Get("/receipts/public/:id", receiptHandler.GetPublicReceipt)

	// ============ PROTECTED ROUTES ============
	requireAuth := middleware.RequireAuth(deps.AuthService)

	api.Get("/users/me", requireAuth, userHandler.Me)

	receipts := api.Group("/receipts", requireAuth)
	receipts.Post("/", receiptHandler.CreateReceipt)
	receipts.Get("/", receiptHandler.GetReceipts)
	receipts.Get("/summary", dashHandler.GetSummary)
	receipts.Get("/:id", receiptHandler.GetReceipt)

	// WebSocket Route
	if deps.Hub != nil {
		wsHandler := NewWSHandler(deps.Hub, deps.AuthService)
		app.Get("/ws", wsHandler.Upgrade, wsHandler.Serve())
	}
}
