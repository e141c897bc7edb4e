package handler

import (
	"go-receipts-api/internal/middleware"
	"go-receipts-api/internal/service"
	"go-receipts-api/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type WSHandler struct {
	hub         *ws.Hub
	authService service.AuthService
}

func NewWSHandler(hub *ws.Hub, authService service.AuthService) *WSHandler {
	return &WSHandler{hub: hub, authService: authService}
}

// Upgrade authenticates the ?token= query parameter before switching protocols.
// Browsers cannot set headers on a websocket handshake.
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.SendStatus(fiber.StatusUpgradeRequired)
	}

	token := c.Query("token")
	if token == "" {
		return detail(c, fiber.StatusUnauthorized, "Not authenticated")
	}
	user, err := h.authService.Authenticate(token)
	if err != nil {
		return detail(c, fiber.StatusUnauthorized, "Invalid or expired token")
	}

	middleware.SetUser(c, user)
	return c.Next()
}

// Serve keeps the connection registered with the hub until the client goes away.
func (h *WSHandler) Serve() fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		userID, _ := c.Locals(middleware.LocalUserID).(uint)
		client := ws.Client{UserID: userID, Conn: c}

		h.hub.Join(client)
		defer h.hub.Leave(client)

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	})
}
