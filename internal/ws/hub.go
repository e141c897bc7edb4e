package ws

import (
	"sync"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one live connection owned by a user.
type Client struct {
	UserID uint
	Conn   Conn
}

// Message is a payload addressed to every connection of one user.
type Message struct {
	UserID  uint
	Payload []byte
}

type Hub struct {
	Clients    map[uint]map[Conn]struct{}
	Register   chan Client
	Unregister chan Client
	Broadcast  chan Message
	mutex      sync.Mutex
	logger     *zap.Logger
	done       chan struct{}
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		Clients:    make(map[uint]map[Conn]struct{}),
		Register:   make(chan Client),
		Unregister: make(chan Client),
		Broadcast:  make(chan Message),
		logger:     logger,
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mutex.Lock()
			conns, ok := h.Clients[client.UserID]
			if !ok {
				conns = make(map[Conn]struct{})
				h.Clients[client.UserID] = conns
			}
			conns[client.Conn] = struct{}{}
			h.mutex.Unlock()
			h.logger.Info("ws client connected", zap.Uint("user_id", client.UserID))

		case client := <-h.Unregister:
			h.mutex.Lock()
			if h.remove(client.UserID, client.Conn) {
				client.Conn.Close()
			}
			h.mutex.Unlock()
			h.logger.Debug("ws client disconnected", zap.Uint("user_id", client.UserID))

		case msg := <-h.Broadcast:
			h.mutex.Lock()
			for conn := range h.Clients[msg.UserID] {
				if err := conn.WriteMessage(websocket.TextMessage, msg.Payload); err != nil {
					h.logger.Debug("ws write failed", zap.Uint("user_id", msg.UserID), zap.Error(err))
					conn.Close()
					h.remove(msg.UserID, conn)
				}
			}
			h.mutex.Unlock()

		case <-h.done:
			h.mutex.Lock()
			for _, conns := range h.Clients {
				for conn := range conns {
					conn.Close()
				}
			}
			h.Clients = make(map[uint]map[Conn]struct{})
			h.mutex.Unlock()
			return
		}
	}
}

// Stop closes every connection and ends Run.
func (h *Hub) Stop() {
	close(h.done)
}

// Join registers client. It returns at once when the hub has stopped.
func (h *Hub) Join(client Client) {
	select {
	case h.Register <- client:
	case <-h.done:
		client.Conn.Close()
	}
}

// Leave unregisters client. It returns at once when the hub has stopped,
// since Run has already closed every connection by then.
func (h *Hub) Leave(client Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

// Publish queues payload for the connections of userID without blocking the caller.
func (h *Hub) Publish(userID uint, payload []byte) {
	go func() {
		select {
		case h.Broadcast <- Message{UserID: userID, Payload: payload}:
		case <-h.done:
		}
	}()
}

// ClientCount reports how many connections userID currently holds.
func (h *Hub) ClientCount(userID uint) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.Clients[userID])
}

// remove must be called with the mutex held.
func (h *Hub) remove(userID uint, conn Conn) bool {
	conns, ok := h.Clients[userID]
	if !ok {
		return false
	}
	if _, ok := conns[conn]; !ok {
		return false
	}
	delete(conns, conn)
	if len(conns) == 0 {
		delete(h.Clients, userID)
	}
	return true
}
