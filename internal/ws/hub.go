package ws

import (
	"context"
	"encoding/json"
	"sync"

	"go-inventory-ledger/internal/events"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

// Conn is the part of *websocket.Conn the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Hub fans committed stock movements out to every connected client.
type Hub struct {
	Clients    map[Conn]bool
	Register   chan Conn
	Unregister chan Conn
	Broadcast  chan []byte
	done       chan struct{}
	mutex      sync.Mutex
	logger     *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		Clients:    make(map[Conn]bool),
		Register:   make(chan Conn),
		Unregister: make(chan Conn),
		Broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		logger:     logger.Named("ws"),
	}
}

// Run serves the hub until ctx ends, then closes every client. Call it once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for conn := range h.Clients {
				conn.Close()
				delete(h.Clients, conn)
			}
			h.mutex.Unlock()
			return

		case conn := <-h.Register:
			h.mutex.Lock()
			h.Clients[conn] = true
			h.mutex.Unlock()
			h.logger.Debug("New WS Client Connected", zap.Int("clients", h.ClientCount()))

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[conn]; ok {
				delete(h.Clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.Broadcast:
			h.mutex.Lock()
			for conn := range h.Clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					delete(h.Clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.Clients)
}

// Publish queues a movement for broadcast. It never blocks the ledger: when the
// buffer is full the message is dropped.
func (h *Hub) Publish(ctx context.Context, event events.MovementEvent) {
	msg, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to encode movement event", zap.Error(err))
		return
	}
	select {
	case h.Broadcast <- msg:
	default:
		h.logger.Warn("WS broadcast buffer full, dropping event",
			zap.String("transaction_id", event.TransactionID.String()))
	}
}

// Join registers a client. After Run has returned it closes the client instead
// and reports false.
func (h *Hub) Join(c Conn) bool {
	select {
	case h.Register <- c:
		return true
	case <-h.done:
		c.Close()
		return false
	}
}

// Leave unregisters a client. It returns immediately once Run has returned,
// since shutdown already closed every client.
func (h *Hub) Leave(c Conn) {
	select {
	case h.Unregister <- c:
	case <-h.done:
	}
}

// Handler keeps a client registered until it disconnects. Clients only listen.
func (h *Hub) Handler() func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		if !h.Join(c) {
			return
		}
		defer h.Leave(c)

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}
}
