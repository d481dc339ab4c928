package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/agrovoz/internal/domain"
	"github.com/seu-repo/agrovoz/internal/observability/telemetry"
)

// Conn is the part of a websocket connection the handlers use.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type broadcast struct {
	farmID string
	data   []byte
}

// Hub forwards domain events to the websocket clients of the event's farm.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	broadcast  chan broadcast
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu  sync.RWMutex
	log *zap.Logger
}

type Client struct {
	hub  *Hub
	conn Conn
	// Buffered channel of outbound messages.
	send   chan []byte
	farmID string
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan broadcast),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		log:        log,
	}
}

// Run owns the client set until ctx is cancelled, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if client.farmID != message.farmID {
					continue
				}
				select {
				case client.send <- message.data:
				default:
					// Slow consumer.
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// HandleEvent is the event-bus listener that feeds the hub.
func (h *Hub) HandleEvent(ev domain.DomainEvent) error {
	data, err := json.Marshal(fiber.Map{"type": "event", "event": ev})
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- broadcast{farmID: ev.FarmID, data: data}:
	case <-h.done:
	}
	return nil
}

// ClientCount returns how many clients are connected.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Serve registers conn for farmID and blocks until the client goes away.
func (h *Hub) Serve(conn Conn, farmID string) {
	client := &Client{hub: h, conn: conn, send: make(chan []byte, 256), farmID: farmID}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}
	telemetry.WebsocketConnections.WithLabelValues("updates").Inc()
	defer telemetry.WebsocketConnections.WithLabelValues("updates").Dec()
	h.log.Debug("Updates client connected", zap.String("farm_id", farmID))

	go client.writePump()
	client.readPump()

	select {
	case h.unregister <- client:
	case <-h.done:
	}
	h.log.Debug("Updates client disconnected", zap.String("farm_id", farmID))
}

func (c *Client) readPump() {
	defer c.conn.Close()
	for {
		// The updates feed is push only; reading keeps ping/pong and close
		// frames flowing.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	// The hub closed the channel.
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
