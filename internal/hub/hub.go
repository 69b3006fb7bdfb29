// Package hub provides connection management and restaurant-topic
// fan-out for WebSocket dashboard clients.
package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/SeveN7Igor7/pedefacil/internal/logger"
)

// Connection represents a single WebSocket connection. A connection may
// be joined to zero or more restaurant topics at a time.
type Connection struct {
	ID     string
	Conn   *websocket.Conn
	Send   chan []byte
	topics map[int]bool // guarded by the hub mutex
	mu     sync.Mutex   // serializes writes to Conn
}

// Hub manages all WebSocket connections and topic membership.
type Hub struct {
	// Connections indexed by connection ID
	connections map[string]*Connection

	// Topics maps restaurant ID to the set of subscribed connection IDs
	topics map[int]map[string]bool

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *topicMessage

	mu  sync.RWMutex
	log *logrus.Entry
}

type topicMessage struct {
	restaurantID int
	data         []byte
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		connections: make(map[string]*Connection),
		topics:      make(map[int]map[string]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		broadcast:   make(chan *topicMessage, 256),
		log:         logger.New("hub"),
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.connections[conn.ID] = conn
			h.mu.Unlock()
			h.log.Infof("Connection registered: %s", conn.ID)

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.connections[conn.ID]; ok {
				delete(h.connections, conn.ID)
				for restaurantID := range conn.topics {
					h.dropMembership(conn, restaurantID)
				}
				close(conn.Send)
			}
			h.mu.Unlock()
			h.log.Infof("Connection unregistered: %s", conn.ID)

		case msg := <-h.broadcast:
			h.mu.RLock()
			for connID := range h.topics[msg.restaurantID] {
				conn, exists := h.connections[connID]
				if !exists {
					continue
				}
				select {
				case conn.Send <- msg.data:
				default:
					// Buffer full, close the connection
					h.log.Warnf("Connection %s buffer full, closing", connID)
					go h.Unregister(conn)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// NewConnection creates a new connection owned by the hub.
func (h *Hub) NewConnection(ws *websocket.Conn) *Connection {
	return &Connection{
		ID:     uuid.New().String(),
		Conn:   ws,
		Send:   make(chan []byte, 256),
		topics: make(map[int]bool),
	}
}

// Register registers a connection with the hub.
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister unregisters a connection, dropping all its topic
// memberships.
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// Join subscribes a connection to a restaurant's topic.
func (h *Hub) Join(conn *Connection, restaurantID int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.topics[restaurantID] = true
	if h.topics[restaurantID] == nil {
		h.topics[restaurantID] = make(map[string]bool)
	}
	h.topics[restaurantID][conn.ID] = true
	h.log.Infof("Connection %s joined restaurant %d", conn.ID, restaurantID)
}

// Leave removes a connection from a restaurant's topic. Leaving a topic
// the connection never joined is a no-op.
func (h *Hub) Leave(conn *Connection, restaurantID int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.dropMembership(conn, restaurantID)
	h.log.Infof("Connection %s left restaurant %d", conn.ID, restaurantID)
}

// dropMembership removes one membership. Caller must hold the mutex.
func (h *Hub) dropMembership(conn *Connection, restaurantID int) {
	delete(conn.topics, restaurantID)
	if h.topics[restaurantID] != nil {
		delete(h.topics[restaurantID], conn.ID)
		if len(h.topics[restaurantID]) == 0 {
			delete(h.topics, restaurantID)
		}
	}
}

// Broadcast sends a message to every connection subscribed to a
// restaurant's topic. Delivery order is FIFO per topic per connection.
func (h *Hub) Broadcast(restaurantID int, data []byte) {
	h.broadcast <- &topicMessage{
		restaurantID: restaurantID,
		data:         data,
	}
}

// BroadcastJSON sends a JSON message to a restaurant's topic.
func (h *Hub) BroadcastJSON(restaurantID int, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(restaurantID, data)
	return nil
}

// SendToConnection sends a message to a specific connection.
func (h *Hub) SendToConnection(conn *Connection, data []byte) error {
	select {
	case conn.Send <- data:
		return nil
	default:
		return ErrBufferFull
	}
}

// SendJSONToConnection sends a JSON message to a specific connection.
func (h *Hub) SendJSONToConnection(conn *Connection, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return h.SendToConnection(conn, data)
}

// GetConnectionCount returns the number of active connections.
func (h *Hub) GetConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// GetTopicCount returns the number of restaurant topics with at least
// one subscriber.
func (h *Hub) GetTopicCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics)
}

// HasSubscribers checks if a restaurant topic has any subscribers.
func (h *Hub) HasSubscribers(restaurantID int) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[restaurantID]) > 0
}

// WriteMessage writes a message to the connection with proper locking.
func (c *Connection) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(messageType, data)
}

// SetWriteDeadline sets the write deadline for the connection.
func (c *Connection) SetWriteDeadline(t time.Time) error {
	return c.Conn.SetWriteDeadline(t)
}

// SetReadDeadline sets the read deadline for the connection.
func (c *Connection) SetReadDeadline(t time.Time) error {
	return c.Conn.SetReadDeadline(t)
}

// Close closes the connection.
func (c *Connection) Close() error {
	return c.Conn.Close()
}

// ErrBufferFull is returned when the send buffer is full.
var ErrBufferFull = &BufferFullError{}

// BufferFullError represents a buffer full error.
type BufferFullError struct{}

func (e *BufferFullError) Error() string {
	return "send buffer full"
}
