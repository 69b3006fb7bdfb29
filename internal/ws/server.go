// Package ws provides the WebSocket endpoint for dashboard clients.
package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/SeveN7Igor7/pedefacil/internal/config"
	"github.com/SeveN7Igor7/pedefacil/internal/hub"
	"github.com/SeveN7Igor7/pedefacil/internal/logger"
	"github.com/SeveN7Igor7/pedefacil/internal/protocol"
)

// Server handles WebSocket connections.
type Server struct {
	cfg      *config.Config
	hub      *hub.Hub
	upgrader websocket.Upgrader
	log      *logrus.Entry
}

// NewServer creates a new WebSocket server.
func NewServer(cfg *config.Config, h *hub.Hub) *Server {
	return &Server{
		cfg: cfg,
		hub: h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Dashboards are served from other origins
				return true
			},
		},
		log: logger.New("ws"),
	}
}

// HandleWebSocket handles WebSocket upgrade and connection lifecycle.
func (s *Server) HandleWebSocket(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.log.Errorf("Failed to upgrade WebSocket: %v", err)
		return err
	}

	conn := s.hub.NewConnection(ws)
	s.hub.Register(conn)

	ws.SetReadLimit(s.cfg.MaxMessageSize)

	go s.writePump(conn)
	go s.readPump(conn)

	return nil
}

// readPump reads messages from the WebSocket connection.
func (s *Server) readPump(conn *hub.Connection) {
	defer func() {
		s.hub.Unregister(conn)
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	conn.Conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		return nil
	})

	for {
		_, message, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.Errorf("WebSocket error: %v", err)
			}
			break
		}

		s.handleMessage(conn, message)
	}
}

// writePump writes messages to the WebSocket connection.
func (s *Server) writePump(conn *hub.Connection) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if !ok {
				// Hub closed the channel
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.log.Errorf("Failed to write message: %v", err)
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage dispatches incoming client messages.
func (s *Server) handleMessage(conn *hub.Connection, data []byte) {
	var msg protocol.ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, "invalid JSON message")
		return
	}

	switch msg.Event {
	case protocol.EventJoinRestaurant:
		if msg.RestaurantID <= 0 {
			s.sendError(conn, "restaurantId is required")
			return
		}
		s.hub.Join(conn, msg.RestaurantID)
		s.hub.SendJSONToConnection(conn, protocol.ServerFrame{
			Event:        protocol.EventJoined,
			RestaurantID: msg.RestaurantID,
		})

	case protocol.EventLeaveRestaurant:
		if msg.RestaurantID <= 0 {
			s.sendError(conn, "restaurantId is required")
			return
		}
		s.hub.Leave(conn, msg.RestaurantID)
		s.hub.SendJSONToConnection(conn, protocol.ServerFrame{
			Event:        protocol.EventLeft,
			RestaurantID: msg.RestaurantID,
		})

	default:
		s.sendError(conn, "unknown event: "+msg.Event)
	}
}

// sendError sends an error frame to a connection.
func (s *Server) sendError(conn *hub.Connection, message string) {
	s.hub.SendJSONToConnection(conn, protocol.ServerFrame{
		Event:   protocol.EventError,
		Message: message,
	})
}
