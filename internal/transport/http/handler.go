// Package http provides the REST surface for the realtime layer: chat
// session control flow, WhatsApp connection management and the internal
// notification endpoint the CRUD layer publishes through.
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/SeveN7Igor7/pedefacil/internal/chat"
	"github.com/SeveN7Igor7/pedefacil/internal/hub"
	"github.com/SeveN7Igor7/pedefacil/internal/notify"
	"github.com/SeveN7Igor7/pedefacil/internal/whatsapp"
)

// Handler holds the HTTP handlers.
type Handler struct {
	chat     *chat.Service
	whatsapp *whatsapp.Adapter
	notify   *notify.Service
	hub      *hub.Hub
}

// NewHandler creates a new handler.
func NewHandler(chatSvc *chat.Service, wa *whatsapp.Adapter, notifySvc *notify.Service, h *hub.Hub) *Handler {
	return &Handler{
		chat:     chatSvc,
		whatsapp: wa,
		notify:   notifySvc,
		hub:      h,
	}
}

// RegisterRoutes registers all routes on the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	api := e.Group("/api")

	chatGroup := api.Group("/chat")
	chatGroup.POST("/start", h.StartChat)
	chatGroup.POST("/end", h.EndChat)
	chatGroup.POST("/send", h.SendChatMessage)
	chatGroup.GET("/history/:customerId/:restaurantId", h.ChatHistory)
	chatGroup.GET("/sessions", h.ActiveSessions)
	chatGroup.GET("/status/:customerId/:restaurantId", h.SessionStatus)

	waGroup := api.Group("/whatsapp")
	waGroup.GET("/status", h.WhatsappStatus)
	waGroup.POST("/reconnect", h.WhatsappReconnect)
	waGroup.POST("/disconnect", h.WhatsappDisconnect)
	waGroup.POST("/test", h.WhatsappTestMessage)

	e.POST("/internal/notify", h.InternalNotify)
}

// Health reports liveness and fan-out stats.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "healthy",
		"connections": h.hub.GetConnectionCount(),
		"topics":      h.hub.GetTopicCount(),
		"sessions":    len(h.chat.ActiveSessions()),
	})
}

type chatPairRequest struct {
	CustomerID   int `json:"customerId"`
	RestaurantID int `json:"restaurantId"`
}

// StartChat opens a conversation.
// POST /api/chat/start
func (h *Handler) StartChat(c echo.Context) error {
	var req chatPairRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
	}
	if req.CustomerID <= 0 || req.RestaurantID <= 0 {
		return c.JSON(http.StatusBadRequest, errorBody("customerId and restaurantId are required"))
	}

	session, err := h.chat.StartChat(c.Request().Context(), req.CustomerID, req.RestaurantID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(err.Error()))
	}
	return c.JSON(http.StatusCreated, successBody(session))
}

// EndChat closes a conversation.
// POST /api/chat/end
func (h *Handler) EndChat(c echo.Context) error {
	var req chatPairRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
	}
	if req.CustomerID <= 0 || req.RestaurantID <= 0 {
		return c.JSON(http.StatusBadRequest, errorBody("customerId and restaurantId are required"))
	}

	if err := h.chat.EndChat(c.Request().Context(), req.CustomerID, req.RestaurantID); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(err.Error()))
	}
	return c.JSON(http.StatusOK, successBody(map[string]interface{}{
		"customerId":   req.CustomerID,
		"restaurantId": req.RestaurantID,
	}))
}

type sendMessageRequest struct {
	CustomerID   int    `json:"customerId"`
	RestaurantID int    `json:"restaurantId"`
	Message      string `json:"message"`
}

// SendChatMessage relays a restaurant-side message to the customer.
// POST /api/chat/send
func (h *Handler) SendChatMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
	}
	if req.CustomerID <= 0 || req.RestaurantID <= 0 || req.Message == "" {
		return c.JSON(http.StatusBadRequest, errorBody("customerId, restaurantId and message are required"))
	}

	msg, err := h.chat.SendMessage(c.Request().Context(), req.CustomerID, req.RestaurantID, req.Message)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(err.Error()))
	}
	return c.JSON(http.StatusOK, successBody(msg))
}

// ChatHistory returns the conversation for a pair, oldest first.
// GET /api/chat/history/:customerId/:restaurantId
func (h *Handler) ChatHistory(c echo.Context) error {
	customerID, restaurantID, err := pairParams(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(err.Error()))
	}

	history, err := h.chat.History(c.Request().Context(), customerID, restaurantID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorBody(err.Error()))
	}
	return c.JSON(http.StatusOK, successBody(history))
}

// ActiveSessions lists all open conversations.
// GET /api/chat/sessions
func (h *Handler) ActiveSessions(c echo.Context) error {
	return c.JSON(http.StatusOK, successBody(h.chat.ActiveSessions()))
}

// SessionStatus reports whether a conversation is open.
// GET /api/chat/status/:customerId/:restaurantId
func (h *Handler) SessionStatus(c echo.Context) error {
	customerID, restaurantID, err := pairParams(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(err.Error()))
	}

	return c.JSON(http.StatusOK, successBody(map[string]interface{}{
		"isActive":     h.chat.IsSessionActive(customerID, restaurantID),
		"customerId":   customerID,
		"restaurantId": restaurantID,
	}))
}

// WhatsappStatus reports the adapter connection status.
// GET /api/whatsapp/status
func (h *Handler) WhatsappStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, successBody(h.whatsapp.GetStatus()))
}

// WhatsappReconnect forces a new connection attempt.
// POST /api/whatsapp/reconnect
func (h *Handler) WhatsappReconnect(c echo.Context) error {
	h.whatsapp.Initialize()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Reconnection attempt started. Check the logs for a QR code if required.",
	})
}

// WhatsappDisconnect logs the adapter out.
// POST /api/whatsapp/disconnect
func (h *Handler) WhatsappDisconnect(c echo.Context) error {
	h.whatsapp.Disconnect()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "WhatsApp disconnected",
	})
}

type testMessageRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// WhatsappTestMessage sends a test message to a phone number.
// POST /api/whatsapp/test
func (h *Handler) WhatsappTestMessage(c echo.Context) error {
	var req testMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
	}
	if req.Phone == "" || req.Message == "" {
		return c.JSON(http.StatusBadRequest, errorBody("phone and message are required"))
	}

	if !h.whatsapp.SendMessage(req.Phone, req.Message) {
		return c.JSON(http.StatusBadRequest, errorBody("WhatsApp not connected or message delivery failed"))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Test message sent",
	})
}

type notifyRequest struct {
	RestaurantID int         `json:"restaurantId"`
	Type         string      `json:"type"`
	Data         interface{} `json:"data"`
}

// InternalNotify lets the CRUD layer publish an event to a restaurant's
// topic. Publish is best-effort; this endpoint only fails on malformed
// requests.
// POST /internal/notify
func (h *Handler) InternalNotify(c echo.Context) error {
	var req notifyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
	}
	if req.RestaurantID <= 0 {
		return c.JSON(http.StatusBadRequest, errorBody("restaurantId is required"))
	}
	if req.Type == "" {
		return c.JSON(http.StatusBadRequest, errorBody("type is required"))
	}

	h.notify.Publish(req.RestaurantID, req.Type, req.Data)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"ok":        true,
		"delivered": h.hub.HasSubscribers(req.RestaurantID),
	})
}

func pairParams(c echo.Context) (int, int, error) {
	customerID, err := strconv.Atoi(c.Param("customerId"))
	if err != nil || customerID <= 0 {
		return 0, 0, errors.New("invalid customerId")
	}
	restaurantID, err := strconv.Atoi(c.Param("restaurantId"))
	if err != nil || restaurantID <= 0 {
		return 0, 0, errors.New("invalid restaurantId")
	}
	return customerID, restaurantID, nil
}

func successBody(data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"success": true,
		"data":    data,
	}
}

func errorBody(message string) map[string]string {
	return map[string]string{"error": message}
}
