// Package protocol defines the WebSocket message protocol between
// dashboard clients and the realtime service.
package protocol

import (
	"encoding/json"
	"time"
)

// Message events from client to server
const (
	EventJoinRestaurant  = "join-restaurant"
	EventLeaveRestaurant = "leave-restaurant"
)

// Message events from server to client
const (
	EventJoined             = "joined"
	EventLeft               = "left"
	EventOrderNotification  = "order-notification"
	EventChatNotification   = "chat-notification"
	EventCustomNotification = "custom-notification"
	EventError              = "error"
)

// Notification types carried inside an envelope. Anything outside this
// set is treated as a custom notification.
const (
	TypeNewOrder          = "NEW_ORDER"
	TypeOrderStatusUpdate = "ORDER_STATUS_UPDATE"
	TypeOrderAccepted     = "ORDER_ACCEPTED"
	TypeOrderDeleted      = "ORDER_DELETED"
	TypeNewChatMessage    = "NEW_CHAT_MESSAGE"
)

// ClientMessage is sent by a dashboard client to manage topic membership.
type ClientMessage struct {
	Event        string `json:"event"`
	RestaurantID int    `json:"restaurantId,omitempty"`
}

// Envelope is the typed, timestamped wrapper around a notification
// payload. Timestamp is ISO-8601.
type Envelope struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
}

// NewEnvelope builds an envelope around data, stamping it with the
// current time. Marshal failures are reported to the caller so a bad
// payload never reaches the wire half-encoded.
func NewEnvelope(notificationType string, data interface{}) (*Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		Type:      notificationType,
		Data:      raw,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// ServerFrame is the outer frame for every server-to-client message.
type ServerFrame struct {
	Event        string    `json:"event"`
	RestaurantID int       `json:"restaurantId,omitempty"`
	Notification *Envelope `json:"notification,omitempty"`
	Message      string    `json:"message,omitempty"`
}

// FrameEventFor maps a notification type to the server frame event it
// is delivered under.
func FrameEventFor(notificationType string) string {
	switch notificationType {
	case TypeNewOrder, TypeOrderStatusUpdate, TypeOrderAccepted, TypeOrderDeleted:
		return EventOrderNotification
	case TypeNewChatMessage:
		return EventChatNotification
	default:
		return EventCustomNotification
	}
}
