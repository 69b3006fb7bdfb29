// Package notify is the broadcast service that pushes order and chat
// events to connected restaurant dashboards.
package notify

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/SeveN7Igor7/pedefacil/internal/domain"
	"github.com/SeveN7Igor7/pedefacil/internal/logger"
	"github.com/SeveN7Igor7/pedefacil/internal/protocol"
)

// Broadcaster delivers frames to every subscriber of a restaurant topic.
type Broadcaster interface {
	BroadcastJSON(restaurantID int, v interface{}) error
	HasSubscribers(restaurantID int) bool
}

// Sink receives a copy of every published envelope, for consumers
// outside the WebSocket fan-out. Optional.
type Sink interface {
	Publish(exchange string, body []byte) error
}

// Service builds notification envelopes and fans them out to dashboard
// clients by restaurant topic.
type Service struct {
	hub  Broadcaster
	sink Sink // may be nil
	log  *logrus.Entry
}

// New creates the notification service. sink may be nil.
func New(h Broadcaster, sink Sink) *Service {
	return &Service{
		hub:  h,
		sink: sink,
		log:  logger.New("notify"),
	}
}

// Publish builds an envelope for the given notification type and
// delivers it to the restaurant's topic. Publishing to a topic with no
// subscribers is a no-op, not an error. Delivery is best-effort: no
// failure here ever reaches the caller's business operation.
func (s *Service) Publish(restaurantID int, notificationType string, data interface{}) {
	env, err := protocol.NewEnvelope(notificationType, data)
	if err != nil {
		s.log.Errorf("Failed to encode %s notification for restaurant %d: %v", notificationType, restaurantID, err)
		return
	}

	frame := protocol.ServerFrame{
		Event:        protocol.FrameEventFor(notificationType),
		Notification: env,
	}
	if err := s.hub.BroadcastJSON(restaurantID, frame); err != nil {
		s.log.Errorf("Failed to broadcast %s to restaurant %d: %v", notificationType, restaurantID, err)
	} else {
		s.log.Infof("Notification %s sent to restaurant %d (subscribers: %v)",
			notificationType, restaurantID, s.hub.HasSubscribers(restaurantID))
	}

	s.publishToSink(restaurantID, env)
}

// NotifyNewOrder announces a freshly created order.
func (s *Service) NotifyNewOrder(order *domain.OrderSnapshot) {
	s.Publish(order.RestaurantID, protocol.TypeNewOrder, order)
}

// NotifyOrderStatusUpdate announces an order status transition.
func (s *Service) NotifyOrderStatusUpdate(order *domain.OrderSnapshot, oldStatus, newStatus string) {
	s.Publish(order.RestaurantID, protocol.TypeOrderStatusUpdate, protocol.OrderStatusUpdateData{
		Order:     order,
		OldStatus: oldStatus,
		NewStatus: newStatus,
	})
}

// NotifyOrderAccepted announces that the restaurant accepted an order.
func (s *Service) NotifyOrderAccepted(order *domain.OrderSnapshot) {
	s.Publish(order.RestaurantID, protocol.TypeOrderAccepted, order)
}

// NotifyOrderDeleted announces a cancelled or deleted order. Only the
// identifiers travel; the record itself is already gone.
func (s *Service) NotifyOrderDeleted(orderID, restaurantID int) {
	s.Publish(restaurantID, protocol.TypeOrderDeleted, protocol.OrderDeletedData{
		OrderID:      orderID,
		RestaurantID: restaurantID,
	})
}

// NotifyChatMessage announces a new chat message.
func (s *Service) NotifyChatMessage(msg *domain.ChatMessage) {
	s.Publish(msg.RestaurantID, protocol.TypeNewChatMessage, msg)
}

// publishToSink forwards the envelope to the configured sink. Sink
// failures are logged and swallowed.
func (s *Service) publishToSink(restaurantID int, env *protocol.Envelope) {
	if s.sink == nil {
		return
	}
	body, err := json.Marshal(env)
	if err != nil {
		s.log.Errorf("Failed to encode envelope for sink: %v", err)
		return
	}
	exchange := fmt.Sprintf("pedefacil.notifications.%d", restaurantID)
	if err := s.sink.Publish(exchange, body); err != nil {
		s.log.Errorf("Failed to publish %s to sink exchange %s: %v", env.Type, exchange, err)
	}
}
