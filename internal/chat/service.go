package chat

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/SeveN7Igor7/pedefacil/internal/domain"
	"github.com/SeveN7Igor7/pedefacil/internal/logger"
)

// Store is the persistence surface the chat service depends on.
type Store interface {
	MessageStore
	GetCustomer(ctx context.Context, id int) (*domain.Customer, error)
	GetRestaurant(ctx context.Context, id int) (*domain.Restaurant, error)
	GetConversation(ctx context.Context, customerID, restaurantID int) ([]*domain.ChatMessage, error)
}

// OutboundSender delivers text to a customer's phone. Delivery is
// best-effort: false means not delivered, nothing more.
type OutboundSender interface {
	SendMessage(phoneNumber, text string) bool
}

// Service implements the chat control flow: start and end conversations,
// relay restaurant messages to the customer, and expose history.
type Service struct {
	registry *Registry
	store    Store
	whatsapp OutboundSender
	bus      Notifier
	log      *logrus.Entry
}

// NewService creates the chat service.
func NewService(registry *Registry, store Store, whatsapp OutboundSender, bus Notifier) *Service {
	return &Service{
		registry: registry,
		store:    store,
		whatsapp: whatsapp,
		bus:      bus,
		log:      logger.New("chat"),
	}
}

// Registry exposes the conversation registry for read-side handlers.
func (s *Service) Registry() *Registry {
	return s.registry
}

// StartChat opens a conversation and greets the customer over WhatsApp.
// Opening an already-open conversation refreshes it.
func (s *Service) StartChat(ctx context.Context, customerID, restaurantID int) (*domain.Session, error) {
	customer, err := s.store.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("load customer: %w", err)
	}
	if customer == nil {
		return nil, fmt.Errorf("customer %d not found", customerID)
	}

	restaurant, err := s.store.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("load restaurant: %w", err)
	}
	if restaurant == nil {
		return nil, fmt.Errorf("restaurant %d not found", restaurantID)
	}

	session := s.registry.Open(customer, restaurant)

	greeting := fmt.Sprintf(
		"🍽️ *%s*\n\nOlá, %s! Você está conectado ao atendimento do restaurante. Pode enviar sua mensagem por aqui que responderemos em instantes.",
		restaurant.Name, customer.FullName,
	)
	if !s.whatsapp.SendMessage(customer.Phone, greeting) {
		s.log.Warnf("Greeting not delivered to customer %d (%s)", customer.ID, customer.Phone)
	}

	return &session, nil
}

// EndChat closes a conversation and sends a farewell. Ending an absent
// conversation only sends nothing and succeeds.
func (s *Service) EndChat(ctx context.Context, customerID, restaurantID int) error {
	wasOpen := s.registry.IsOpen(customerID, restaurantID)
	s.registry.Close(customerID, restaurantID)

	if !wasOpen {
		return nil
	}

	customer, err := s.store.GetCustomer(ctx, customerID)
	if err != nil || customer == nil {
		s.log.Warnf("Skipping farewell for customer %d: %v", customerID, err)
		return nil
	}

	farewell := "✅ Atendimento encerrado. Obrigado pelo contato e volte sempre!"
	if !s.whatsapp.SendMessage(customer.Phone, farewell) {
		s.log.Warnf("Farewell not delivered to customer %d (%s)", customer.ID, customer.Phone)
	}
	return nil
}

// SendMessage relays a restaurant-side message: persists it, forwards it
// to the customer over WhatsApp (best-effort) and re-publishes it so
// dashboards see it live.
func (s *Service) SendMessage(ctx context.Context, customerID, restaurantID int, text string) (*domain.ChatMessage, error) {
	if text == "" {
		return nil, fmt.Errorf("message must not be empty")
	}

	customer, err := s.store.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("load customer: %w", err)
	}
	if customer == nil {
		return nil, fmt.Errorf("customer %d not found", customerID)
	}

	stored, err := s.store.AppendMessage(ctx, &domain.ChatMessage{
		CustomerID:   customerID,
		RestaurantID: restaurantID,
		Message:      text,
		Sender:       domain.SenderRestaurant,
	})
	if err != nil {
		return nil, fmt.Errorf("persist message: %w", err)
	}

	if !s.whatsapp.SendMessage(customer.Phone, text) {
		s.log.Warnf("Message %d not delivered over WhatsApp to customer %d", stored.ID, customerID)
	}

	s.bus.NotifyChatMessage(stored)
	return stored, nil
}

// History returns the full conversation, oldest first.
func (s *Service) History(ctx context.Context, customerID, restaurantID int) ([]*domain.ChatMessage, error) {
	return s.store.GetConversation(ctx, customerID, restaurantID)
}

// ActiveSessions returns a snapshot of all open conversations.
func (s *Service) ActiveSessions() []domain.Session {
	return s.registry.ListOpen()
}

// IsSessionActive reports whether the pair has an open conversation.
func (s *Service) IsSessionActive(customerID, restaurantID int) bool {
	return s.registry.IsOpen(customerID, restaurantID)
}
