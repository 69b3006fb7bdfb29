package chat

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/SeveN7Igor7/pedefacil/internal/domain"
	"github.com/SeveN7Igor7/pedefacil/internal/logger"
	"github.com/SeveN7Igor7/pedefacil/internal/phone"
)

// CustomerStore resolves inbound addresses to customer records.
type CustomerStore interface {
	// FindCustomerByAnyAddress returns the first customer whose primary
	// or whatsapp-model phone matches any candidate, or nil when none do.
	FindCustomerByAnyAddress(ctx context.Context, candidates []string) (*domain.Customer, error)
}

// MessageStore persists chat messages.
type MessageStore interface {
	AppendMessage(ctx context.Context, msg *domain.ChatMessage) (*domain.ChatMessage, error)
}

// Notifier re-publishes persisted messages to the dashboards.
type Notifier interface {
	NotifyChatMessage(msg *domain.ChatMessage)
}

// Router maps a raw inbound phone-identified message to a customer and
// then to every open session for that customer. It is the single place
// translating between the transport's phone addressing and domain IDs.
type Router struct {
	registry  *Registry
	customers CustomerStore
	messages  MessageStore
	bus       Notifier
	log       *logrus.Entry
}

// NewRouter creates an inbound message router.
func NewRouter(registry *Registry, customers CustomerStore, messages MessageStore, bus Notifier) *Router {
	return &Router{
		registry:  registry,
		customers: customers,
		messages:  messages,
		bus:       bus,
		log:       logger.New("chat-router"),
	}
}

// HandleIncoming routes one inbound message. Messages from unknown
// numbers, or arriving outside any open session, are dropped from
// conversation routing. Persistence failures for one session never
// block the remaining sessions.
func (r *Router) HandleIncoming(ctx context.Context, rawAddress, text string) {
	candidates := phone.Candidates(rawAddress)

	customer, err := r.customers.FindCustomerByAnyAddress(ctx, candidates)
	if err != nil {
		r.log.Errorf("Customer lookup failed for %s: %v", rawAddress, err)
		return
	}
	if customer == nil {
		r.log.Infof("Inbound message from unknown number %s dropped (candidates: %v)", rawAddress, candidates)
		return
	}

	sessions := r.registry.FindByCustomer(customer.ID)
	if len(sessions) == 0 {
		r.log.Infof("Inbound message from customer %d outside any open session, dropped", customer.ID)
		return
	}

	for _, session := range sessions {
		stored, err := r.messages.AppendMessage(ctx, &domain.ChatMessage{
			CustomerID:   customer.ID,
			RestaurantID: session.RestaurantID,
			Message:      text,
			Sender:       domain.SenderCustomer,
		})
		if err != nil {
			r.log.Errorf("Failed to persist inbound message for session %s: %v", session.Key(), err)
			continue
		}
		r.bus.NotifyChatMessage(stored)
	}
}
