// Package chat tracks open customer/restaurant conversations and routes
// messages between the WhatsApp transport, the message store and the
// notification bus.
package chat

import (
	"sync"
	"time"

	"github.com/SeveN7Igor7/pedefacil/internal/domain"
)

// Registry is the in-memory table of open conversations, keyed by the
// (customer, restaurant) pair. It is owned by whoever constructs it and
// is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]domain.Session),
	}
}

// Open inserts or refreshes the session for the pair. Opening an
// already-open conversation replaces it with the fresh metadata.
func (r *Registry) Open(customer *domain.Customer, restaurant *domain.Restaurant) domain.Session {
	session := domain.Session{
		CustomerID:            customer.ID,
		RestaurantID:          restaurant.ID,
		CustomerName:          customer.FullName,
		CustomerPhone:         customer.Phone,
		CustomerWhatsappPhone: customer.WhatsappPhone,
		RestaurantName:        restaurant.Name,
		RestaurantPhone:       restaurant.Phone,
		StartedAt:             time.Now(),
	}

	r.mu.Lock()
	r.sessions[session.Key()] = session
	r.mu.Unlock()

	return session
}

// Close removes the session if present. Closing an absent session is a
// no-op.
func (r *Registry) Close(customerID, restaurantID int) {
	r.mu.Lock()
	delete(r.sessions, domain.SessionKey(customerID, restaurantID))
	r.mu.Unlock()
}

// IsOpen reports whether the pair has an open conversation.
func (r *Registry) IsOpen(customerID, restaurantID int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[domain.SessionKey(customerID, restaurantID)]
	return ok
}

// ListOpen returns a snapshot of all open sessions, order unspecified.
func (r *Registry) ListOpen() []domain.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// FindByCustomer returns every open session for a customer. One inbound
// message fans out to each of these.
func (r *Registry) FindByCustomer(customerID int) []domain.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Session
	for _, s := range r.sessions {
		if s.CustomerID == customerID {
			out = append(out, s)
		}
	}
	return out
}
