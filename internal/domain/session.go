package domain

import (
	"fmt"
	"time"
)

// Session is an open conversation between one customer and one restaurant.
// There is at most one session per (customer, restaurant) pair at any time.
type Session struct {
	CustomerID            int       `json:"customerId"`
	RestaurantID          int       `json:"restaurantId"`
	CustomerName          string    `json:"customerName"`
	CustomerPhone         string    `json:"customerPhone"`
	CustomerWhatsappPhone string    `json:"customerWhatsappPhone,omitempty"`
	RestaurantName        string    `json:"restaurantName"`
	RestaurantPhone       string    `json:"restaurantPhone"`
	StartedAt             time.Time `json:"startedAt"`
}

// Key returns the composite session key.
func (s *Session) Key() string {
	return SessionKey(s.CustomerID, s.RestaurantID)
}

// SessionKey renders the (customer, restaurant) pair as a single map key.
func SessionKey(customerID, restaurantID int) string {
	return fmt.Sprintf("%d-%d", customerID, restaurantID)
}
