package domain

import "time"

// Sender identifies which side of a conversation wrote a message.
type Sender string

const (
	SenderCustomer   Sender = "customer"
	SenderRestaurant Sender = "restaurant"
)

// Valid reports whether s is one of the known sender tags.
func (s Sender) Valid() bool {
	return s == SenderCustomer || s == SenderRestaurant
}

// ChatMessage is a single persisted chat line. Append-only.
type ChatMessage struct {
	ID           int64     `json:"id"`
	CustomerID   int       `json:"customerId"`
	RestaurantID int       `json:"restaurantId"`
	Message      string    `json:"message"`
	Sender       Sender    `json:"sender"`
	CreatedAt    time.Time `json:"createdAt"`
}
