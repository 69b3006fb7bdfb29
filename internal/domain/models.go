package domain

import "time"

// Customer is a customer record as stored by the customer store.
// Phone is the canonical digits-only number; WhatsappPhone is the
// alternate delivery-format variant (without the extra ninth digit).
type Customer struct {
	ID            int    `json:"id"`
	FullName      string `json:"fullName"`
	Phone         string `json:"phone"`
	WhatsappPhone string `json:"modeloWhatsapp,omitempty"`
}

// Restaurant is the subset of a restaurant record the realtime layer needs.
type Restaurant struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// OrderItem is one line of an order snapshot.
type OrderItem struct {
	Quantity int     `json:"quantity"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
}

// OrderSnapshot is the denormalized order view carried inside order
// notifications and customer-facing status messages. The CRUD layer owns
// the order record itself; this is what it hands over when publishing.
type OrderSnapshot struct {
	ID                  int         `json:"id"`
	RestaurantID        int         `json:"restaurantId"`
	CustomerID          int         `json:"customerId"`
	Status              string      `json:"status"`
	OrderType           string      `json:"orderType,omitempty"`
	MethodType          string      `json:"methodType,omitempty"`
	Total               float64     `json:"total"`
	TableNumber         int         `json:"tableNumber,omitempty"`
	AddressStreet       string      `json:"addressStreet,omitempty"`
	AddressNumber       string      `json:"addressNumber,omitempty"`
	AddressNeighborhood string      `json:"addressNeighborhood,omitempty"`
	AddressCep          string      `json:"addressCep,omitempty"`
	AddressComplement   string      `json:"addressComplement,omitempty"`
	AdditionalInfo      string      `json:"additionalInfo,omitempty"`
	CustomerName        string      `json:"customerName,omitempty"`
	CustomerPhone       string      `json:"customerPhone,omitempty"`
	RestaurantName      string      `json:"restaurantName,omitempty"`
	RestaurantPhone     string      `json:"restaurantPhone,omitempty"`
	Items               []OrderItem `json:"items,omitempty"`
	CreatedAt           time.Time   `json:"createdAt"`
}
