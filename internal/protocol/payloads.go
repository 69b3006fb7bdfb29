package protocol

import "github.com/SeveN7Igor7/pedefacil/internal/domain"

// OrderStatusUpdateData is the payload of an ORDER_STATUS_UPDATE
// notification.
type OrderStatusUpdateData struct {
	Order     *domain.OrderSnapshot `json:"order"`
	OldStatus string                `json:"oldStatus"`
	NewStatus string                `json:"newStatus"`
}

// OrderDeletedData is the payload of an ORDER_DELETED notification.
// The order record itself is already gone, so only the identifiers
// travel.
type OrderDeletedData struct {
	OrderID      int `json:"orderId"`
	RestaurantID int `json:"restaurantId"`
}
