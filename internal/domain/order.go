package domain

import "time"

// OrderStatus tracks an order through fulfilment.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// OrderItem is one product line of an order.
type OrderItem struct {
	ProductID string
	Quantity  int64
}

// Order is a purchase placed by a user.
type Order struct {
	ID              string
	UserID          string
	Status          OrderStatus
	ShippingAddress string
	Items           []OrderItem
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderPatch carries a partial order update.
type OrderPatch struct {
	Status          *OrderStatus
	ShippingAddress *string
}

// Empty reports whether the patch changes nothing.
func (p OrderPatch) Empty() bool {
	return p.Status == nil && p.ShippingAddress == nil
}
