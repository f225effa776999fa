package dto

import (
	"time"

	"github.com/spec-kit/shop-service/internal/domain"
)

// OrderItemRequest is one product line of a new order.
type OrderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

// OrderCreateRequest places an order. UserID is only honored for admins.
type OrderCreateRequest struct {
	UserID          string             `json:"userId"`
	ShippingAddress string             `json:"shippingAddress"`
	Items           []OrderItemRequest `json:"items"`
}

// OrderUpdateRequest is a partial update.
type OrderUpdateRequest struct {
	Status          *string `json:"status"`
	ShippingAddress *string `json:"shippingAddress"`
}

// OrderItemResponse is one product line.
type OrderItemResponse struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

// OrderResponse is the public view of an order.
type OrderResponse struct {
	OrderID         string              `json:"orderId"`
	UserID          string              `json:"userId"`
	Status          string              `json:"status"`
	ShippingAddress string              `json:"shippingAddress"`
	Items           []OrderItemResponse `json:"items"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

// NewOrderResponse maps a domain order.
func NewOrderResponse(o *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemResponse{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return OrderResponse{
		OrderID:         o.ID,
		UserID:          o.UserID,
		Status:          string(o.Status),
		ShippingAddress: o.ShippingAddress,
		Items:           items,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

// NewOrderListResponse maps a slice of domain orders.
func NewOrderListResponse(orders []domain.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, NewOrderResponse(&orders[i]))
	}
	return out
}
