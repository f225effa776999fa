package dto

import (
	"time"

	"github.com/spec-kit/shop-service/internal/domain"
)

// CartItemRequest sets how many units to add; zero means one.
type CartItemRequest struct {
	Quantity int64 `json:"quantity"`
}

// CartItemResponse is one product held in a cart.
type CartItemResponse struct {
	ProductID string    `json:"productId"`
	Quantity  int64     `json:"quantity"`
	AddedAt   time.Time `json:"addedAt"`
}

// CartResponse is the public view of a shopping cart.
type CartResponse struct {
	CartID    string             `json:"cartId"`
	UserID    string             `json:"userId"`
	Items     []CartItemResponse `json:"items"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// NewCartResponse maps a domain cart.
func NewCartResponse(c *domain.Cart) CartResponse {
	items := make([]CartItemResponse, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, CartItemResponse{ProductID: item.ProductID, Quantity: item.Quantity, AddedAt: item.AddedAt})
	}
	return CartResponse{
		CartID:    c.ID,
		UserID:    c.UserID,
		Items:     items,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// NewCartListResponse maps a slice of domain carts.
func NewCartListResponse(carts []domain.Cart) []CartResponse {
	out := make([]CartResponse, 0, len(carts))
	for i := range carts {
		out = append(out, NewCartResponse(&carts[i]))
	}
	return out
}
