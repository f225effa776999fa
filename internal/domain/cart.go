package domain

import "time"

// CartItem is a product held in a shopping cart.
type CartItem struct {
	ProductID string
	Quantity  int64
	AddedAt   time.Time
}

// Cart is the single shopping cart of a user.
type Cart struct {
	ID        string
	UserID    string
	Items     []CartItem
	CreatedAt time.Time
	UpdatedAt time.Time
}
