package events

import (
	"time"

	"github.com/spec-kit/shop-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered  EventType = "user_registered"
	EventUserUpdated     EventType = "user_updated"
	EventUserDeleted     EventType = "user_deleted"
	EventProductCreated  EventType = "product_created"
	EventProductUpdated  EventType = "product_updated"
	EventProductDeleted  EventType = "product_deleted"
	EventOrderCreated    EventType = "order_created"
	EventOrderUpdated    EventType = "order_updated"
	EventOrderDeleted    EventType = "order_deleted"
	EventCartItemAdded   EventType = "cart_item_added"
	EventCartItemRemoved EventType = "cart_item_removed"
)

// Actor identifies who triggered an event. Empty for self-service registration.
type Actor struct {
	UserID string            `json:"user_id,omitempty"`
	Status domain.UserStatus `json:"status,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// UserUpdatedPayload lists the changed fields, never their values.
type UserUpdatedPayload struct {
	Fields          []string `json:"fields"`
	PasswordChanged bool     `json:"password_changed"`
}

// UserDeletedPayload payload.
type UserDeletedPayload struct {
	Identifier string `json:"identifier"`
}

// ProductPayload payload.
type ProductPayload struct {
	Name string `json:"name,omitempty"`
}

// OrderPayload payload.
type OrderPayload struct {
	UserID string             `json:"user_id"`
	Status domain.OrderStatus `json:"status,omitempty"`
	Items  int                `json:"items,omitempty"`
}

// CartItemPayload payload.
type CartItemPayload struct {
	CartID    string `json:"cart_id"`
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity,omitempty"`
}
