package service

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/shop-service/internal/auth"
	"github.com/spec-kit/shop-service/internal/domain"
	"github.com/spec-kit/shop-service/internal/events"
	"github.com/spec-kit/shop-service/internal/repository"
	apperrors "github.com/spec-kit/shop-service/pkg/util/errorutil"
)

// OrderItemInput is one requested product line.
type OrderItemInput struct {
	ProductID string
	Quantity  int64
}

// CreateOrderInput places an order. An empty UserID means the caller.
type CreateOrderInput struct {
	UserID          string
	ShippingAddress string
	Items           []OrderItemInput
}

// UpdateOrderInput is a partial update; nil fields are left untouched.
type UpdateOrderInput struct {
	Status          *string
	ShippingAddress *string
}

// OrderService places and manages orders.
type OrderService struct {
	orders     repository.OrderRepository
	products   repository.ProductRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewOrderService builds the service.
func NewOrderService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	users repository.UserRepository,
	dispatcher events.Dispatcher,
	logger *zap.Logger,
) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{orders: orders, products: products, users: users, dispatcher: dispatcher, logger: logger}
}

// List returns every order.
func (s *OrderService) List(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.orders.List(ctx, repository.OrderFilter{})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return orders, nil
}

// ListForUser returns the orders placed for one account.
func (s *OrderService) ListForUser(ctx context.Context, userID string) ([]domain.Order, error) {
	if err := s.userExists(ctx, userID); err != nil {
		return nil, err
	}
	orders, err := s.orders.List(ctx, repository.OrderFilter{UserID: &userID})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return orders, nil
}

// Create places a pending order. Only admins may order on behalf of another account.
func (s *OrderService) Create(ctx context.Context, actor *auth.Principal, in CreateOrderInput) (*domain.Order, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	target := strings.TrimSpace(in.UserID)
	if target == "" {
		target = actor.UserID
	}
	if target != actor.UserID {
		if !actor.IsAdmin() {
			return nil, apperrors.NewForbidden("cannot place orders for another user")
		}
		if err := s.userExists(ctx, target); err != nil {
			return nil, err
		}
	}

	address := strings.TrimSpace(in.ShippingAddress)
	if address == "" {
		return nil, apperrors.NewValidationError("shippingAddress is required", map[string]any{"field": "shippingAddress"})
	}
	items, err := s.orderItems(ctx, in.Items)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		ID:              uuid.NewString(),
		UserID:          target,
		Status:          domain.OrderStatusPending,
		ShippingAddress: address,
		Items:           items,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, mapStoreError(err, "order")
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventOrderCreated,
		SubjectID: order.ID,
		Actor:     actorOf(actor),
		Payload:   events.OrderPayload{UserID: order.UserID, Status: order.Status, Items: len(order.Items)},
	})
	return order, nil
}

// Update changes an order. Owners may only edit or cancel their pending orders;
// admins may set any status.
func (s *OrderService) Update(ctx context.Context, actor *auth.Principal, id string, in UpdateOrderInput) (*domain.Order, error) {
	order, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	patch := domain.OrderPatch{ShippingAddress: nonEmpty(in.ShippingAddress)}
	if in.Status != nil {
		status := domain.OrderStatus(strings.ToLower(strings.TrimSpace(*in.Status)))
		if !status.Valid() {
			return nil, apperrors.NewValidationError("status is invalid", map[string]any{"field": "status"})
		}
		patch.Status = &status
	}
	if patch.Empty() {
		return nil, apperrors.NewValidationError("no fields provided for update", nil)
	}
	if !actor.IsAdmin() {
		if order.Status != domain.OrderStatusPending {
			return nil, apperrors.NewDomainError("ORDER_NOT_PENDING", "only pending orders can be changed", http.StatusBadRequest, nil)
		}
		if patch.Status != nil && *patch.Status != domain.OrderStatusCancelled {
			return nil, apperrors.NewForbidden("only admins may advance an order")
		}
	}

	affected, err := s.orders.UpdateFields(ctx, id, patch)
	if err != nil {
		return nil, mapStoreError(err, "order")
	}
	if affected == 0 {
		return nil, apperrors.NewNotFound("order", nil)
	}
	updated, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "order")
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventOrderUpdated,
		SubjectID: id,
		Actor:     actorOf(actor),
		Payload:   events.OrderPayload{UserID: updated.UserID, Status: updated.Status},
	})
	return updated, nil
}

// Delete removes an order owned by the caller, or any order for admins.
func (s *OrderService) Delete(ctx context.Context, actor *auth.Principal, id string) error {
	order, err := s.owned(ctx, actor, id)
	if err != nil {
		return err
	}
	affected, err := s.orders.Delete(ctx, id)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if affected == 0 {
		return apperrors.NewNotFound("order", nil)
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventOrderDeleted,
		SubjectID: id,
		Actor:     actorOf(actor),
		Payload:   events.OrderPayload{UserID: order.UserID},
	})
	return nil
}

func (s *OrderService) owned(ctx context.Context, actor *auth.Principal, id string) (*domain.Order, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if !validID(id) {
		return nil, apperrors.NewNotFound("order", nil)
	}
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "order")
	}
	if order.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("order belongs to another user")
	}
	return order, nil
}

func (s *OrderService) userExists(ctx context.Context, userID string) error {
	if !validID(userID) {
		return apperrors.NewNotFound("user", nil)
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return mapStoreError(err, "user")
	}
	return nil
}

// orderItems merges repeated products and checks that every product exists.
func (s *OrderService) orderItems(ctx context.Context, in []OrderItemInput) ([]domain.OrderItem, error) {
	if len(in) == 0 {
		return nil, apperrors.NewValidationError("at least one item is required", map[string]any{"field": "items"})
	}
	quantities := make(map[string]int64, len(in))
	for _, item := range in {
		id := strings.TrimSpace(item.ProductID)
		if item.Quantity <= 0 {
			return nil, apperrors.NewValidationError("quantity must be positive", map[string]any{"field": "items.quantity", "productId": id})
		}
		if !validID(id) {
			return nil, apperrors.NewNotFound("product", map[string]any{"productId": id})
		}
		quantities[id] += item.Quantity
	}

	items := make([]domain.OrderItem, 0, len(quantities))
	for id, quantity := range quantities {
		if _, err := s.products.GetByID(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.NewNotFound("product", map[string]any{"productId": id})
			}
			return nil, apperrors.NewInternalError(err)
		}
		items = append(items, domain.OrderItem{ProductID: id, Quantity: quantity})
	}
	slices.SortFunc(items, func(a, b domain.OrderItem) int { return strings.Compare(a.ProductID, b.ProductID) })
	return items, nil
}
