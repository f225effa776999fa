package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/shop-service/internal/auth"
	"github.com/spec-kit/shop-service/internal/domain"
	"github.com/spec-kit/shop-service/internal/events"
	"github.com/spec-kit/shop-service/internal/repository"
	apperrors "github.com/spec-kit/shop-service/pkg/util/errorutil"
)

// CartService manages per-user shopping carts addressed by username.
type CartService struct {
	carts      repository.CartRepository
	products   repository.ProductRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewCartService builds the service.
func NewCartService(
	carts repository.CartRepository,
	products repository.ProductRepository,
	users repository.UserRepository,
	dispatcher events.Dispatcher,
	logger *zap.Logger,
) *CartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartService{carts: carts, products: products, users: users, dispatcher: dispatcher, logger: logger}
}

// Create returns the user's cart, creating an empty one if needed.
func (s *CartService) Create(ctx context.Context, username string) (*domain.Cart, error) {
	owner, err := s.owner(ctx, username)
	if err != nil {
		return nil, err
	}
	cart, err := s.carts.Ensure(ctx, owner.ID)
	if err != nil {
		return nil, mapStoreError(err, "cart")
	}
	return cart, nil
}

// Get returns the user's cart. Users without a cart get a not found error.
func (s *CartService) Get(ctx context.Context, username string) (*domain.Cart, error) {
	owner, err := s.owner(ctx, username)
	if err != nil {
		return nil, err
	}
	cart, err := s.carts.GetByUserID(ctx, owner.ID)
	if err != nil {
		return nil, mapStoreError(err, "cart")
	}
	return cart, nil
}

// ListAll returns every cart.
func (s *CartService) ListAll(ctx context.Context) ([]domain.Cart, error) {
	carts, err := s.carts.List(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return carts, nil
}

// AddItem puts quantity units of a product into the cart, creating the cart on
// first use. Adding a product already in the cart increases its quantity.
func (s *CartService) AddItem(ctx context.Context, actor *auth.Principal, username, productID string, quantity int64) (*domain.Cart, error) {
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return nil, apperrors.NewValidationError("quantity must be positive", map[string]any{"field": "quantity"})
	}
	owner, err := s.owner(ctx, username)
	if err != nil {
		return nil, err
	}
	productID = strings.TrimSpace(productID)
	if !validID(productID) {
		return nil, apperrors.NewNotFound("product", nil)
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, mapStoreError(err, "product")
	}

	cart, err := s.carts.Ensure(ctx, owner.ID)
	if err != nil {
		return nil, mapStoreError(err, "cart")
	}
	if err := s.carts.AddItem(ctx, cart.ID, productID, quantity); err != nil {
		if errors.Is(err, repository.ErrInvalidReference) {
			return nil, apperrors.NewNotFound("product", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}
	if cart, err = s.carts.GetByUserID(ctx, owner.ID); err != nil {
		return nil, mapStoreError(err, "cart")
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventCartItemAdded,
		SubjectID: owner.ID,
		Actor:     actorOf(actor),
		Payload:   events.CartItemPayload{CartID: cart.ID, ProductID: productID, Quantity: quantity},
	})
	return cart, nil
}

// RemoveItem drops a product line from the cart.
func (s *CartService) RemoveItem(ctx context.Context, actor *auth.Principal, username, productID string) (*domain.Cart, error) {
	owner, err := s.owner(ctx, username)
	if err != nil {
		return nil, err
	}
	cart, err := s.carts.GetByUserID(ctx, owner.ID)
	if err != nil {
		return nil, mapStoreError(err, "cart")
	}
	affected, err := s.carts.RemoveItem(ctx, cart.ID, strings.TrimSpace(productID))
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if affected == 0 {
		return nil, apperrors.NewNotFound("cart item", nil)
	}
	if cart, err = s.carts.GetByUserID(ctx, owner.ID); err != nil {
		return nil, mapStoreError(err, "cart")
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventCartItemRemoved,
		SubjectID: owner.ID,
		Actor:     actorOf(actor),
		Payload:   events.CartItemPayload{CartID: cart.ID, ProductID: productID},
	})
	return cart, nil
}

// owner resolves the account in the route. Only exact usernames match so the
// route cannot be addressed by email.
func (s *CartService) owner(ctx context.Context, username string) (*domain.User, error) {
	username = normalizeUsername(username)
	user, err := s.users.GetByIdentifier(ctx, username)
	if err != nil {
		return nil, mapStoreError(err, "user")
	}
	if user.Username != username {
		return nil, apperrors.NewNotFound("user", nil)
	}
	return user, nil
}
