package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/shop-service/internal/auth"
	"github.com/spec-kit/shop-service/internal/domain"
	"github.com/spec-kit/shop-service/internal/events"
	"github.com/spec-kit/shop-service/internal/repository"
	apperrors "github.com/spec-kit/shop-service/pkg/util/errorutil"
)

// CreateProductInput carries a new catalog entry.
type CreateProductInput struct {
	Name        string
	Description string
	Category    string
	PriceCents  int64
	Stock       int64
}

// UpdateProductInput is a partial update; nil fields are left untouched.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Category    *string
	PriceCents  *int64
	Stock       *int64
}

// ProductService manages the catalog.
type ProductService struct {
	products   repository.ProductRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewProductService builds the service.
func NewProductService(products repository.ProductRepository, dispatcher events.Dispatcher, logger *zap.Logger) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{products: products, dispatcher: dispatcher, logger: logger}
}

// List returns products, optionally restricted to one category.
func (s *ProductService) List(ctx context.Context, category string, limit, offset int) ([]domain.Product, error) {
	filter := repository.ProductFilter{Limit: limit, Offset: offset}
	if c := strings.TrimSpace(category); c != "" {
		filter.Category = &c
	}
	products, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return products, nil
}

// GetByName fetches a product by its unique name.
func (s *ProductService) GetByName(ctx context.Context, name string) (*domain.Product, error) {
	product, err := s.products.GetByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, mapStoreError(err, "product")
	}
	return product, nil
}

// Create adds a catalog entry.
func (s *ProductService) Create(ctx context.Context, actor *auth.Principal, in CreateProductInput) (*domain.Product, error) {
	product := &domain.Product{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		PriceCents:  in.PriceCents,
		Stock:       in.Stock,
	}
	if product.Name == "" {
		return nil, apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	}
	if product.Category == "" {
		return nil, apperrors.NewValidationError("category is required", map[string]any{"field": "category"})
	}
	if err := validateAmounts(&product.PriceCents, &product.Stock); err != nil {
		return nil, err
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, mapStoreError(err, "product")
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventProductCreated,
		SubjectID: product.ID,
		Actor:     actorOf(actor),
		Payload:   events.ProductPayload{Name: product.Name},
	})
	return product, nil
}

// Update applies a partial update and returns the stored product.
func (s *ProductService) Update(ctx context.Context, actor *auth.Principal, id string, in UpdateProductInput) (*domain.Product, error) {
	if !validID(id) {
		return nil, apperrors.NewNotFound("product", nil)
	}
	patch := domain.ProductPatch{
		Name:        nonEmpty(in.Name),
		Description: in.Description,
		Category:    nonEmpty(in.Category),
		PriceCents:  in.PriceCents,
		Stock:       in.Stock,
	}
	if err := validateAmounts(patch.PriceCents, patch.Stock); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, apperrors.NewValidationError("no fields provided for update", nil)
	}

	affected, err := s.products.UpdateFields(ctx, id, patch)
	if err != nil {
		return nil, mapStoreError(err, "product")
	}
	if affected == 0 {
		return nil, apperrors.NewNotFound("product", nil)
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "product")
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventProductUpdated,
		SubjectID: id,
		Actor:     actorOf(actor),
		Payload:   events.ProductPayload{Name: product.Name},
	})
	return product, nil
}

// Delete removes a product.
func (s *ProductService) Delete(ctx context.Context, actor *auth.Principal, id string) error {
	if !validID(id) {
		return apperrors.NewNotFound("product", nil)
	}
	affected, err := s.products.Delete(ctx, id)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if affected == 0 {
		return apperrors.NewNotFound("product", nil)
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventProductDeleted,
		SubjectID: id,
		Actor:     actorOf(actor),
	})
	return nil
}

func validateAmounts(priceCents, stock *int64) error {
	if priceCents != nil && *priceCents < 0 {
		return apperrors.NewValidationError("priceCents must not be negative", map[string]any{"field": "priceCents"})
	}
	if stock != nil && *stock < 0 {
		return apperrors.NewValidationError("stock must not be negative", map[string]any{"field": "stock"})
	}
	return nil
}
