package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shop-service/internal/api/dto"
	"github.com/spec-kit/shop-service/internal/auth"
	"github.com/spec-kit/shop-service/internal/service"
	apperrors "github.com/spec-kit/shop-service/pkg/util/errorutil"
)

// OrdersHandler exposes order endpoints.
type OrdersHandler struct {
	orders *service.OrderService
}

// NewOrdersHandler constructs handler.
func NewOrdersHandler(orderService *service.OrderService) *OrdersHandler {
	return &OrdersHandler{orders: orderService}
}

// List handles GET /orders.
func (h *OrdersHandler) List(c *fiber.Ctx) error {
	orders, err := h.orders.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOrderListResponse(orders)})
}

// ListForUser handles GET /orders/:userId.
func (h *OrdersHandler) ListForUser(c *fiber.Ctx) error {
	orders, err := h.orders.ListForUser(c.UserContext(), c.Params("userId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOrderListResponse(orders)})
}

// Create handles POST /orders.
func (h *OrdersHandler) Create(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.OrderCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	items := make([]service.OrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.OrderItemInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	order, err := h.orders.Create(c.UserContext(), principal, service.CreateOrderInput{
		UserID:          req.UserID,
		ShippingAddress: req.ShippingAddress,
		Items:           items,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewOrderResponse(order)})
}

// Update handles PUT /orders/:orderId.
func (h *OrdersHandler) Update(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.OrderUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	order, err := h.orders.Update(c.UserContext(), principal, c.Params("orderId"), service.UpdateOrderInput{
		Status:          req.Status,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOrderResponse(order)})
}

// Delete handles DELETE /orders/:orderId.
func (h *OrdersHandler) Delete(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	id := c.Params("orderId")
	if err := h.orders.Delete(c.UserContext(), principal, id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "order deleted", "orderId": id})
}
