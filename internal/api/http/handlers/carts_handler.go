package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shop-service/internal/api/dto"
	"github.com/spec-kit/shop-service/internal/auth"
	"github.com/spec-kit/shop-service/internal/service"
	apperrors "github.com/spec-kit/shop-service/pkg/util/errorutil"
)

// CartsHandler exposes shopping cart endpoints.
type CartsHandler struct {
	carts *service.CartService
}

// NewCartsHandler constructs handler.
func NewCartsHandler(cartService *service.CartService) *CartsHandler {
	return &CartsHandler{carts: cartService}
}

// Create handles POST /users/:username/shopping_cart.
func (h *CartsHandler) Create(c *fiber.Ctx) error {
	cart, err := h.carts.Create(c.UserContext(), c.Params("username"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewCartResponse(cart)})
}

// Get handles GET /users/:username/shopping_cart.
func (h *CartsHandler) Get(c *fiber.Ctx) error {
	cart, err := h.carts.Get(c.UserContext(), c.Params("username"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCartResponse(cart)})
}

// ListAll handles GET /all_carts.
func (h *CartsHandler) ListAll(c *fiber.Ctx) error {
	carts, err := h.carts.ListAll(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCartListResponse(carts)})
}

// AddItem handles POST /users/:username/shopping_cart/:productId. The body is optional.
func (h *CartsHandler) AddItem(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var req dto.CartItemRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	cart, err := h.carts.AddItem(c.UserContext(), principal, c.Params("username"), c.Params("productId"), req.Quantity)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCartResponse(cart)})
}

// RemoveItem handles DELETE /users/:username/shopping_cart/:productId.
func (h *CartsHandler) RemoveItem(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	cart, err := h.carts.RemoveItem(c.UserContext(), principal, c.Params("username"), c.Params("productId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCartResponse(cart)})
}
