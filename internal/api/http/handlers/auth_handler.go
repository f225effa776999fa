package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shop-service/internal/api/dto"
	"github.com/spec-kit/shop-service/internal/auth"
	"github.com/spec-kit/shop-service/internal/service"
	apperrors "github.com/spec-kit/shop-service/pkg/util/errorutil"
)

// AuthHandler exposes registration, login and logout.
type AuthHandler struct {
	auth      *service.AuthService
	transport auth.Transport
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, transport auth.Transport) *AuthHandler {
	return &AuthHandler{auth: authService, transport: transport}
}

// Register handles POST /register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("username, email, password required", nil)
	}

	user, token, err := h.auth.RegisterUser(c.UserContext(), service.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Address:   req.Address,
	})
	if err != nil {
		return err
	}

	h.transport.Attach(c, token.Value, token.ExpiresAt)
	return c.Status(http.StatusCreated).JSON(dto.NewAuthResponse("user registered", user, token))
}

// Login handles POST /login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	identifier := req.LoginIdentifier()
	if identifier == "" || req.Password == "" {
		return apperrors.NewValidationError("identifier and password required", nil)
	}

	user, token, err := h.auth.LoginUser(c.UserContext(), identifier, req.Password, c.IP())
	if err != nil {
		return err
	}

	h.transport.Attach(c, token.Value, token.ExpiresAt)
	return c.JSON(dto.NewAuthResponse("login successful", user, token))
}

// Logout handles POST /logout. Tokens are stateless; only the client copy goes away.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.auth.Logout(c.UserContext()); err != nil {
		return err
	}
	h.transport.Clear(c)
	return c.JSON(fiber.Map{"message": "logged out"})
}
