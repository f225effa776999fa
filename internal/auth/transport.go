package auth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shop-service/internal/config"
)

// Transport moves token text between the client and the guard over exactly one
// channel: the Authorization header or an HttpOnly cookie.
type Transport struct {
	mode       string
	cookieName string
}

// NewTransport builds a transport for the configured channel.
func NewTransport(cfg config.AuthConfig) Transport {
	mode := cfg.TokenTransport
	if mode != config.TransportCookie {
		mode = config.TransportHeader
	}
	name := cfg.CookieName
	if name == "" {
		name = "jwt"
	}
	return Transport{mode: mode, cookieName: name}
}

// Mode returns the configured channel.
func (t Transport) Mode() string {
	return t.mode
}

// Extract returns the token text carried by the request, or "" when absent.
func (t Transport) Extract(c *fiber.Ctx) string {
	if t.mode == config.TransportCookie {
		return strings.TrimSpace(c.Cookies(t.cookieName))
	}
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	if len(parts) == 1 {
		return header
	}
	return ""
}

// Attach hands an issued token to the client when the cookie channel is used.
// Header deployments read the token from the response body instead.
func (t Transport) Attach(c *fiber.Ctx, token string, expiresAt time.Time) {
	if t.mode != config.TransportCookie {
		return
	}
	c.Cookie(&fiber.Cookie{
		Name:     t.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

// Clear removes the client's copy of the token when the cookie channel is used.
func (t Transport) Clear(c *fiber.Ctx) {
	if t.mode != config.TransportCookie {
		return
	}
	c.Cookie(&fiber.Cookie{
		Name:     t.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}
