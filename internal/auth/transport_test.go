package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/shop-service/internal/config"
)

func TestTransport_CookieAttributes(t *testing.T) {
	tr := NewTransport(config.AuthConfig{TokenTransport: config.TransportCookie})
	assert.Equal(t, config.TransportCookie, tr.Mode())

	app := fiber.New()
	app.Post("/login", func(c *fiber.Ctx) error {
		tr.Attach(c, "token-value", time.Now().Add(time.Hour))
		return c.SendStatus(http.StatusOK)
	})
	app.Post("/logout", func(c *fiber.Ctx) error {
		tr.Clear(c)
		return c.SendStatus(http.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "jwt", cookies[0].Name)
	assert.Equal(t, "token-value", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, http.SameSiteStrictMode, cookies[0].SameSite)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/logout", nil))
	require.NoError(t, err)
	cookies = resp.Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
}

func TestTransport_HeaderModeSetsNoCookie(t *testing.T) {
	tr := NewTransport(config.AuthConfig{TokenTransport: "anything-else"})
	assert.Equal(t, config.TransportHeader, tr.Mode())

	app := fiber.New()
	app.Post("/login", func(c *fiber.Ctx) error {
		tr.Attach(c, "token-value", time.Now().Add(time.Hour))
		return c.SendStatus(http.StatusOK)
	})
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	assert.Empty(t, resp.Cookies())
}
