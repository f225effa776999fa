package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/shop-service/internal/config"
	"github.com/spec-kit/shop-service/internal/domain"
)

type testServer struct {
	rt  *Runtime
	app *fiber.App
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()
	cfg := config.Defaults()
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.SQLitePath = filepath.Join(t.TempDir(), "shop.db")
	cfg.Auth.JWTSecret = "end-to-end-secret"
	cfg.Auth.BcryptCost = bcrypt.MinCost
	if mutate != nil {
		mutate(&cfg)
	}
	require.NoError(t, cfg.Validate())

	rt, err := Open(context.Background(), &cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(rt.Close)
	return &testServer{rt: rt, app: rt.NewHTTPApp()}
}

type response struct {
	status int
	header http.Header
	body   map[string]any
	raw    string
}

func (s *testServer) call(t *testing.T, method, path, token string, payload any) response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := response{status: resp.StatusCode, header: resp.Header, raw: string(raw), body: map[string]any{}}
	if strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &out.body), string(raw))
	}
	return out
}

func (s *testServer) register(t *testing.T, username, email, password string) response {
	t.Helper()
	return s.call(t, http.MethodPost, "/register", "", map[string]string{
		"username": username, "email": email, "password": password, "firstName": "A", "lastName": "L",
	})
}

func (s *testServer) login(t *testing.T, identifierField, identifier, password string) response {
	t.Helper()
	return s.call(t, http.MethodPost, "/login", "", map[string]string{identifierField: identifier, "password": password})
}

// adminToken registers an account, promotes it and logs it in.
func (s *testServer) adminToken(t *testing.T) (string, string) {
	t.Helper()
	reg := s.register(t, "root", "root@x.com", "rootpw")
	require.Equal(t, http.StatusCreated, reg.status, reg.raw)
	_, err := s.rt.UserService.SetStatus(context.Background(), "root", domain.UserStatusAdmin)
	require.NoError(t, err)
	login := s.login(t, "username", "root", "rootpw")
	require.Equal(t, http.StatusOK, login.status, login.raw)
	return login.body["token"].(string), login.body["userId"].(string)
}

func TestRegisterAndDuplicate(t *testing.T) {
	s := newTestServer(t, nil)

	first := s.register(t, "alice", "a@x.com", "pw1")
	require.Equal(t, http.StatusCreated, first.status, first.raw)
	assert.NotEmpty(t, first.body["userId"])
	assert.NotEmpty(t, first.body["token"])
	assert.Equal(t, "alice", first.body["username"])
	assert.Equal(t, "standard", first.body["status"])
	assert.NotContains(t, first.raw, "password")

	second := s.register(t, "alice", "other@x.com", "pw2")
	assert.Equal(t, http.StatusBadRequest, second.status)
	assert.Equal(t, "DUPLICATE_USERNAME", second.body["code"])
	assert.NotEmpty(t, second.body["error"])
}

func TestLogin(t *testing.T) {
	s := newTestServer(t, nil)
	reg := s.register(t, "alice", "a@x.com", "pw1")
	require.Equal(t, http.StatusCreated, reg.status, reg.raw)

	ok := s.login(t, "email", "a@x.com", "pw1")
	require.Equal(t, http.StatusOK, ok.status, ok.raw)
	claims, err := s.rt.Tokens.ParseToken(ok.body["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, reg.body["userId"], claims.UserID)

	byIdentifier := s.login(t, "identifier", "alice", "pw1")
	assert.Equal(t, http.StatusOK, byIdentifier.status)

	wrong := s.login(t, "email", "a@x.com", "nope")
	assert.Equal(t, http.StatusUnauthorized, wrong.status)
	unknown := s.login(t, "email", "z@x.com", "pw1")
	assert.Equal(t, http.StatusUnauthorized, unknown.status)
	assert.Equal(t, wrong.body["error"], unknown.body["error"])

	missing := s.call(t, http.MethodPost, "/login", "", map[string]string{"password": "pw1"})
	assert.Equal(t, http.StatusBadRequest, missing.status)
}

func TestUsersListRequiresAdmin(t *testing.T) {
	s := newTestServer(t, nil)
	alice := s.register(t, "alice", "a@x.com", "pw1")
	aliceToken := alice.body["token"].(string)

	noToken := s.call(t, http.MethodGet, "/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, noToken.status)

	denied := s.call(t, http.MethodGet, "/users", aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, denied.status)

	adminToken, _ := s.adminToken(t)
	allowed := s.call(t, http.MethodGet, "/users", adminToken, nil)
	require.Equal(t, http.StatusOK, allowed.status, allowed.raw)
	users, ok := allowed.body["data"].([]any)
	require.True(t, ok)
	assert.Len(t, users, 2)
	assert.NotContains(t, allowed.raw, "$2a$")
}

func TestAdminPasswordUpdate(t *testing.T) {
	s := newTestServer(t, nil)
	alice := s.register(t, "alice", "a@x.com", "pw1")
	aliceID := alice.body["userId"].(string)
	adminToken, _ := s.adminToken(t)

	upd := s.call(t, http.MethodPut, "/users/"+aliceID, adminToken, map[string]string{"password": "newpw"})
	require.Equal(t, http.StatusOK, upd.status, upd.raw)
	assert.Equal(t, aliceID, upd.body["userId"])

	assert.Equal(t, http.StatusOK, s.login(t, "email", "a@x.com", "newpw").status)
	assert.Equal(t, http.StatusUnauthorized, s.login(t, "email", "a@x.com", "pw1").status)
}

func TestSelfAccess(t *testing.T) {
	s := newTestServer(t, nil)
	alice := s.register(t, "alice", "a@x.com", "pw1")
	aliceToken, aliceID := alice.body["token"].(string), alice.body["userId"].(string)
	bob := s.register(t, "bob", "b@x.com", "pw1")
	bobID := bob.body["userId"].(string)

	own := s.call(t, http.MethodGet, "/users/alice", aliceToken, nil)
	require.Equal(t, http.StatusOK, own.status, own.raw)
	assert.Equal(t, "a@x.com", own.body["data"].(map[string]any)["email"])
	assert.Equal(t, http.StatusForbidden, s.call(t, http.MethodGet, "/users/bob", aliceToken, nil).status)

	upd := s.call(t, http.MethodPut, "/users/"+aliceID, aliceToken, map[string]string{"phone": "555-0100"})
	assert.Equal(t, http.StatusOK, upd.status, upd.raw)
	assert.Equal(t, http.StatusForbidden, s.call(t, http.MethodPut, "/users/"+bobID, aliceToken, map[string]string{"phone": "1"}).status)

	escalate := s.call(t, http.MethodPut, "/users/"+aliceID, aliceToken, map[string]string{"status": "admin"})
	assert.Equal(t, http.StatusForbidden, escalate.status)

	empty := s.call(t, http.MethodPut, "/users/"+aliceID, aliceToken, map[string]string{"firstName": ""})
	assert.Equal(t, http.StatusBadRequest, empty.status)
}

func TestDeleteUser(t *testing.T) {
	s := newTestServer(t, nil)
	alice := s.register(t, "alice", "a@x.com", "pw1")
	aliceToken := alice.body["token"].(string)
	adminToken, _ := s.adminToken(t)

	assert.Equal(t, http.StatusForbidden, s.call(t, http.MethodDelete, "/users/alice", aliceToken, nil).status)

	del := s.call(t, http.MethodDelete, "/users/alice", adminToken, nil)
	require.Equal(t, http.StatusOK, del.status, del.raw)
	assert.Equal(t, http.StatusNotFound, s.call(t, http.MethodDelete, "/users/alice", adminToken, nil).status)

	orphaned := s.call(t, http.MethodGet, "/users/alice", aliceToken, nil)
	assert.Equal(t, http.StatusUnauthorized, orphaned.status)
	assert.Equal(t, "INVALID_TOKEN", orphaned.body["code"])
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, nil)

	resp := s.call(t, http.MethodOptions, "/users", "", nil)
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "http://localhost:5173", resp.header.Get(fiber.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "true", resp.header.Get(fiber.HeaderAccessControlAllowCredentials))
	assert.Contains(t, resp.header.Get(fiber.HeaderAccessControlAllowHeaders), "Authorization")
	assert.Contains(t, resp.header.Get(fiber.HeaderAccessControlAllowMethods), "DELETE")

	denied := s.call(t, http.MethodGet, "/users", "", nil)
	assert.Equal(t, "http://localhost:5173", denied.header.Get(fiber.HeaderAccessControlAllowOrigin))
}

func TestCookieTransport(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.Auth.TokenTransport = config.TransportCookie
	})

	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(
		`{"username":"alice","email":"a@x.com","password":"pw1","firstName":"A","lastName":"L"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var jwtCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "jwt" {
			jwtCookie = c
		}
	}
	require.NotNil(t, jwtCookie)
	assert.True(t, jwtCookie.HttpOnly)
	assert.True(t, jwtCookie.Secure)

	get := httptest.NewRequest(http.MethodGet, "/users/alice", nil)
	get.AddCookie(&http.Cookie{Name: "jwt", Value: jwtCookie.Value})
	resp, err = s.app.Test(get, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The header channel is not consulted in cookie mode.
	header := s.call(t, http.MethodGet, "/users/alice", jwtCookie.Value, nil)
	assert.Equal(t, http.StatusUnauthorized, header.status)
}

func TestLoginThrottling(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.Auth.LoginMaxAttempts = 2
	})
	s.register(t, "alice", "a@x.com", "pw1")

	s.login(t, "username", "alice", "bad")
	s.login(t, "username", "alice", "bad")
	blocked := s.login(t, "username", "alice", "pw1")
	assert.Equal(t, http.StatusTooManyRequests, blocked.status)
	assert.NotEmpty(t, blocked.header.Get(fiber.HeaderRetryAfter))
	assert.Equal(t, "TOO_MANY_REQUESTS", blocked.body["code"])
}

func TestProducts(t *testing.T) {
	s := newTestServer(t, nil)
	alice := s.register(t, "alice", "a@x.com", "pw1")
	aliceToken := alice.body["token"].(string)
	adminToken, _ := s.adminToken(t)

	mug := map[string]any{"name": "mug", "category": "kitchen", "priceCents": 1200, "stock": 4}
	assert.Equal(t, http.StatusUnauthorized, s.call(t, http.MethodPost, "/products", "", mug).status)
	assert.Equal(t, http.StatusForbidden, s.call(t, http.MethodPost, "/products", aliceToken, mug).status)

	created := s.call(t, http.MethodPost, "/products", adminToken, mug)
	require.Equal(t, http.StatusCreated, created.status, created.raw)
	productID := created.body["data"].(map[string]any)["productId"].(string)

	dup := s.call(t, http.MethodPost, "/products", adminToken, mug)
	assert.Equal(t, "DUPLICATE_PRODUCT", dup.body["code"])

	lamp := map[string]any{"name": "lamp", "category": "living", "priceCents": 3000}
	require.Equal(t, http.StatusCreated, s.call(t, http.MethodPost, "/products", adminToken, lamp).status)

	list := s.call(t, http.MethodGet, "/products?category=kitchen", "", nil)
	require.Equal(t, http.StatusOK, list.status)
	assert.Len(t, list.body["data"], 1)

	one := s.call(t, http.MethodGet, "/products/mug", "", nil)
	require.Equal(t, http.StatusOK, one.status)
	assert.Equal(t, productID, one.body["data"].(map[string]any)["productId"])

	upd := s.call(t, http.MethodPut, "/products/"+productID, adminToken, map[string]any{"stock": 0})
	require.Equal(t, http.StatusOK, upd.status, upd.raw)
	assert.EqualValues(t, 0, upd.body["data"].(map[string]any)["stock"])

	assert.Equal(t, http.StatusOK, s.call(t, http.MethodDelete, "/products/"+productID, adminToken, nil).status)
	assert.Equal(t, http.StatusNotFound, s.call(t, http.MethodGet, "/products/mug", "", nil).status)
}

func (s *testServer) createProduct(t *testing.T, adminToken, name string) string {
	t.Helper()
	created := s.call(t, http.MethodPost, "/products", adminToken, map[string]any{"name": name, "category": "misc", "priceCents": 500, "stock": 9})
	require.Equal(t, http.StatusCreated, created.status, created.raw)
	return created.body["data"].(map[string]any)["productId"].(string)
}

func TestShoppingCartAccess(t *testing.T) {
	s := newTestServer(t, nil)
	aliceToken := s.register(t, "alice", "a@x.com", "pw1").body["token"].(string)
	bobToken := s.register(t, "bob", "b@x.com", "pw2").body["token"].(string)
	adminToken, _ := s.adminToken(t)
	mugID := s.createProduct(t, adminToken, "mug")

	assert.Equal(t, http.StatusUnauthorized, s.call(t, http.MethodGet, "/users/alice/shopping_cart", "", nil).status)

	// Self.
	created := s.call(t, http.MethodPost, "/users/alice/shopping_cart", aliceToken, nil)
	require.Equal(t, http.StatusCreated, created.status, created.raw)
	added := s.call(t, http.MethodPost, "/users/alice/shopping_cart/"+mugID, aliceToken, map[string]any{"quantity": 2})
	require.Equal(t, http.StatusOK, added.status, added.raw)
	items := added.body["data"].(map[string]any)["items"].([]any)
	require.Len(t, items, 1)
	assert.EqualValues(t, 2, items[0].(map[string]any)["quantity"])

	own := s.call(t, http.MethodGet, "/users/alice/shopping_cart", aliceToken, nil)
	require.Equal(t, http.StatusOK, own.status, own.raw)
	assert.Equal(t, created.body["data"].(map[string]any)["cartId"], own.body["data"].(map[string]any)["cartId"])

	// Another user.
	for _, req := range []struct{ method, path string }{
		{http.MethodGet, "/users/alice/shopping_cart"},
		{http.MethodPost, "/users/alice/shopping_cart"},
		{http.MethodPost, "/users/alice/shopping_cart/" + mugID},
		{http.MethodDelete, "/users/alice/shopping_cart/" + mugID},
	} {
		denied := s.call(t, req.method, req.path, bobToken, nil)
		assert.Equal(t, http.StatusForbidden, denied.status, req.method+" "+req.path)
		assert.Equal(t, "FORBIDDEN", denied.body["code"])
	}
	assert.Equal(t, http.StatusForbidden, s.call(t, http.MethodGet, "/all_carts", bobToken, nil).status)

	// Admin.
	asAdmin := s.call(t, http.MethodGet, "/users/alice/shopping_cart", adminToken, nil)
	require.Equal(t, http.StatusOK, asAdmin.status, asAdmin.raw)
	removed := s.call(t, http.MethodDelete, "/users/alice/shopping_cart/"+mugID, adminToken, nil)
	require.Equal(t, http.StatusOK, removed.status, removed.raw)
	assert.Empty(t, removed.body["data"].(map[string]any)["items"])

	// Adding without a body creates the cart with one unit.
	bobAdd := s.call(t, http.MethodPost, "/users/bob/shopping_cart/"+mugID, bobToken, nil)
	require.Equal(t, http.StatusOK, bobAdd.status, bobAdd.raw)
	assert.EqualValues(t, 1, bobAdd.body["data"].(map[string]any)["items"].([]any)[0].(map[string]any)["quantity"])

	all := s.call(t, http.MethodGet, "/all_carts", adminToken, nil)
	require.Equal(t, http.StatusOK, all.status, all.raw)
	assert.Len(t, all.body["data"], 2)

	missing := s.call(t, http.MethodGet, "/users/ghost/shopping_cart", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, missing.status)
}

func TestOrders(t *testing.T) {
	s := newTestServer(t, nil)
	alice := s.register(t, "alice", "a@x.com", "pw1")
	aliceToken, aliceID := alice.body["token"].(string), alice.body["userId"].(string)
	bob := s.register(t, "bob", "b@x.com", "pw2")
	bobToken, bobID := bob.body["token"].(string), bob.body["userId"].(string)
	adminToken, _ := s.adminToken(t)
	mugID := s.createProduct(t, adminToken, "mug")

	payload := map[string]any{
		"shippingAddress": "1 Main St",
		"items":           []map[string]any{{"productId": mugID, "quantity": 2}},
	}
	assert.Equal(t, http.StatusUnauthorized, s.call(t, http.MethodPost, "/orders", "", payload).status)

	created := s.call(t, http.MethodPost, "/orders", aliceToken, payload)
	require.Equal(t, http.StatusCreated, created.status, created.raw)
	order := created.body["data"].(map[string]any)
	orderID := order["orderId"].(string)
	assert.Equal(t, aliceID, order["userId"])
	assert.Equal(t, "pending", order["status"])

	forOther := s.call(t, http.MethodPost, "/orders", aliceToken, map[string]any{
		"userId": bobID, "shippingAddress": "x", "items": payload["items"],
	})
	assert.Equal(t, http.StatusForbidden, forOther.status)

	// Listing: self, other user, admin.
	own := s.call(t, http.MethodGet, "/orders/"+aliceID, aliceToken, nil)
	require.Equal(t, http.StatusOK, own.status, own.raw)
	assert.Len(t, own.body["data"], 1)
	assert.Equal(t, http.StatusForbidden, s.call(t, http.MethodGet, "/orders/"+aliceID, bobToken, nil).status)
	assert.Equal(t, http.StatusOK, s.call(t, http.MethodGet, "/orders/"+aliceID, adminToken, nil).status)
	assert.Equal(t, http.StatusForbidden, s.call(t, http.MethodGet, "/orders", aliceToken, nil).status)
	all := s.call(t, http.MethodGet, "/orders", adminToken, nil)
	require.Equal(t, http.StatusOK, all.status)
	assert.Len(t, all.body["data"], 1)

	// Updates: owners edit pending orders, admins move status along.
	assert.Equal(t, http.StatusForbidden, s.call(t, http.MethodPut, "/orders/"+orderID, bobToken, map[string]any{"shippingAddress": "mine"}).status)
	assert.Equal(t, http.StatusForbidden, s.call(t, http.MethodPut, "/orders/"+orderID, aliceToken, map[string]any{"status": "shipped"}).status)
	moved := s.call(t, http.MethodPut, "/orders/"+orderID, adminToken, map[string]any{"status": "paid"})
	require.Equal(t, http.StatusOK, moved.status, moved.raw)
	assert.Equal(t, "paid", moved.body["data"].(map[string]any)["status"])

	late := s.call(t, http.MethodPut, "/orders/"+orderID, aliceToken, map[string]any{"status": "cancelled"})
	assert.Equal(t, http.StatusBadRequest, late.status)
	assert.Equal(t, "ORDER_NOT_PENDING", late.body["code"])

	assert.Equal(t, http.StatusForbidden, s.call(t, http.MethodDelete, "/orders/"+orderID, bobToken, nil).status)
	deleted := s.call(t, http.MethodDelete, "/orders/"+orderID, aliceToken, nil)
	require.Equal(t, http.StatusOK, deleted.status, deleted.raw)
	assert.Equal(t, orderID, deleted.body["orderId"])
	assert.Equal(t, http.StatusNotFound, s.call(t, http.MethodDelete, "/orders/"+orderID, adminToken, nil).status)
}

func TestOperationalEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	live := s.call(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, live.status)
	assert.Equal(t, "shop-service", live.body["service"])

	ready := s.call(t, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, ready.status, ready.raw)
	deps := ready.body["dependencies"].(map[string]any)
	assert.Equal(t, "ok", deps["database"])
	assert.Equal(t, "disabled", deps["redis"])

	s.call(t, http.MethodGet, "/users", "", nil)
	metrics := s.call(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, metrics.status)
	assert.Contains(t, metrics.raw, `auth_guard_decisions_total{outcome="no_token"} 1`)
	assert.Contains(t, metrics.raw, "http_requests_total")

	missing := s.call(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, missing.status)
	assert.Equal(t, "NOT_FOUND", missing.body["code"])
	assert.NotEmpty(t, missing.header.Get("X-Request-ID"))
}
