package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Cheertaboi/storefront/internal/cache"
	"github.com/Cheertaboi/storefront/internal/models"
	"github.com/Cheertaboi/storefront/internal/notify"
	"github.com/Cheertaboi/storefront/internal/pricing"
	"github.com/Cheertaboi/storefront/internal/realtime"
	"github.com/Cheertaboi/storefront/internal/repository/memory"
	"github.com/Cheertaboi/storefront/internal/service"
)

type discardMail struct{}

func (discardMail) Enqueue(context.Context, notify.Message) error { return nil }

type testServer struct {
	handler   http.Handler
	store     *memory.Store
	passwords *service.BcryptPasswords
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger, _ := test.NewNullLogger()
	store := memory.NewStore()
	passwords := service.NewBcryptPasswords(bcrypt.MinCost)
	calc := pricing.NewCalculator(pricing.DefaultPolicy())
	mail := discardMail{}
	hub := realtime.NewHub(4)

	carts := service.NewCartService(store, logger)
	accounts := service.NewAccountService(store, passwords, carts, mail, 3, logger)
	discounts := service.NewDiscountService(store, calc, logger)

	h := NewRouter(Deps{
		Accounts:  accounts,
		Carts:     carts,
		Checkout:  service.NewCheckoutService(store, accounts, discounts, calc, passwords, mail, logger),
		Discounts: discounts,
		Orders:    service.NewOrderService(store, time.UTC, logger),
		Catalog:   service.NewCatalogService(store, hub, logger),
		Admin:     service.NewAdminService(store, logger),
		Sessions:  cache.NewSessionCache(time.Hour),
		Hub:       hub,
		Logger:    logger,
	})
	return &testServer{handler: h, store: store, passwords: passwords}
}

func (s *testServer) account(t *testing.T, email string, role models.Role) {
	t.Helper()
	hash, err := s.passwords.Hash("secret1")
	require.NoError(t, err)
	u := &models.User{FullName: "Test", Email: email, PasswordHash: hash, Role: role, IsActive: true}
	require.NoError(t, s.store.Users().Create(context.Background(), u))
}

func (s *testServer) product(t *testing.T, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:     "Laptop Gaming XYZ",
		Category: "laptop",
		Price:    1_000_000,
		IsActive: true,
		Variants: []models.Variant{{Name: "RAM 16GB / SSD 512GB", Price: 1_000_000, Stock: stock}},
	}
	require.NoError(t, s.store.Products().Create(context.Background(), p))
	return p
}

// browser keeps the session cookie between requests.
type browser struct {
	t      *testing.T
	srv    *testServer
	cookie *http.Cookie
}

func (s *testServer) browser(t *testing.T) *browser {
	return &browser{t: t, srv: s}
}

func (b *browser) do(method, path string, body interface{}) (int, map[string]interface{}) {
	b.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(b.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	rec := httptest.NewRecorder()
	b.srv.handler.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == "sid" {
			b.cookie = c
		}
	}

	var out map[string]interface{}
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(b.t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

func (b *browser) login(email string) {
	b.t.Helper()
	code, body := b.do(http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": "secret1"})
	require.Equal(b.t, http.StatusOK, code, body)
}

var checkoutAddress = map[string]interface{}{
	"fullName": "Tran Thi B",
	"phone":    "0901234567",
	"province": "HCM",
	"district": "1",
	"ward":     "Ben Nghe",
	"street":   "1 Le Loi",
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestGuestCheckoutFlow(t *testing.T) {
	srv := newTestServer(t)
	p := srv.product(t, 5)
	d := &models.DiscountCode{Code: "ABC12", DiscountValue: 500_000, UsageLimit: 10}
	require.NoError(t, srv.store.Discounts().Upsert(context.Background(), d))
	b := srv.browser(t)

	code, body := b.do(http.MethodPost, "/api/cart/add", map[string]interface{}{"productId": p.ID, "quantity": 1})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["cartQty"])

	code, body = b.do(http.MethodPost, "/api/checkout/apply-discount", map[string]string{"code": "abc12"})
	require.Equal(t, http.StatusOK, code, body)
	preview := body["preview"].(map[string]interface{})
	assert.Equal(t, float64(650_000), preview["grandTotal"])

	code, body = b.do(http.MethodPost, "/api/checkout", map[string]interface{}{
		"fullName": "Tran Thi B",
		"email":    "b@example.com",
		"address":  checkoutAddress,
	})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, true, body["newAccount"])
	order := body["order"].(map[string]interface{})
	assert.Equal(t, "Pending", order["status"])
	assert.Equal(t, float64(650_000), order["pricing"].(map[string]interface{})["total"])

	// the buyer is now signed in and the cart is empty
	code, body = b.do(http.MethodGet, "/api/orders", nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Len(t, body["orders"], 1)

	code, body = b.do(http.MethodGet, "/api/cart", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), body["cartQty"])

	code, _ = b.do(http.MethodPost, "/api/checkout", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, code, "empty cart")
}

func TestCheckoutWithExistingEmailStaysAnonymous(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	srv.account(t, "admin@example.com", models.RoleAdmin)
	admin, err := srv.store.Users().FindByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	require.NoError(t, srv.store.Users().SetLoyaltyPoints(ctx, admin.ID, 100))
	p := srv.product(t, 5)
	guest := srv.browser(t)

	code, body := guest.do(http.MethodPost, "/api/cart/add", map[string]interface{}{"productId": p.ID})
	require.Equal(t, http.StatusOK, code, body)
	code, _ = guest.do(http.MethodGet, "/api/admin/dashboard", nil)
	require.Equal(t, http.StatusUnauthorized, code)

	code, body = guest.do(http.MethodPost, "/api/checkout", map[string]interface{}{
		"fullName":  "Tran Thi B",
		"email":     "admin@example.com",
		"address":   checkoutAddress,
		"usePoints": true,
	})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, false, body["newAccount"])
	assert.NotContains(t, body, "loyaltyPoints")
	breakdown := body["order"].(map[string]interface{})["pricing"].(map[string]interface{})
	assert.Equal(t, float64(0), breakdown["usedPoints"])

	code, _ = guest.do(http.MethodGet, "/api/admin/dashboard", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, body = guest.do(http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Nil(t, body["user"])

	addrs, err := srv.store.Users().ListAddresses(ctx, admin.ID)
	require.NoError(t, err)
	assert.Empty(t, addrs)
}

func TestLoginIssuesNewSession(t *testing.T) {
	srv := newTestServer(t)
	srv.account(t, "user@example.com", models.RoleUser)
	b := srv.browser(t)

	code, _ := b.do(http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusOK, code)
	before := *b.cookie

	b.login("user@example.com")
	assert.NotEqual(t, before.Value, b.cookie.Value)

	stale := srv.browser(t)
	stale.cookie = &before
	code, _ = stale.do(http.MethodGet, "/api/orders", nil)
	assert.Equal(t, http.StatusUnauthorized, code, "pre-login session ID is not signed in")

	code, _ = b.do(http.MethodGet, "/api/orders", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestAccountChangesApplyToLiveSessions(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	srv.account(t, "boss@example.com", models.RoleAdmin)
	srv.account(t, "user@example.com", models.RoleUser)

	t.Run("Demoted admin", func(t *testing.T) {
		b := srv.browser(t)
		b.login("boss@example.com")
		code, _ := b.do(http.MethodGet, "/api/admin/dashboard", nil)
		require.Equal(t, http.StatusOK, code)

		u, err := srv.store.Users().FindByEmail(ctx, "boss@example.com")
		require.NoError(t, err)
		u.Role = models.RoleUser
		require.NoError(t, srv.store.Users().Update(ctx, u))

		code, _ = b.do(http.MethodGet, "/api/admin/dashboard", nil)
		assert.Equal(t, http.StatusForbidden, code)
		code, _ = b.do(http.MethodGet, "/api/orders", nil)
		assert.Equal(t, http.StatusOK, code)
	})

	t.Run("Blocked user", func(t *testing.T) {
		b := srv.browser(t)
		b.login("user@example.com")

		u, err := srv.store.Users().FindByEmail(ctx, "user@example.com")
		require.NoError(t, err)
		u.IsActive = false
		require.NoError(t, srv.store.Users().Update(ctx, u))

		code, _ := b.do(http.MethodGet, "/api/orders", nil)
		assert.Equal(t, http.StatusForbidden, code)
		code, _ = b.do(http.MethodGet, "/api/orders", nil)
		assert.Equal(t, http.StatusUnauthorized, code, "session was signed out")
	})
}

func TestCartStockErrors(t *testing.T) {
	srv := newTestServer(t)
	p := srv.product(t, 1)
	b := srv.browser(t)

	code, body := b.do(http.MethodPost, "/api/cart/add", map[string]interface{}{"productId": p.ID, "quantity": 2})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "only 1 left for this variant", body["message"])

	code, _ = b.do(http.MethodPost, "/api/cart/add", map[string]interface{}{"productId": uuid.New()})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAccessControl(t *testing.T) {
	srv := newTestServer(t)
	srv.account(t, "user@example.com", models.RoleUser)
	b := srv.browser(t)

	code, _ := b.do(http.MethodGet, "/api/orders", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = b.do(http.MethodGet, "/api/admin/dashboard", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body := b.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "user@example.com", "password": "nope"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, models.ErrInvalidCredential.Error(), body["message"])

	b.login("user@example.com")
	code, _ = b.do(http.MethodGet, "/api/admin/dashboard", nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = b.do(http.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = b.do(http.MethodGet, "/api/account/profile", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAdminOrderStatus(t *testing.T) {
	srv := newTestServer(t)
	srv.account(t, "admin@example.com", models.RoleAdmin)
	p := srv.product(t, 5)

	buyer := srv.browser(t)
	code, _ := buyer.do(http.MethodPost, "/api/cart/add", map[string]interface{}{"productId": p.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, code)
	code, body := buyer.do(http.MethodPost, "/api/checkout", map[string]interface{}{
		"fullName": "Tran Thi B", "email": "b@example.com", "address": checkoutAddress,
	})
	require.Equal(t, http.StatusCreated, code, body)
	orderID := body["order"].(map[string]interface{})["id"].(string)

	admin := srv.browser(t)
	admin.login("admin@example.com")

	code, body = admin.do(http.MethodGet, "/api/admin/orders?range=today", nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, float64(1), body["totalCount"])

	code, _ = admin.do(http.MethodPost, "/api/admin/orders/"+orderID+"/status", map[string]string{"status": "Delivered"})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = admin.do(http.MethodPost, "/api/admin/orders/"+orderID+"/status", map[string]string{"status": "Bogus"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = admin.do(http.MethodPost, "/api/admin/orders/"+orderID+"/status", map[string]string{"status": "Cancelled"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Len(t, body["order"].(map[string]interface{})["history"], 2)

	stored, err := srv.store.Products().FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Variants[0].Stock)

	code, _ = admin.do(http.MethodGet, "/api/admin/orders/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = buyer.do(http.MethodGet, "/api/orders/"+orderID, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestAdminDiscountsAndCategories(t *testing.T) {
	srv := newTestServer(t)
	srv.account(t, "admin@example.com", models.RoleAdmin)
	admin := srv.browser(t)
	admin.login("admin@example.com")

	code, body := admin.do(http.MethodPost, "/api/admin/discounts", map[string]interface{}{"code": "tet", "discountValue": 100000})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "TET", body["discount"].(map[string]interface{})["code"])

	code, body = admin.do(http.MethodPost, "/api/admin/categories", map[string]string{"name": "Màn hình"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "man-hinh", body["category"].(map[string]interface{})["slug"])

	code, body = admin.do(http.MethodGet, "/api/admin/dashboard", nil)
	require.Equal(t, http.StatusOK, code, body)
}

func TestMalformedBody(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/cart/add", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
