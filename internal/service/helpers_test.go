package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Cheertaboi/storefront/internal/models"
	"github.com/Cheertaboi/storefront/internal/notify"
	"github.com/Cheertaboi/storefront/internal/pricing"
	"github.com/Cheertaboi/storefront/internal/realtime"
	"github.com/Cheertaboi/storefront/internal/repository/memory"
)

type fakeMail struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (f *fakeMail) Enqueue(_ context.Context, msg notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMail) messages() []notify.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notify.Message(nil), f.sent...)
}

type testEnv struct {
	store     *memory.Store
	mail      *fakeMail
	hub       *realtime.Hub
	passwords *BcryptPasswords
	carts     *CartService
	accounts  *AccountService
	discounts *DiscountService
	checkout  *CheckoutService
	orders    *OrderService
	catalog   *CatalogService
	admin     *AdminService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger, _ := test.NewNullLogger()
	store := memory.NewStore()
	mail := &fakeMail{}
	hub := realtime.NewHub(8)
	passwords := NewBcryptPasswords(bcrypt.MinCost)
	calc := pricing.NewCalculator(pricing.DefaultPolicy())

	env := &testEnv{store: store, mail: mail, hub: hub, passwords: passwords}
	env.carts = NewCartService(store, logger)
	env.accounts = NewAccountService(store, passwords, env.carts, mail, 3, logger)
	env.discounts = NewDiscountService(store, calc, logger)
	env.checkout = NewCheckoutService(store, env.accounts, env.discounts, calc, passwords, mail, logger)
	env.orders = NewOrderService(store, time.UTC, logger)
	env.catalog = NewCatalogService(store, hub, logger)
	env.admin = NewAdminService(store, logger)
	return env
}

func (e *testEnv) user(t *testing.T, email string, points int64) *models.User {
	t.Helper()
	hash, err := e.passwords.Hash("secret1")
	require.NoError(t, err)
	u := &models.User{
		ID:            uuid.New(),
		FullName:      "Nguyen Van A",
		Email:         email,
		PasswordHash:  hash,
		Role:          models.RoleUser,
		IsActive:      true,
		LoyaltyPoints: points,
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, e.store.Users().Create(context.Background(), u))
	return u
}

func (e *testEnv) product(t *testing.T, name string, variants ...models.Variant) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Category: "laptop", Price: 1_000_000, IsActive: true, Variants: variants}
	require.NoError(t, e.store.Products().Create(context.Background(), p))
	return p
}

func (e *testEnv) discount(t *testing.T, code string, value int64, limit int) *models.DiscountCode {
	t.Helper()
	d := &models.DiscountCode{Code: code, DiscountValue: value, UsageLimit: limit}
	require.NoError(t, e.store.Discounts().Upsert(context.Background(), d))
	return d
}

func intPtr(v int) *int { return &v }

func lineFor(p *models.Product, variant, qty int) models.CartItem {
	v := p.Variants[variant]
	return models.CartItem{
		ProductID:    p.ID,
		VariantIndex: intPtr(variant),
		Name:         p.Name,
		VariantName:  v.Name,
		Price:        v.Price,
		Quantity:     qty,
	}
}

func cartOf(items ...models.CartItem) models.Cart {
	return models.Cart{Items: items}
}

var testAddress = models.Address{
	FullName: "Nguyen Van A",
	Phone:    "0901234567",
	Province: "HCM",
	District: "1",
	Ward:     "Ben Nghe",
	Street:   "1 Le Loi",
}
