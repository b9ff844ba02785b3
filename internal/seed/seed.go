// Package seed fills an empty store with an admin account and a small sample
// catalog so a fresh install can be browsed and checked out against.
package seed

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Cheertaboi/storefront/internal/loyalty"
	"github.com/Cheertaboi/storefront/internal/models"
	"github.com/Cheertaboi/storefront/internal/pricing"
)

type Options struct {
	AdminEmail    string
	AdminPassword string
}

var sampleCategories = []models.Category{
	{Name: "Laptop", Slug: "laptop"},
	{Name: "Monitor", Slug: "monitor"},
	{Name: "HDD", Slug: "hdd"},
}

// Run is idempotent: the admin is created only when its email is unknown and
// the sample data only when the catalog is empty.
func Run(ctx context.Context, store models.Store, passwords models.PasswordManager,
	calc *pricing.Calculator, opts Options, logger log.FieldLogger) error {
	admin, err := ensureAdmin(ctx, store, passwords, opts, logger)
	if err != nil {
		return err
	}

	n, err := store.Products().Count(ctx, models.ProductFilter{})
	if err != nil {
		return err
	}
	if n > 0 {
		logger.WithField("products", n).Info("catalog not empty, skipping sample data")
		return nil
	}
	return store.InTx(ctx, func(tx models.Store) error {
		return sampleData(ctx, tx, admin, calc, logger)
	})
}

func ensureAdmin(ctx context.Context, store models.Store, passwords models.PasswordManager,
	opts Options, logger log.FieldLogger) (*models.User, error) {
	u, err := store.Users().FindByEmail(ctx, opts.AdminEmail)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, models.ErrUserNotFound) {
		return nil, err
	}

	hash, err := passwords.Hash(opts.AdminPassword)
	if err != nil {
		return nil, err
	}
	u = &models.User{
		FullName:     "Administrator",
		Email:        opts.AdminEmail,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsActive:     true,
		Address:      "TP. Ho Chi Minh",
	}
	if err := store.Users().Create(ctx, u); err != nil {
		return nil, errors.Wrap(err, "create admin")
	}
	logger.WithField("email", u.Email).Info("default admin account created")
	return u, nil
}

func sampleData(ctx context.Context, tx models.Store, admin *models.User, calc *pricing.Calculator, logger log.FieldLogger) error {
	for _, c := range sampleCategories {
		if err := tx.Categories().Upsert(ctx, &c); err != nil {
			return err
		}
	}

	p := &models.Product{
		Name:        "Laptop Gaming XYZ",
		Brand:       "Dell",
		Category:    "laptop",
		Price:       20_000_000,
		Description: "Gaming laptop with an Intel i7 CPU, 16GB RAM, a 512GB SSD and a dedicated graphics card.",
		Images: []string{
			"/images/sample-laptop-1.jpg",
			"/images/sample-laptop-2.jpg",
			"/images/sample-laptop-3.jpg",
		},
		Variants: []models.Variant{
			{Name: "RAM 16GB / SSD 512GB", Price: 20_000_000, Stock: 5},
			{Name: "RAM 32GB / SSD 1TB", Price: 26_000_000, Stock: 3},
		},
		IsActive: true,
	}
	if err := tx.Products().Create(ctx, p); err != nil {
		return err
	}

	d := &models.DiscountCode{Code: "ABC12", DiscountValue: 500_000, UsageLimit: 10}
	if err := tx.Discounts().Upsert(ctx, d); err != nil {
		return err
	}

	// one delivered order so the dashboard and order history have content
	cart := models.Cart{Items: []models.CartItem{{
		ProductID:    p.ID,
		VariantIndex: intPtr(0),
		Name:         p.Name,
		VariantName:  p.Variants[0].Name,
		Price:        p.Variants[0].Price,
		Quantity:     1,
	}}}
	breakdown := calc.Calculate(pricing.Input{Subtotal: cart.Total(), DiscountValue: d.DiscountValue})
	now := time.Now().UTC()
	o := models.NewOrder(admin.ID, admin.Email, admin.Address, models.OrderItemsFromCart(cart), breakdown, now)
	id := d.ID
	o.DiscountCodeID = &id
	for _, st := range []models.OrderStatus{models.StatusConfirmed, models.StatusShipping, models.StatusDelivered} {
		if err := o.Transition(st, now); err != nil {
			return err
		}
	}
	if err := tx.Orders().Create(ctx, o); err != nil {
		return err
	}
	if err := tx.Products().DecrementStock(ctx, p.ID, 0, 1); err != nil {
		return err
	}
	if err := tx.Discounts().Redeem(ctx, d.ID); err != nil {
		return err
	}
	balance, err := tx.Users().LockLoyaltyPoints(ctx, admin.ID)
	if err != nil {
		return err
	}
	if err := tx.Users().SetLoyaltyPoints(ctx, admin.ID, loyalty.Settle(balance, 0, breakdown.EarnedPoints)); err != nil {
		return err
	}

	logger.WithFields(log.Fields{"product": p.ID, "order": o.ID}).Info("sample data created")
	return nil
}

func intPtr(v int) *int { return &v }
